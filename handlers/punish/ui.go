package punish

import (
	"fmt"
	"strings"
	"time"

	"punish-bot/bot"
	"punish-bot/model"
	engine "punish-bot/punish"

	"github.com/bwmarrin/discordgo"
)

// maxMenuOptions is Discord's cap on select-menu entries.
const maxMenuOptions = 25

// buildReasonMenu builds the ephemeral reason-selection response. The
// catalog arrives ordered by stage ascending, so keeping the first
// occurrence per reason shows each offense at its entry-level template.
func buildReasonMenu(entries []model.CatalogEntry, key string, target *discordgo.User, avoid bool) *discordgo.InteractionResponseData {
	seen := make(map[string]bool)
	options := make([]discordgo.SelectMenuOption, 0, len(entries))
	for _, entry := range entries {
		if seen[entry.Reason] {
			continue
		}
		seen[entry.Reason] = true
		options = append(options, discordgo.SelectMenuOption{
			Label:       entry.Reason,
			Value:       entry.Reason,
			Description: fmt.Sprintf("%g %s · %g pts", entry.Amount, entry.Unit, entry.Points),
		})
		if len(options) == maxMenuOptions {
			break
		}
	}

	content := fmt.Sprintf("Punishing %s. Select reason(s), then confirm.", target.Mention())
	if avoid {
		content = fmt.Sprintf("Re-applying the previous sentence of %s (ban evasion). Select the original reason(s), then confirm.", target.Mention())
	}

	minValues := 1
	return &discordgo.InteractionResponseData{
		Content: content,
		Flags:   discordgo.MessageFlagsEphemeral,
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					discordgo.SelectMenu{
						MenuType:    discordgo.StringSelectMenu,
						CustomID:    componentReasonSelect + ":" + key,
						Placeholder: "Select offense reason(s)",
						MinValues:   &minValues,
						MaxValues:   len(options),
						Options:     options,
					},
				},
			},
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					discordgo.Button{
						Label:    "Confirm",
						Style:    discordgo.DangerButton,
						CustomID: componentConfirmButton + ":" + key,
					},
					discordgo.Button{
						Label:    "Cancel",
						Style:    discordgo.SecondaryButton,
						CustomID: componentCancelButton + ":" + key,
					},
				},
			},
		},
	}
}

// buildThreadEmbed renders the summary block appended to the user's
// discussion thread.
func buildThreadEmbed(b *bot.Bot, p *pendingPunishment, result *engine.Result, moderator string) *discordgo.MessageEmbed {
	ip := p.IP
	if ip == "" {
		ip = "not provided"
	}

	pointsValue := fmt.Sprintf("%g new (decayed total: %.2f)", result.TotalPoints, result.DecayedPoints)
	title := "🔨 Punishment Issued"
	if p.Avoid {
		pointsValue = "0 (reused sentence, no new points)"
		title = "🔁 Prior Sentence Re-applied"
	}

	return &discordgo.MessageEmbed{
		Title: title,
		Color: 0xff0000,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "User", Value: fmt.Sprintf("<@%s> (%s)", p.UserID, p.Username), Inline: true},
			{Name: "IP", Value: ip, Inline: true},
			{Name: "Reasons", Value: strings.Join(result.Reasons, ", ")},
			{Name: "Base Duration", Value: fmt.Sprintf("%g %s", result.BaseValue, result.DisplayUnit), Inline: true},
			{Name: "Multiplier", Value: fmt.Sprintf("×%.2f", result.Multiplier), Inline: true},
			{Name: "Points", Value: pointsValue, Inline: true},
			{Name: "Final Duration", Value: fmt.Sprintf("**%s** (%s)", result.HumanDuration(), result.CompactToken)},
			{Name: "Expires", Value: formatExpiry(b, result.ExpiryEpoch)},
		},
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Issued by %s", moderator),
		},
		Timestamp: time.Now().Format(time.RFC3339),
	}
}

// formatExpiry renders the expiry both as Discord timestamp markup and as
// an absolute time in the deployment's display zone.
func formatExpiry(b *bot.Bot, epoch int64) string {
	loc, err := time.LoadLocation(b.GetConfig().Policy.DisplayTimezone)
	if err != nil {
		loc = time.UTC
	}
	absolute := time.Unix(epoch, 0).In(loc).Format("Jan 2, 2006 3:04 PM MST")
	return fmt.Sprintf("<t:%d:F> (%s)", epoch, absolute)
}

// buildAckContent renders the moderator's private confirmation.
func buildAckContent(b *bot.Bot, p *pendingPunishment, result *engine.Result, threadID string, threadErr error) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "✅ <@%s> has been punished for **%s** due to **%s**.",
		p.UserID, result.HumanDuration(), strings.Join(result.Reasons, ", "))
	if threadErr == nil && threadID != "" {
		fmt.Fprintf(&sb, "\nSummary: https://discord.com/channels/%s/%s", b.GetConfig().GuildID, threadID)
	} else {
		sb.WriteString("\n⚠️ The summary could not be posted to the discussion thread.")
	}
	return sb.String()
}
