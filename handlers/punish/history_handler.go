package punish

import (
	"fmt"
	"log"
	"time"

	"punish-bot/bot"
	"punish-bot/utils"

	"github.com/bwmarrin/discordgo"
)

const historyLimit = 10

// HandleHistoryCommand shows a user's recent punishment records.
func HandleHistoryCommand(s *discordgo.Session, i *discordgo.InteractionCreate, b *bot.Bot) {
	options := i.ApplicationCommandData().Options
	if len(options) == 0 {
		utils.SendErrorResponse(s, i, "No user supplied.")
		return
	}
	targetUser := options[0].UserValue(s)
	if targetUser == nil {
		utils.SendErrorResponse(s, i, "Could not resolve the target user.")
		return
	}

	records, err := b.GetDB().ListPunishments(targetUser.ID, historyLimit)
	if err != nil {
		log.Printf("Error fetching punishment history for %s: %v", targetUser.ID, err)
		utils.SendErrorResponse(s, i, "Failed to fetch punishment history.")
		return
	}
	if len(records) == 0 {
		utils.SendErrorResponse(s, i, fmt.Sprintf("No punishment records for %s.", targetUser.Username))
		return
	}

	var fields []*discordgo.MessageEmbedField
	for _, rec := range records {
		name := fmt.Sprintf("%s · stage %d", rec.Reason, rec.Stage)
		value := fmt.Sprintf("%g %s × %.2f → %d · %g pts · <t:%d:d>",
			rec.BaseAmount, rec.Unit, rec.Multiplier, rec.FinalDuration, rec.Points, rec.CreatedAt)
		fields = append(fields, &discordgo.MessageEmbedField{Name: name, Value: value})
	}

	embed := &discordgo.MessageEmbed{
		Title:     fmt.Sprintf("Punishment history: %s", targetUser.Username),
		Color:     0x5865F2,
		Fields:    fields,
		Timestamp: time.Now().Format(time.RFC3339),
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Most recent %d records", len(records)),
		},
	}

	err = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
			Flags:  discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		log.Printf("Failed to send history response: %v", err)
	}
}
