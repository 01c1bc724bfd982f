package punish

import (
	"log"

	"punish-bot/bot"
	"punish-bot/utils"

	"github.com/bwmarrin/discordgo"
)

// HandlePunishCommand opens the reason-selection menu for a /punish
// invocation. The actual scoring runs when the moderator confirms the
// selection (see components.go).
func HandlePunishCommand(s *discordgo.Session, i *discordgo.InteractionCreate, b *bot.Bot) {
	opts := parsePunishOptions(s, i)
	if opts.TargetUser == nil {
		utils.SendErrorResponse(s, i, "Could not resolve the target user.")
		return
	}

	entries, err := b.GetDB().ListCatalogEntries()
	if err != nil {
		log.Printf("Error listing catalog entries: %v", err)
		utils.SendErrorResponse(s, i, "Failed to load the punishment catalog.")
		return
	}
	if len(entries) == 0 {
		utils.SendErrorResponse(s, i, "The punishment catalog is empty; nothing to select.")
		return
	}

	key := i.ID
	storePending(key, &pendingPunishment{
		UserID:   opts.TargetUser.ID,
		Username: opts.TargetUser.Username,
		IP:       opts.IP,
		Avoid:    opts.Avoid,
	})

	err = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: buildReasonMenu(entries, key, opts.TargetUser, opts.Avoid),
	})
	if err != nil {
		log.Printf("Failed to send punish menu: %v", err)
		deletePending(key)
	}
}

// ParsedOptions holds the parsed options from the punish command interaction.
type ParsedOptions struct {
	TargetUser *discordgo.User
	IP         string
	Avoid      bool
}

func parsePunishOptions(s *discordgo.Session, i *discordgo.InteractionCreate) ParsedOptions {
	options := i.ApplicationCommandData().Options
	optionMap := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(options))
	for _, opt := range options {
		optionMap[opt.Name] = opt
	}

	var parsed ParsedOptions
	if userOpt, ok := optionMap["user"]; ok {
		parsed.TargetUser = userOpt.UserValue(s)
	}
	if ipOpt, ok := optionMap["ip"]; ok {
		parsed.IP = ipOpt.StringValue()
	}
	if avoidOpt, ok := optionMap["avoid"]; ok {
		parsed.Avoid = avoidOpt.BoolValue()
	}
	return parsed
}
