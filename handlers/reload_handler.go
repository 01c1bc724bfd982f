package handlers

import (
	"log"

	"punish-bot/bot"
	"punish-bot/utils"

	"github.com/bwmarrin/discordgo"
)

// HandleReloadCommand re-reads the policy file and reseeds the catalog
// without restarting the bot.
func HandleReloadCommand(s *discordgo.Session, i *discordgo.InteractionCreate, b *bot.Bot) {
	if err := b.ReloadConfig(); err != nil {
		utils.SendErrorResponse(s, i, "Reload failed, the previous configuration is still active.")
		return
	}

	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: "✅ Configuration reloaded.",
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		log.Printf("Failed to send reload response: %v", err)
	}
}
