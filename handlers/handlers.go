package handlers

import (
	"punish-bot/bot"
	"punish-bot/handlers/punish"
	"punish-bot/utils"

	"github.com/bwmarrin/discordgo"
)

func Register(b *bot.Bot) {
	b.CommandHandlers = commandHandlers(b)
	b.Session.AddHandler(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		handleInteractionCreate(s, i, b)
	})
}

func commandHandlers(b *bot.Bot) map[string]func(s *discordgo.Session, i *discordgo.InteractionCreate) {
	return map[string]func(s *discordgo.Session, i *discordgo.InteractionCreate){
		"punish": func(s *discordgo.Session, i *discordgo.InteractionCreate) {
			if !inModChannel(s, i, b) {
				return
			}
			punish.HandlePunishCommand(s, i, b)
		},
		"punishments": func(s *discordgo.Session, i *discordgo.InteractionCreate) {
			if !inModChannel(s, i, b) {
				return
			}
			punish.HandleHistoryCommand(s, i, b)
		},
		"status": func(s *discordgo.Session, i *discordgo.InteractionCreate) {
			if !isDeveloper(i, b) {
				utils.SendErrorResponse(s, i, "You do not have permission to use this command.")
				return
			}
			SystemInfoHandler(s, i, b)
		},
		"reload": func(s *discordgo.Session, i *discordgo.InteractionCreate) {
			if !isDeveloper(i, b) {
				utils.SendErrorResponse(s, i, "You do not have permission to use this command.")
				return
			}
			HandleReloadCommand(s, i, b)
		},
	}
}

// inModChannel enforces the channel gate: punishment commands may only be
// invoked from the configured moderator channel.
func inModChannel(s *discordgo.Session, i *discordgo.InteractionCreate, b *bot.Bot) bool {
	if i.ChannelID == b.GetConfig().ModChannelID {
		return true
	}
	utils.SendErrorResponse(s, i, "Punishment commands can only be used in the moderator channel.")
	return false
}

func isDeveloper(i *discordgo.InteractionCreate, b *bot.Bot) bool {
	if i.Member == nil || i.Member.User == nil {
		return false
	}
	for _, id := range b.GetConfig().DeveloperUserIDs {
		if id == i.Member.User.ID {
			return true
		}
	}
	return false
}
