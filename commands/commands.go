package commands

import "github.com/bwmarrin/discordgo"

// GenerateCommands returns the slash commands registered on the guild.
func GenerateCommands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        "punish",
			Description: "Ban a user/IP pair using the points-based punishment system.",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionUser,
					Name:        "user",
					Description: "User to punish.",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "ip",
					Description: "IP address to ban alongside the user.",
					Required:    false,
				},
				{
					Type:        discordgo.ApplicationCommandOptionBoolean,
					Name:        "avoid",
					Description: "Re-apply the user's previous sentence (ban evasion) instead of scoring a new one.",
					Required:    false,
				},
			},
		},
		{
			Name:        "punishments",
			Description: "Show a user's recent punishment history.",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionUser,
					Name:        "user",
					Description: "User to look up.",
					Required:    true,
				},
			},
		},
		{
			Name:        "status",
			Description: "Show bot host status.",
		},
		{
			Name:        "reload",
			Description: "Reload the policy file and punishment catalog.",
		},
	}
}
