package punish

import (
	"fmt"
	"log"
	"strings"

	"punish-bot/bot"
	engine "punish-bot/punish"

	"github.com/bwmarrin/discordgo"
)

// ensureUserThread returns the discussion thread for a username, creating
// it in the configured discussion channel on first punishment.
func ensureUserThread(s *discordgo.Session, b *bot.Bot, username string) (string, error) {
	threadID, err := b.GetDB().GetUserThread(username)
	if err != nil {
		return "", err
	}
	if threadID != "" {
		return threadID, nil
	}

	cfg := b.GetConfig()
	if cfg.ThreadChannelID == "" {
		return "", fmt.Errorf("no discussion channel configured")
	}
	thread, err := s.ThreadStartComplex(cfg.ThreadChannelID, &discordgo.ThreadStart{
		Name:                username,
		AutoArchiveDuration: 10080,
		Type:                discordgo.ChannelTypeGuildPublicThread,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create thread for %s: %w", username, err)
	}
	if err := b.GetDB().SaveUserThread(username, thread.ID); err != nil {
		// The thread exists; losing the mapping only means a duplicate
		// thread on the next punishment. Log and carry on.
		log.Printf("Failed to save thread mapping for %s: %v", username, err)
	}
	return thread.ID, nil
}

// postThreadSummary appends the punishment summary to the user's thread
// and returns the thread ID for linking in the moderator ack.
func postThreadSummary(s *discordgo.Session, b *bot.Bot, p *pendingPunishment, result *engine.Result, moderator string) (string, error) {
	threadID, err := ensureUserThread(s, b, p.Username)
	if err != nil {
		return "", err
	}
	embed := buildThreadEmbed(b, p, result, moderator)
	if _, err := s.ChannelMessageSendEmbed(threadID, embed); err != nil {
		return threadID, fmt.Errorf("failed to post summary to thread %s: %w", threadID, err)
	}
	return threadID, nil
}

// forwardEnforcement sends the machine-readable ban command to the
// administrative bot's channel, e.g.
//
//	admin banip 1.2.3.4 "someuser" "spam, harassment" 14d
func forwardEnforcement(s *discordgo.Session, b *bot.Bot, p *pendingPunishment, result *engine.Result) error {
	cfg := b.GetConfig()
	if cfg.AdminBotChannelID == "" {
		log.Println("ADMIN_BOT_CHANNEL_ID not set, skipping enforcement forward")
		return nil
	}
	if p.IP == "" {
		log.Printf("No IP supplied for user %s, skipping enforcement forward", p.Username)
		return nil
	}
	command := fmt.Sprintf("admin banip %s %q %q %s",
		p.IP, p.Username, strings.Join(result.Reasons, ", "), result.CompactToken)
	if _, err := s.ChannelMessageSend(cfg.AdminBotChannelID, command); err != nil {
		return fmt.Errorf("failed to forward enforcement command: %w", err)
	}
	return nil
}
