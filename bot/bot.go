package bot

import (
	"log"
	"sync/atomic"

	"punish-bot/commands"
	"punish-bot/config"
	"punish-bot/model"
	"punish-bot/punish"
	"punish-bot/utils/database/punishdb"

	"github.com/bwmarrin/discordgo"
)

type Bot struct {
	Session            *discordgo.Session
	RegisteredCommands []*discordgo.ApplicationCommand
	config             atomic.Value // *model.Config
	CommandHandlers    map[string]func(s *discordgo.Session, i *discordgo.InteractionCreate)
	DB                 *punishdb.DB
	Engine             *punish.Engine
	done               chan struct{}
}

func (b *Bot) GetConfig() *model.Config {
	return b.config.Load().(*model.Config)
}

func (b *Bot) GetDB() *punishdb.DB {
	return b.DB
}

func (b *Bot) GetSession() *discordgo.Session {
	return b.Session
}

func New(cfg *model.Config, db *punishdb.DB) (*Bot, error) {
	dg, err := discordgo.New("Bot " + cfg.BotToken)
	if err != nil {
		return nil, err
	}
	dg.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMembers
	dg.StateEnabled = false

	b := &Bot{
		Session: dg,
		DB:      db,
		Engine:  punish.New(db, cfg.Policy),
		done:    make(chan struct{}),
	}
	b.config.Store(cfg)
	return b, nil
}

func (b *Bot) Close() {
	log.Println("Gracefully shutting down.")
	close(b.done)
	b.Session.Close()
	if err := b.DB.Close(); err != nil {
		log.Printf("Error closing database: %v", err)
	}
}

func (b *Bot) RefreshCommands(guildID string) {
	cmds := commands.GenerateCommands()
	log.Printf("Registering %d commands for guild %s...", len(cmds), guildID)
	registeredCmds, err := b.Session.ApplicationCommandBulkOverwrite(b.GetConfig().AppID, guildID, cmds)
	if err != nil {
		log.Printf("cannot update commands for guild '%s': %v", guildID, err)
		return
	}
	b.RegisteredCommands = append(b.RegisteredCommands, registeredCmds...)
}

// ReloadConfig re-reads the environment and policy file and swaps the new
// policy into the running engine so it takes effect without a restart.
// The engine itself is kept: interaction handlers read b.Engine from their
// own goroutines, and its per-user locks must span a reload.
func (b *Bot) ReloadConfig() error {
	log.Println("Reloading configuration...")
	newCfg, err := config.Load()
	if err != nil {
		log.Printf("Error reloading config: %v", err)
		return err
	}

	if err := b.DB.SeedCatalog(newCfg.CatalogSeed); err != nil {
		log.Printf("Error reseeding catalog during reload: %v", err)
		return err
	}

	b.config.Store(newCfg)
	b.Engine.SetPolicy(newCfg.Policy)
	log.Println("Configuration reloaded successfully.")

	b.RefreshCommands(newCfg.GuildID)
	return nil
}
