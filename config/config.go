package config

import (
	"fmt"
	"log"
	"os"
	"strings"

	"punish-bot/model"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// punishFile mirrors the layout of data/punish_config.yaml.
type punishFile struct {
	Policy  model.Policy         `mapstructure:"policy"`
	Catalog []model.CatalogEntry `mapstructure:"catalog"`
}

// Load loads the configuration from environment variables and the policy
// file. Secrets and channel IDs come from the environment; scoring knobs
// and the catalog seed come from data/punish_config.yaml.
func Load() (*model.Config, error) {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("Info: .env file not found, relying on environment variables")
	}

	token := os.Getenv("BOT_TOKEN")
	if token == "" {
		log.Fatal("Error: BOT_TOKEN environment variable not set")
	}

	appID := os.Getenv("APP_ID")
	if appID == "" {
		log.Fatal("Error: APP_ID environment variable not set")
	}

	guildID := os.Getenv("GUILD_ID")
	if guildID == "" {
		log.Fatal("Error: GUILD_ID environment variable not set")
	}

	modChannelID := os.Getenv("MOD_CHANNEL_ID")
	if modChannelID == "" {
		log.Fatal("Error: MOD_CHANNEL_ID environment variable not set")
	}

	threadChannelID := os.Getenv("THREAD_CHANNEL_ID")
	if threadChannelID == "" {
		log.Println("Warning: THREAD_CHANNEL_ID not set, discussion-thread posts will be disabled")
	}

	adminBotChannelID := os.Getenv("ADMIN_BOT_CHANNEL_ID")
	if adminBotChannelID == "" {
		log.Println("Warning: ADMIN_BOT_CHANNEL_ID not set, enforcement forwarding will be disabled")
	}

	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = "data/punishments.db"
	}

	cfg := &model.Config{
		BotToken:          token,
		AppID:             appID,
		GuildID:           guildID,
		DBPath:            dbPath,
		ModChannelID:      modChannelID,
		ThreadChannelID:   threadChannelID,
		AdminBotChannelID: adminBotChannelID,
		DeveloperUserIDs:  splitIDs(os.Getenv("DEVELOPER_USER_IDS")),
	}

	file, err := loadPunishFile("data/punish_config.yaml")
	if err != nil {
		return nil, err
	}
	cfg.Policy = file.Policy
	cfg.CatalogSeed = file.Catalog

	return cfg, nil
}

func loadPunishFile(path string) (*punishFile, error) {
	v := viper.New()
	v.SetConfigFile(path)

	defaults := model.DefaultPolicy()
	v.SetDefault("policy.decay_period_days", defaults.DecayPeriodDays)
	v.SetDefault("policy.decay_factor", defaults.DecayFactor)
	v.SetDefault("policy.single_reason_flat_multiplier", defaults.SingleReasonFlatMultiplier)
	v.SetDefault("policy.serialize_per_user", defaults.SerializePerUser)
	v.SetDefault("policy.display_timezone", defaults.DisplayTimezone)
	v.SetDefault("policy.infraction_source", defaults.InfractionSource)

	if err := v.ReadInConfig(); err != nil {
		if os.IsNotExist(err) {
			log.Printf("Warning: Policy file not found at %s, using defaults with an empty catalog.", path)
		} else {
			return nil, fmt.Errorf("failed to read policy file %s: %w", path, err)
		}
	}

	var file punishFile
	if err := v.Unmarshal(&file); err != nil {
		return nil, fmt.Errorf("failed to parse policy file %s: %w", path, err)
	}
	return &file, nil
}

func splitIDs(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	ids := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			ids = append(ids, trimmed)
		}
	}
	return ids
}
