package model

import "time"

// Policy holds the scoring knobs loaded from data/punish_config.yaml.
type Policy struct {
	DecayPeriodDays            int     `mapstructure:"decay_period_days"`
	DecayFactor                float64 `mapstructure:"decay_factor"`
	SingleReasonFlatMultiplier bool    `mapstructure:"single_reason_flat_multiplier"`
	SerializePerUser           bool    `mapstructure:"serialize_per_user"`
	DisplayTimezone            string  `mapstructure:"display_timezone"`
	InfractionSource           string  `mapstructure:"infraction_source"`
}

// DecayPeriod returns the decay period as a duration.
func (p Policy) DecayPeriod() time.Duration {
	return time.Duration(p.DecayPeriodDays) * 24 * time.Hour
}

// DefaultPolicy matches the production deployment: 60-day periods,
// 5% decay per period, general formula for every reason count, and
// per-user serialization enabled.
func DefaultPolicy() Policy {
	return Policy{
		DecayPeriodDays:            60,
		DecayFactor:                0.95,
		SingleReasonFlatMultiplier: false,
		SerializePerUser:           true,
		DisplayTimezone:            "America/New_York",
		InfractionSource:           "automated",
	}
}

// Config stores the application configuration.
type Config struct {
	BotToken          string
	AppID             string
	GuildID           string
	DBPath            string
	ModChannelID      string // only this channel may invoke punish commands
	ThreadChannelID   string // discussion channel holding per-user threads
	AdminBotChannelID string // enforcement bot listens here
	DeveloperUserIDs  []string
	Policy            Policy
	CatalogSeed       []CatalogEntry
}
