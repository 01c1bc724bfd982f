package model

// PunishmentRecord represents a single issued ban in the database.
// The database table is named 'punishments'. Records are append-only:
// once written they are never updated or deleted by the bot.
type PunishmentRecord struct {
	PunishmentID     int64   `db:"punishment_id"` // Primary Key, Auto-increment
	UserID           string  `db:"user_id"`
	UserUsername     string  `db:"user_username"`
	IP               string  `db:"ip"` // may be empty when the moderator has no IP
	Reason           string  `db:"reason"`
	BaseAmount       float64 `db:"base_amount"`
	Unit             string  `db:"unit"` // empty on legacy rows; see ResolveUnit
	Points           float64 `db:"points"`
	Multiplier       float64 `db:"multiplier"`
	FinalDuration    int64   `db:"final_duration"` // floor(base_amount * multiplier), in display units
	Stage            int     `db:"stage"`          // escalation stage used for this punishment
	TotalPointsAtBan float64 `db:"total_points_at_ban"`
	AdminID          string  `db:"admin_id"`
	CreatedAt        int64   `db:"created_at"`
}

// InfractionRecord is a scoring-only event feeding the decay computation.
// One is written per reason of a fresh punishment; reused punishments
// write none so they never inflate a user's future multiplier.
type InfractionRecord struct {
	InfractionID int64   `db:"infraction_id"` // Primary Key, Auto-increment
	UserID       string  `db:"user_id"`
	Points       float64 `db:"points"`
	Context      string  `db:"context"` // reason text
	Source       string  `db:"source"`  // e.g. "automated"
	Timestamp    int64   `db:"timestamp"`
}
