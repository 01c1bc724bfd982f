package model

// CatalogEntry is a punishment template. The pair (reason, stage) uniquely
// identifies an entry; the catalog is seed data and read-only to the bot.
type CatalogEntry struct {
	Reason string  `db:"reason" mapstructure:"reason"`
	Stage  int     `db:"stage" mapstructure:"stage"`
	Amount float64 `db:"amount" mapstructure:"amount"`
	Unit   string  `db:"unit" mapstructure:"unit"`
	Points float64 `db:"points" mapstructure:"points"`
}
