package punishdb

import (
	"database/sql"
	"errors"
	"fmt"

	"punish-bot/model"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS catalog (
    reason TEXT NOT NULL,
    stage INTEGER NOT NULL,
    amount REAL NOT NULL,
    unit TEXT NOT NULL,
    points REAL NOT NULL,
    UNIQUE(reason, stage)
);
CREATE TABLE IF NOT EXISTS punishments (
    punishment_id INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id TEXT NOT NULL,
    user_username TEXT NOT NULL,
    ip TEXT NOT NULL DEFAULT '',
    reason TEXT NOT NULL,
    base_amount REAL NOT NULL,
    unit TEXT NOT NULL DEFAULT '',
    points REAL NOT NULL,
    multiplier REAL NOT NULL,
    final_duration INTEGER NOT NULL,
    stage INTEGER NOT NULL,
    total_points_at_ban REAL NOT NULL,
    admin_id TEXT NOT NULL,
    created_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS infractions (
    infraction_id INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id TEXT NOT NULL,
    points REAL NOT NULL,
    context TEXT NOT NULL,
    source TEXT NOT NULL,
    timestamp INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS user_threads (
    user_username TEXT PRIMARY KEY,
    thread_id TEXT NOT NULL
);`

// DB is the storage gateway: catalog reads, append-only punishment and
// infraction writes, and the per-user discussion thread map. It carries no
// scoring rules.
type DB struct {
	conn *sqlx.DB
}

// Open connects to the sqlite database at path and ensures the schema
// exists.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Connect("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to punishment database: %w", err)
	}
	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create punishment tables: %w", err)
	}
	return &DB{conn: conn}, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

// SeedCatalog inserts catalog entries that are not already present.
// Existing (reason, stage) rows win, so operator edits survive restarts.
func (d *DB) SeedCatalog(entries []model.CatalogEntry) error {
	query := `INSERT OR IGNORE INTO catalog (reason, stage, amount, unit, points) VALUES (:reason, :stage, :amount, :unit, :points)`
	for _, entry := range entries {
		if _, err := d.conn.NamedExec(query, entry); err != nil {
			return fmt.Errorf("failed to seed catalog entry (%s, %d): %w", entry.Reason, entry.Stage, err)
		}
	}
	return nil
}

// GetCatalogEntry fetches the template for an exact (reason, stage) pair.
// A missing template is an expected outcome and returns nil, nil.
func (d *DB) GetCatalogEntry(reason string, stage int) (*model.CatalogEntry, error) {
	var entry model.CatalogEntry
	query := "SELECT * FROM catalog WHERE reason = ? AND stage = ? LIMIT 1"
	err := d.conn.Get(&entry, query, reason, stage)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get catalog entry for (%s, %d): %w", reason, stage, err)
	}
	return &entry, nil
}

// ListCatalogEntries returns the whole catalog ordered by stage ascending,
// which lets menu builders keep the first occurrence per reason.
func (d *DB) ListCatalogEntries() ([]model.CatalogEntry, error) {
	var entries []model.CatalogEntry
	err := d.conn.Select(&entries, "SELECT * FROM catalog ORDER BY stage ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to list catalog entries: %w", err)
	}
	return entries, nil
}

// GetCurrentStage returns the next escalation stage to apply for
// (user, reason): the highest recorded stage plus one, or 1 for a first
// offense. Callers must not re-increment.
func (d *DB) GetCurrentStage(userID, reason string) (int, error) {
	var stage sql.NullInt64
	query := "SELECT MAX(stage) FROM punishments WHERE user_id = ? AND reason = ?"
	err := d.conn.Get(&stage, query, userID, reason)
	if err != nil {
		return 0, fmt.Errorf("failed to get current stage for user %s reason %q: %w", userID, reason, err)
	}
	if !stage.Valid {
		return 1, nil
	}
	return int(stage.Int64) + 1, nil
}

// GetLatestPunishment returns the most recent punishment for
// (user, reason), or nil, nil when the user has none.
func (d *DB) GetLatestPunishment(userID, reason string) (*model.PunishmentRecord, error) {
	var record model.PunishmentRecord
	query := "SELECT * FROM punishments WHERE user_id = ? AND reason = ? ORDER BY created_at DESC, punishment_id DESC LIMIT 1"
	err := d.conn.Get(&record, query, userID, reason)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest punishment for user %s reason %q: %w", userID, reason, err)
	}
	return &record, nil
}

// ListPunishments returns a user's punishment history, newest first.
func (d *DB) ListPunishments(userID string, limit int) ([]model.PunishmentRecord, error) {
	var records []model.PunishmentRecord
	query := "SELECT * FROM punishments WHERE user_id = ? ORDER BY created_at DESC, punishment_id DESC LIMIT ?"
	err := d.conn.Select(&records, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list punishments for user %s: %w", userID, err)
	}
	return records, nil
}

// ListInfractions returns every infraction for a user, unordered; the
// decay computation is per-entry and order-independent.
func (d *DB) ListInfractions(userID string) ([]model.InfractionRecord, error) {
	var records []model.InfractionRecord
	err := d.conn.Select(&records, "SELECT * FROM infractions WHERE user_id = ?", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list infractions for user %s: %w", userID, err)
	}
	return records, nil
}

// InsertPunishments writes a whole invocation's punishment and infraction
// records in one transaction, so a multi-reason submission never lands
// partially.
func (d *DB) InsertPunishments(punishments []model.PunishmentRecord, infractions []model.InfractionRecord) error {
	tx, err := d.conn.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin punishment transaction: %w", err)
	}
	defer tx.Rollback()

	punishmentQuery := `INSERT INTO punishments (user_id, user_username, ip, reason, base_amount, unit, points, multiplier, final_duration, stage, total_points_at_ban, admin_id, created_at)
		VALUES (:user_id, :user_username, :ip, :reason, :base_amount, :unit, :points, :multiplier, :final_duration, :stage, :total_points_at_ban, :admin_id, :created_at)`
	for _, record := range punishments {
		if _, err := tx.NamedExec(punishmentQuery, record); err != nil {
			return fmt.Errorf("failed to insert punishment record for reason %q: %w", record.Reason, err)
		}
	}

	infractionQuery := `INSERT INTO infractions (user_id, points, context, source, timestamp)
		VALUES (:user_id, :points, :context, :source, :timestamp)`
	for _, record := range infractions {
		if _, err := tx.NamedExec(infractionQuery, record); err != nil {
			return fmt.Errorf("failed to insert infraction record for context %q: %w", record.Context, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit punishment transaction: %w", err)
	}
	return nil
}

// GetUserThread returns the saved discussion thread ID for a username, or
// "" when the user has no thread yet.
func (d *DB) GetUserThread(username string) (string, error) {
	var threadID string
	err := d.conn.Get(&threadID, "SELECT thread_id FROM user_threads WHERE user_username = ?", username)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get thread for user %s: %w", username, err)
	}
	return threadID, nil
}

// SaveUserThread records the discussion thread created for a username.
func (d *DB) SaveUserThread(username, threadID string) error {
	query := `INSERT INTO user_threads (user_username, thread_id) VALUES (?, ?)
		ON CONFLICT(user_username) DO UPDATE SET thread_id = excluded.thread_id`
	if _, err := d.conn.Exec(query, username, threadID); err != nil {
		return fmt.Errorf("failed to save thread for user %s: %w", username, err)
	}
	return nil
}
