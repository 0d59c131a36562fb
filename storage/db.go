package storage

import (
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned when a requested record or version does not exist.
var ErrNotFound = errors.New("storage: not found")

// Init opens the bot database and ensures all tables exist.
func Init(dbPath string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS message_metadata (
	    message_id TEXT PRIMARY KEY,
	    channel_id TEXT NOT NULL,
	    guild_id   TEXT NOT NULL,
	    author_id  TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS message_history (
	    message_id TEXT NOT NULL REFERENCES message_metadata (message_id),
	    version_at INTEGER NOT NULL,
	    content    TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_message_history_id_at
	    ON message_history (message_id, version_at);
	CREATE TABLE IF NOT EXISTS member_history (
	    guild_id   TEXT NOT NULL,
	    member_id  TEXT NOT NULL,
	    version_at INTEGER NOT NULL,
	    tag        TEXT,
	    nick       TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_member_history_key
	    ON member_history (guild_id, member_id, version_at);
	CREATE TABLE IF NOT EXISTS moderator_action (
	    id           INTEGER PRIMARY KEY AUTOINCREMENT,
	    guild_id     TEXT NOT NULL,
	    target_id    TEXT NOT NULL,
	    moderator_id TEXT,
	    action_type  TEXT NOT NULL,
	    recorded_at  INTEGER NOT NULL,
	    duration     INTEGER,
	    reason       TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_moderator_action_key
	    ON moderator_action (guild_id, target_id, action_type, recorded_at);
	CREATE TABLE IF NOT EXISTS guild_config (
	    guild_id                 TEXT PRIMARY KEY,
	    join_role_id             TEXT,
	    new_member_role_id       TEXT,
	    silence_role_id          TEXT,
	    member_log_channel_id    TEXT,
	    message_log_channel_id   TEXT,
	    moderator_log_channel_id TEXT
	);`

	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return db, nil
}
