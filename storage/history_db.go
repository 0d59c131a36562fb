package storage

import (
	"database/sql"
	"errors"
	"fmt"

	"modbot/model"

	"github.com/jmoiron/sqlx"
)

// RecordMessageCreate inserts the message's metadata and its version 0
// content in a single transaction. Both inserts are idempotent, so duplicate
// create deliveries are harmless.
func RecordMessageCreate(db *sqlx.DB, rec model.MessageRecord, createdAt int64, content string) error {
	tx, err := db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin create transaction: %w", err)
	}
	defer tx.Rollback()

	if err := insertMetadata(tx, rec); err != nil {
		return err
	}

	// Version 0 only; a redelivered create must not duplicate it.
	_, err = tx.Exec(
		`INSERT INTO message_history (message_id, version_at, content)
		 SELECT ?, ?, ?
		 WHERE NOT EXISTS (SELECT 1 FROM message_history WHERE message_id = ?)`,
		rec.MessageID, createdAt, content, rec.MessageID,
	)
	if err != nil {
		return fmt.Errorf("failed to insert message version: %w", err)
	}

	return tx.Commit()
}

// RecordMessageEdit appends a new version for the message unless its content
// matches the most recent stored version (duplicate edit notifications must
// not create versions). The metadata insert covers messages whose create
// event was never observed. Returns true when a version was appended.
//
// The latest-version read and the append happen in one transaction so two
// near-simultaneous edits cannot both pass the comparison.
func RecordMessageEdit(db *sqlx.DB, rec model.MessageRecord, editedAt int64, content string) (bool, error) {
	tx, err := db.Beginx()
	if err != nil {
		return false, fmt.Errorf("failed to begin edit transaction: %w", err)
	}
	defer tx.Rollback()

	var latest string
	err = tx.Get(&latest,
		`SELECT content FROM message_history WHERE message_id = ? ORDER BY version_at DESC LIMIT 1`,
		rec.MessageID,
	)
	switch {
	case err == nil:
		if latest == content {
			return false, tx.Commit()
		}
	case errors.Is(err, sql.ErrNoRows):
		// First observed version of this message.
	default:
		return false, fmt.Errorf("failed to read latest version for message %s: %w", rec.MessageID, err)
	}

	if err := insertMetadata(tx, rec); err != nil {
		return false, err
	}

	_, err = tx.Exec(
		`INSERT INTO message_history (message_id, version_at, content) VALUES (?, ?, ?)`,
		rec.MessageID, editedAt, content,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert message version: %w", err)
	}

	return true, tx.Commit()
}

func insertMetadata(tx *sqlx.Tx, rec model.MessageRecord) error {
	_, err := tx.NamedExec(
		`INSERT INTO message_metadata (message_id, channel_id, guild_id, author_id)
		 VALUES (:message_id, :channel_id, :guild_id, :author_id)
		 ON CONFLICT (message_id) DO NOTHING`,
		rec,
	)
	if err != nil {
		return fmt.Errorf("failed to insert message metadata: %w", err)
	}
	return nil
}

// GetVersion returns version n (zero-indexed, ascending by timestamp) of a
// message together with its metadata, or ErrNotFound.
func GetVersion(db *sqlx.DB, messageID string, n int) (*model.StoredVersion, error) {
	var v model.StoredVersion
	err := db.Get(&v,
		`SELECT h.message_id, m.channel_id, m.guild_id, m.author_id, h.version_at, h.content
		 FROM message_history h
		 JOIN message_metadata m ON m.message_id = h.message_id
		 WHERE h.message_id = ?
		 ORDER BY h.version_at
		 LIMIT 1 OFFSET ?`,
		messageID, n,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get version %d of message %s: %w", n, messageID, err)
	}
	return &v, nil
}

// LatestVersion returns the newest stored version of a message, or
// ErrNotFound when the message was never captured.
func LatestVersion(db *sqlx.DB, messageID string) (*model.StoredVersion, error) {
	var v model.StoredVersion
	err := db.Get(&v,
		`SELECT h.message_id, m.channel_id, m.guild_id, m.author_id, h.version_at, h.content
		 FROM message_history h
		 JOIN message_metadata m ON m.message_id = h.message_id
		 WHERE h.message_id = ?
		 ORDER BY h.version_at DESC
		 LIMIT 1`,
		messageID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest version of message %s: %w", messageID, err)
	}
	return &v, nil
}

// VersionCount returns how many versions are stored for a message.
func VersionCount(db *sqlx.DB, messageID string) (int, error) {
	var count int
	err := db.Get(&count, `SELECT COUNT(*) FROM message_history WHERE message_id = ?`, messageID)
	if err != nil {
		return 0, fmt.Errorf("failed to count versions of message %s: %w", messageID, err)
	}
	return count, nil
}
