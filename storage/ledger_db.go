package storage

import (
	"database/sql"
	"errors"
	"fmt"

	"modbot/model"

	"github.com/jmoiron/sqlx"
)

// AppendAction inserts one moderator action into the ledger. Pure insert:
// repeated actions of the same type (multiple warns) are legitimate.
func AppendAction(db *sqlx.DB, rec model.ModeratorActionRecord) error {
	_, err := db.NamedExec(
		`INSERT INTO moderator_action (guild_id, target_id, moderator_id, action_type, recorded_at, duration, reason)
		 VALUES (:guild_id, :target_id, :moderator_id, :action_type, :recorded_at, :duration, :reason)`,
		rec,
	)
	if err != nil {
		return fmt.Errorf("failed to insert moderator action: %w", err)
	}
	return nil
}

// AppendActions inserts several actions in one transaction.
func AppendActions(db *sqlx.DB, recs []model.ModeratorActionRecord) error {
	if len(recs) == 0 {
		return nil
	}

	tx, err := db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin ledger transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.NamedExec(
		`INSERT INTO moderator_action (guild_id, target_id, moderator_id, action_type, recorded_at, duration, reason)
		 VALUES (:guild_id, :target_id, :moderator_id, :action_type, :recorded_at, :duration, :reason)`,
		recs,
	)
	if err != nil {
		return fmt.Errorf("failed to insert moderator actions: %w", err)
	}

	return tx.Commit()
}

// IsSilenced reports whether the member's most recent silence is strictly
// newer than their most recent unsilence. A missing unsilence counts as
// epoch zero. The state is derived from the ledger on every call; expiry is
// materialized by the reconciler appending an unsilence row.
func IsSilenced(db *sqlx.DB, guildID, targetID string) (bool, error) {
	latestSilence, err := latestActionAt(db, guildID, targetID, model.ActionSilence)
	if err != nil {
		return false, err
	}
	if latestSilence == nil {
		return false, nil
	}

	latestUnsilence, err := latestActionAt(db, guildID, targetID, model.ActionUnsilence)
	if err != nil {
		return false, err
	}

	var unsilencedAt int64 // epoch zero when never unsilenced
	if latestUnsilence != nil {
		unsilencedAt = *latestUnsilence
	}

	return *latestSilence > unsilencedAt, nil
}

func latestActionAt(db *sqlx.DB, guildID, targetID string, action model.ActionType) (*int64, error) {
	var at int64
	err := db.Get(&at,
		`SELECT recorded_at FROM moderator_action
		 WHERE guild_id = ? AND target_id = ? AND action_type = ?
		 ORDER BY recorded_at DESC
		 LIMIT 1`,
		guildID, targetID, action,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest %s for %s in guild %s: %w", action, targetID, guildID, err)
	}
	return &at, nil
}

// ListExpiredSilences returns every (guild, target) whose silence is still
// active per the ledger but whose duration elapsed before now. Timestamps
// and durations are whole seconds.
func ListExpiredSilences(db *sqlx.DB, now int64) ([]model.ExpiredSilence, error) {
	var expired []model.ExpiredSilence
	err := db.Select(&expired,
		`SELECT DISTINCT s.guild_id, s.target_id, s.recorded_at, s.duration
		 FROM moderator_action s
		 WHERE s.action_type = 'silence'
		   AND s.duration IS NOT NULL
		   AND s.recorded_at = (
		       SELECT MAX(recorded_at) FROM moderator_action
		       WHERE guild_id = s.guild_id AND target_id = s.target_id AND action_type = 'silence'
		   )
		   AND s.recorded_at > COALESCE((
		       SELECT MAX(recorded_at) FROM moderator_action
		       WHERE guild_id = s.guild_id AND target_id = s.target_id AND action_type = 'unsilence'
		   ), 0)
		   AND s.recorded_at + s.duration < ?`,
		now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list expired silences: %w", err)
	}
	return expired, nil
}

// ActiveSilences returns every (guild, target) currently silenced per the
// ledger. Used by the role-convergence pass.
func ActiveSilences(db *sqlx.DB) ([]model.ActiveSilence, error) {
	var active []model.ActiveSilence
	err := db.Select(&active,
		`SELECT DISTINCT s.guild_id, s.target_id
		 FROM moderator_action s
		 WHERE s.action_type = 'silence'
		   AND s.recorded_at = (
		       SELECT MAX(recorded_at) FROM moderator_action
		       WHERE guild_id = s.guild_id AND target_id = s.target_id AND action_type = 'silence'
		   )
		   AND s.recorded_at > COALESCE((
		       SELECT MAX(recorded_at) FROM moderator_action
		       WHERE guild_id = s.guild_id AND target_id = s.target_id AND action_type = 'unsilence'
		   ), 0)`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list active silences: %w", err)
	}
	return active, nil
}

// ActionsByTarget returns a member's ledger entries, newest first.
func ActionsByTarget(db *sqlx.DB, guildID, targetID string) ([]model.ModeratorActionRecord, error) {
	var recs []model.ModeratorActionRecord
	err := db.Select(&recs,
		`SELECT * FROM moderator_action
		 WHERE guild_id = ? AND target_id = ?
		 ORDER BY recorded_at DESC`,
		guildID, targetID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get actions for %s in guild %s: %w", targetID, guildID, err)
	}
	return recs, nil
}
