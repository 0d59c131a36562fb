package storage

import (
	"database/sql"
	"errors"
	"fmt"

	"modbot/model"

	"github.com/jmoiron/sqlx"
)

// AppendMemberSnapshot records a member's identity at a point in time.
func AppendMemberSnapshot(db *sqlx.DB, snap model.MemberIdentitySnapshot) error {
	_, err := db.NamedExec(
		`INSERT INTO member_history (guild_id, member_id, version_at, tag, nick)
		 VALUES (:guild_id, :member_id, :version_at, :tag, :nick)`,
		snap,
	)
	if err != nil {
		return fmt.Errorf("failed to insert member snapshot: %w", err)
	}
	return nil
}

// AppendMemberSnapshots appends several snapshots in one transaction. Used by
// the user-update fan-out, which writes one row per shared guild.
func AppendMemberSnapshots(db *sqlx.DB, snaps []model.MemberIdentitySnapshot) error {
	if len(snaps) == 0 {
		return nil
	}

	tx, err := db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin snapshot transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.NamedExec(
		`INSERT INTO member_history (guild_id, member_id, version_at, tag, nick)
		 VALUES (:guild_id, :member_id, :version_at, :tag, :nick)`,
		snaps,
	)
	if err != nil {
		return fmt.Errorf("failed to insert member snapshots: %w", err)
	}

	return tx.Commit()
}

// MemberIdentityAt returns the identity a member had at time t: the newest
// snapshot with version_at <= t, or ErrNotFound.
func MemberIdentityAt(db *sqlx.DB, guildID, memberID string, t int64) (*model.MemberIdentitySnapshot, error) {
	var snap model.MemberIdentitySnapshot
	err := db.Get(&snap,
		`SELECT guild_id, member_id, version_at, tag, nick FROM member_history
		 WHERE guild_id = ? AND member_id = ? AND version_at <= ?
		 ORDER BY version_at DESC
		 LIMIT 1`,
		guildID, memberID, t,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get identity of member %s in guild %s: %w", memberID, guildID, err)
	}
	return &snap, nil
}

// LatestMemberIdentity returns the most recent snapshot for a member, or
// ErrNotFound.
func LatestMemberIdentity(db *sqlx.DB, guildID, memberID string) (*model.MemberIdentitySnapshot, error) {
	var snap model.MemberIdentitySnapshot
	err := db.Get(&snap,
		`SELECT guild_id, member_id, version_at, tag, nick FROM member_history
		 WHERE guild_id = ? AND member_id = ?
		 ORDER BY version_at DESC
		 LIMIT 1`,
		guildID, memberID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest identity of member %s in guild %s: %w", memberID, guildID, err)
	}
	return &snap, nil
}
