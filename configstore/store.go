// Package configstore serves per-guild role and channel configuration from
// the guild_config table through a bounded LRU cache. Absence of a value
// means the corresponding feature is disabled for that guild.
package configstore

import (
	"database/sql"
	"errors"
	"fmt"

	"modbot/model"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/jmoiron/sqlx"
)

const cacheSize = 256

// Store is the guild configuration collaborator.
type Store struct {
	db    *sqlx.DB
	cache *lru.Cache[string, model.GuildConfig]
}

// New creates a Store backed by the given database handle.
func New(db *sqlx.DB) (*Store, error) {
	cache, err := lru.New[string, model.GuildConfig](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create guild config cache: %w", err)
	}
	return &Store{db: db, cache: cache}, nil
}

// Ensure returns the guild's configuration, inserting a blank row the first
// time a guild is seen.
func (s *Store) Ensure(guildID string) (model.GuildConfig, error) {
	if cfg, ok := s.cache.Get(guildID); ok {
		return cfg, nil
	}

	var cfg model.GuildConfig
	err := s.db.Get(&cfg, `SELECT * FROM guild_config WHERE guild_id = ?`, guildID)
	if errors.Is(err, sql.ErrNoRows) {
		_, err = s.db.Exec(
			`INSERT INTO guild_config (guild_id) VALUES (?) ON CONFLICT (guild_id) DO NOTHING`,
			guildID,
		)
		if err != nil {
			return model.GuildConfig{}, fmt.Errorf("failed to insert guild config for %s: %w", guildID, err)
		}
		cfg = model.GuildConfig{GuildID: guildID}
	} else if err != nil {
		return model.GuildConfig{}, fmt.Errorf("failed to get guild config for %s: %w", guildID, err)
	}

	s.cache.Add(guildID, cfg)
	return cfg, nil
}

// RoleID returns the configured role id for the guild, or "" when unset.
func (s *Store) RoleID(guildID string, t model.RoleType) (string, error) {
	cfg, err := s.Ensure(guildID)
	if err != nil {
		return "", err
	}
	return cfg.RoleID(t), nil
}

// LogChannelID returns the configured log channel id for the guild, or ""
// when unset.
func (s *Store) LogChannelID(guildID string, t model.LogType) (string, error) {
	cfg, err := s.Ensure(guildID)
	if err != nil {
		return "", err
	}
	return cfg.LogChannelID(t), nil
}

// SetRoleID updates one role column. A nil value disables the feature.
func (s *Store) SetRoleID(guildID string, t model.RoleType, roleID *string) error {
	column, ok := roleColumns[t]
	if !ok {
		return fmt.Errorf("unknown role type %q", t)
	}
	return s.setColumn(guildID, column, roleID)
}

// SetLogChannelID updates one log channel column. A nil value disables the
// feature.
func (s *Store) SetLogChannelID(guildID string, t model.LogType, channelID *string) error {
	column, ok := logColumns[t]
	if !ok {
		return fmt.Errorf("unknown log type %q", t)
	}
	return s.setColumn(guildID, column, channelID)
}

// DeleteData erases everything stored for a guild (data-erasure request).
func (s *Store) DeleteData(guildID string) error {
	_, err := s.db.Exec(`DELETE FROM guild_config WHERE guild_id = ?`, guildID)
	if err != nil {
		return fmt.Errorf("failed to delete guild config for %s: %w", guildID, err)
	}
	s.cache.Remove(guildID)
	return nil
}

var roleColumns = map[model.RoleType]string{
	model.RoleJoin:      "join_role_id",
	model.RoleNewMember: "new_member_role_id",
	model.RoleSilence:   "silence_role_id",
}

var logColumns = map[model.LogType]string{
	model.LogMember:    "member_log_channel_id",
	model.LogMessage:   "message_log_channel_id",
	model.LogModerator: "moderator_log_channel_id",
}

func (s *Store) setColumn(guildID, column string, value *string) error {
	if _, err := s.Ensure(guildID); err != nil {
		return err
	}

	// column comes from the fixed maps above, never from user input.
	query := fmt.Sprintf(`UPDATE guild_config SET %s = ? WHERE guild_id = ?`, column)
	if _, err := s.db.Exec(query, value, guildID); err != nil {
		return fmt.Errorf("failed to update guild config column %s for %s: %w", column, guildID, err)
	}

	s.cache.Remove(guildID)
	return nil
}
