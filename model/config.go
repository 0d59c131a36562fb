package model

import "time"

// RoleType selects one of the per-guild configurable roles.
type RoleType string

const (
	RoleJoin      RoleType = "join"
	RoleNewMember RoleType = "new-member"
	RoleSilence   RoleType = "silence"
)

// LogType selects one of the per-guild log channels.
type LogType string

const (
	LogMember    LogType = "member"
	LogMessage   LogType = "message"
	LogModerator LogType = "moderator"
)

// Config holds the process-level configuration.
type Config struct {
	BotToken string
	AppID    string

	DatabasePath      string
	ReconcileInterval time.Duration
	AuditWindow       time.Duration
	AuditFetchTimeout time.Duration
	NewMemberGrace    time.Duration
}

// GuildConfig is one row of guild_config. A nil column means the feature
// is disabled for that guild.
type GuildConfig struct {
	GuildID               string  `db:"guild_id"`
	JoinRoleID            *string `db:"join_role_id"`
	NewMemberRoleID       *string `db:"new_member_role_id"`
	SilenceRoleID         *string `db:"silence_role_id"`
	MemberLogChannelID    *string `db:"member_log_channel_id"`
	MessageLogChannelID   *string `db:"message_log_channel_id"`
	ModeratorLogChannelID *string `db:"moderator_log_channel_id"`
}

// RoleID returns the configured role id for the given type, or "" when unset.
func (c GuildConfig) RoleID(t RoleType) string {
	var v *string
	switch t {
	case RoleJoin:
		v = c.JoinRoleID
	case RoleNewMember:
		v = c.NewMemberRoleID
	case RoleSilence:
		v = c.SilenceRoleID
	}
	if v == nil {
		return ""
	}
	return *v
}

// LogChannelID returns the configured log channel id for the given type,
// or "" when unset.
func (c GuildConfig) LogChannelID(t LogType) string {
	var v *string
	switch t {
	case LogMember:
		v = c.MemberLogChannelID
	case LogMessage:
		v = c.MessageLogChannelID
	case LogModerator:
		v = c.ModeratorLogChannelID
	}
	if v == nil {
		return ""
	}
	return *v
}
