package model

// ActionType enumerates the moderator actions tracked in the ledger.
type ActionType string

const (
	ActionBan       ActionType = "ban"
	ActionUnban     ActionType = "unban"
	ActionKick      ActionType = "kick"
	ActionWarn      ActionType = "warn"
	ActionSilence   ActionType = "silence"
	ActionUnsilence ActionType = "unsilence"
)

// ModeratorActionRecord is one row of the append-only moderator_action table.
// ModeratorID is nil while the actor is unknown (audit correlation failed).
type ModeratorActionRecord struct {
	ID          int64      `db:"id"`
	GuildID     string     `db:"guild_id"`
	TargetID    string     `db:"target_id"`
	ModeratorID *string    `db:"moderator_id"`
	ActionType  ActionType `db:"action_type"`
	RecordedAt  int64      `db:"recorded_at"` // unix seconds
	Duration    *int64     `db:"duration"`    // seconds, silences only
	Reason      *string    `db:"reason"`
}

// ExpiredSilence is one result of the ledger's expired-silence scan.
type ExpiredSilence struct {
	GuildID    string `db:"guild_id"`
	TargetID   string `db:"target_id"`
	RecordedAt int64  `db:"recorded_at"`
	Duration   int64  `db:"duration"`
}

// ActiveSilence identifies a member whose latest silence is still in force.
type ActiveSilence struct {
	GuildID  string `db:"guild_id"`
	TargetID string `db:"target_id"`
}
