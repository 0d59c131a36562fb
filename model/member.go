package model

// MemberIdentitySnapshot records who a member was at a point in time.
// Tag and Nick are nil on a leave snapshot.
type MemberIdentitySnapshot struct {
	GuildID   string  `db:"guild_id"`
	MemberID  string  `db:"member_id"`
	VersionAt int64   `db:"version_at"` // unix seconds
	Tag       *string `db:"tag"`
	Nick      *string `db:"nick"`
}
