package model

// MessageRecord is the immutable identity row for an observed message.
// It is created on the first observed version and never updated.
type MessageRecord struct {
	MessageID string `db:"message_id"`
	ChannelID string `db:"channel_id"`
	GuildID   string `db:"guild_id"`
	AuthorID  string `db:"author_id"`
}

// MessageVersion is one immutable content snapshot of a message.
// Version N is the Nth row for the message in ascending VersionAt order.
type MessageVersion struct {
	MessageID string `db:"message_id"`
	VersionAt int64  `db:"version_at"` // unix seconds
	Content   string `db:"content"`
}

// StoredVersion pairs a version's content with the message's metadata,
// as returned by history lookups.
type StoredVersion struct {
	MessageID string `db:"message_id"`
	ChannelID string `db:"channel_id"`
	GuildID   string `db:"guild_id"`
	AuthorID  string `db:"author_id"`
	VersionAt int64  `db:"version_at"`
	Content   string `db:"content"`
}
