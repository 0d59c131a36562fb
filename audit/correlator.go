// Package audit attributes directly-observed moderation events (kicks, bans,
// unbans) to their actor by scanning the guild audit log, which Discord
// populates with unbounded delay. Correlation is best-effort: no match inside
// the window degrades to an unknown actor, never to a blocked event.
package audit

import (
	"log"
	"regexp"
	"time"

	"github.com/bwmarrin/discordgo"
)

// Client is the slice of the REST client the correlator consumes. The audit
// feed is reverse-chronological and filterable by action type.
type Client interface {
	GuildAuditLog(guildID, userID, beforeID string, actionType, limit int, options ...discordgo.RequestOption) (*discordgo.GuildAuditLog, error)
}

// Attribution is a resolved actor and reason for a moderation event.
type Attribution struct {
	ModeratorID string
	Reason      string
}

// Correlator matches lifecycle events against audit log entries.
type Correlator struct {
	client       Client
	botUserID    string
	fetchTimeout time.Duration
	pollInterval time.Duration
}

// New creates a Correlator. botUserID is the bot's own user id, used to
// detect delegated actions. fetchTimeout bounds each audit feed fetch so a
// stalled request degrades to unknown instead of suspending the caller.
func New(client Client, botUserID string, fetchTimeout time.Duration) *Correlator {
	return &Correlator{
		client:       client,
		botUserID:    botUserID,
		fetchTimeout: fetchTimeout,
		pollInterval: 2 * time.Second,
	}
}

// Commands issued through the bot carry the human invoker inside the audit
// reason, e.g. "[123456789]: spamming invites".
var delegationTag = regexp.MustCompile(`^\[(\d+)\]: ?(.*)$`)

// Correlate looks for an audit entry of the given action type targeting
// targetID, created no earlier than triggerTime-maxAge. Discord emits audit
// entries with non-deterministic delay, so the feed is re-polled until the
// window closes; the first match wins. When the matched moderator is the bot
// itself, the delegation tag in the reason re-attributes the action to the
// embedded user id. Returns false when nothing matched inside the window —
// the caller writes its record with an unknown actor rather than waiting.
func (c *Correlator) Correlate(guildID, targetID string, action discordgo.AuditLogAction, triggerTime time.Time, maxAge time.Duration) (Attribution, bool) {
	deadline := triggerTime.Add(maxAge)

	for {
		if attr, ok := c.scan(guildID, targetID, action, triggerTime, maxAge); ok {
			return attr, true
		}

		wait := time.Until(deadline)
		if wait <= 0 {
			return Attribution{}, false
		}
		if wait > c.pollInterval {
			wait = c.pollInterval
		}
		time.Sleep(wait)
	}
}

// scan runs one pass over the audit feed, newest first, stopping at the
// first entry older than the window start.
func (c *Correlator) scan(guildID, targetID string, action discordgo.AuditLogAction, triggerTime time.Time, maxAge time.Duration) (Attribution, bool) {
	entries, err := c.fetch(guildID, int(action))
	if err != nil {
		log.Printf("Audit log fetch failed for guild %s: %v", guildID, err)
		return Attribution{}, false
	}

	cutoff := triggerTime.Add(-maxAge)

	for _, entry := range entries {
		createdAt, err := discordgo.SnowflakeTimestamp(entry.ID)
		if err != nil {
			log.Printf("Skipping audit entry %s with malformed id: %v", entry.ID, err)
			continue
		}
		if createdAt.Before(cutoff) {
			// Entries are newest-first; everything after this is older still.
			return Attribution{}, false
		}
		if entry.TargetID != targetID {
			continue
		}
		return c.resolve(entry), true
	}

	return Attribution{}, false
}

// resolve extracts the moderator and reason, unwrapping the delegation tag
// when the recorded actor is the bot itself.
func (c *Correlator) resolve(entry *discordgo.AuditLogEntry) Attribution {
	attr := Attribution{ModeratorID: entry.UserID, Reason: entry.Reason}

	if entry.UserID != c.botUserID {
		return attr
	}

	m := delegationTag.FindStringSubmatch(entry.Reason)
	if m == nil {
		// Untagged bot action; keep the bot as actor and the raw reason.
		return attr
	}

	return Attribution{ModeratorID: m[1], Reason: m[2]}
}

// fetch retrieves one page of the audit log with a hard timeout. The
// underlying client owns retries and rate limiting; the timeout only keeps a
// stalled request from suspending event processing indefinitely.
func (c *Correlator) fetch(guildID string, actionType int) ([]*discordgo.AuditLogEntry, error) {
	type result struct {
		data *discordgo.GuildAuditLog
		err  error
	}

	ch := make(chan result, 1)
	go func() {
		data, err := c.client.GuildAuditLog(guildID, "", "", actionType, 100)
		ch <- result{data, err}
	}()

	timer := time.NewTimer(c.fetchTimeout)
	defer timer.Stop()

	select {
	case r := <-ch:
		if r.err != nil {
			return nil, r.err
		}
		return r.data.AuditLogEntries, nil
	case <-timer.C:
		log.Printf("Audit log fetch for guild %s timed out after %s", guildID, c.fetchTimeout)
		return nil, nil
	}
}
