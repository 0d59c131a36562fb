// Package scanner converges externally-observed role state with the intent
// recorded in the moderation ledger. The reconciler runs on a fixed tick and
// is the only component that materializes silence expiry.
package scanner

import (
	"fmt"
	"log"
	"sync"
	"time"

	"modbot/configstore"
	"modbot/model"
	"modbot/storage"
	"modbot/utils"

	"github.com/bwmarrin/discordgo"
	"github.com/jmoiron/sqlx"
)

const memberPageSize = 1000

// Discord is the slice of the REST client the reconciler consumes. Role
// grants and revokes are idempotent on the Discord side.
type Discord interface {
	UserGuilds(limit int, beforeID, afterID string, withCounts bool, options ...discordgo.RequestOption) ([]*discordgo.UserGuild, error)
	GuildMembers(guildID string, after string, limit int, options ...discordgo.RequestOption) ([]*discordgo.Member, error)
	GuildMemberRoleAdd(guildID, userID, roleID string, options ...discordgo.RequestOption) error
	GuildMemberRoleRemove(guildID, userID, roleID string, options ...discordgo.RequestOption) error
	UserChannelCreate(recipientID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Reconciler owns the periodic convergence pass.
type Reconciler struct {
	db        *sqlx.DB
	discord   Discord
	guildCfg  *configstore.Store
	botUserID string
	grace     time.Duration

	mu  sync.Mutex
	now func() time.Time
}

// New creates a Reconciler. grace is how long a member keeps the new-member
// role after joining.
func New(db *sqlx.DB, discord Discord, guildCfg *configstore.Store, botUserID string, grace time.Duration) *Reconciler {
	return &Reconciler{
		db:        db,
		discord:   discord,
		guildCfg:  guildCfg,
		botUserID: botUserID,
		grace:     grace,
		now:       time.Now,
	}
}

// Run ticks the reconciler at the given interval until done closes. It does
// not start before ready closes: converging roles against a half-populated
// member list would hand out spurious grants.
func (r *Reconciler) Run(interval time.Duration, ready, done <-chan struct{}) {
	select {
	case <-ready:
	case <-done:
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.Tick()
		case <-done:
			return
		}
	}
}

// Tick runs one convergence pass. Overlapping ticks are skipped, not queued.
func (r *Reconciler) Tick() {
	if !r.mu.TryLock() {
		log.Println("Reconciler tick still running, skipping this tick")
		return
	}
	defer r.mu.Unlock()

	r.expireSilences()
	r.convergeGuilds()
}

// expireSilences lifts every silence whose duration has elapsed: removes the
// marker role if still held, appends the unsilence ledger record, and
// notifies the member. Each item is isolated; one failure never aborts the
// rest.
func (r *Reconciler) expireSilences() {
	now := r.now().Unix()

	expired, err := storage.ListExpiredSilences(r.db, now)
	if err != nil {
		log.Printf("Failed to list expired silences: %v", err)
		return
	}

	for _, e := range expired {
		if err := r.expireSilence(e, now); err != nil {
			log.Printf("Failed to unsilence %s in guild %s: %v", e.TargetID, e.GuildID, err)
		}
	}
}

func (r *Reconciler) expireSilence(e model.ExpiredSilence, now int64) error {
	roleID, err := r.guildCfg.RoleID(e.GuildID, model.RoleSilence)
	if err != nil {
		return err
	}
	if roleID != "" {
		// The member may have left or the role may already be gone.
		if err := r.discord.GuildMemberRoleRemove(e.GuildID, e.TargetID, roleID); err != nil {
			log.Printf("Could not remove silence role from %s in guild %s: %v", e.TargetID, e.GuildID, err)
		}
	}

	reason := "automatically unsilenced"
	rec := model.ModeratorActionRecord{
		GuildID:     e.GuildID,
		TargetID:    e.TargetID,
		ModeratorID: &r.botUserID,
		ActionType:  model.ActionUnsilence,
		RecordedAt:  now,
		Reason:      &reason,
	}
	if err := storage.AppendAction(r.db, rec); err != nil {
		return err
	}

	duration := utils.FormatDuration(time.Duration(e.Duration) * time.Second)
	utils.SendPrivateMessage(r.discord, e.TargetID,
		fmt.Sprintf("**You were automatically unsilenced after %s**", duration))

	r.logModerator(e.GuildID, fmt.Sprintf("**<@%s> got automatically unsilenced after %s**", e.TargetID, duration))
	return nil
}

// convergeGuilds runs the join-role and silence-role convergence passes for
// every guild the bot is in.
func (r *Reconciler) convergeGuilds() {
	guilds, err := r.discord.UserGuilds(200, "", "", false)
	if err != nil {
		log.Printf("Failed to list guilds for reconciliation: %v", err)
		return
	}

	active, err := storage.ActiveSilences(r.db)
	if err != nil {
		log.Printf("Failed to list active silences: %v", err)
		return
	}
	silencedByGuild := make(map[string][]string)
	for _, s := range active {
		silencedByGuild[s.GuildID] = append(silencedByGuild[s.GuildID], s.TargetID)
	}

	for _, guild := range guilds {
		if err := r.convergeGuild(guild.ID, silencedByGuild[guild.ID]); err != nil {
			log.Printf("Failed to reconcile guild %s: %v", guild.ID, err)
		}
	}
}

func (r *Reconciler) convergeGuild(guildID string, silenced []string) error {
	cfg, err := r.guildCfg.Ensure(guildID)
	if err != nil {
		return err
	}

	joinRole := cfg.RoleID(model.RoleJoin)
	newMemberRole := cfg.RoleID(model.RoleNewMember)
	silenceRole := cfg.RoleID(model.RoleSilence)

	if joinRole != "" || newMemberRole != "" {
		if err := r.convergeMemberRoles(guildID, joinRole, newMemberRole); err != nil {
			return err
		}
	}

	if silenceRole != "" {
		for _, targetID := range silenced {
			if err := r.discord.GuildMemberRoleAdd(guildID, targetID, silenceRole); err != nil {
				log.Printf("Could not add silence role to %s in guild %s: %v", targetID, guildID, err)
			}
		}
	}

	return nil
}

// convergeMemberRoles walks the full member list: non-bot members missing
// the join role get it, and members past the grace period lose the
// new-member role.
func (r *Reconciler) convergeMemberRoles(guildID, joinRole, newMemberRole string) error {
	graceCutoff := r.now().Add(-r.grace)

	after := ""
	for {
		members, err := r.discord.GuildMembers(guildID, after, memberPageSize)
		if err != nil {
			return fmt.Errorf("failed to list members of guild %s: %w", guildID, err)
		}
		if len(members) == 0 {
			return nil
		}

		for _, member := range members {
			if member.User == nil || member.User.Bot {
				continue
			}

			if joinRole != "" && !hasRole(member, joinRole) {
				if err := r.discord.GuildMemberRoleAdd(guildID, member.User.ID, joinRole); err != nil {
					log.Printf("Could not add join role to %s in guild %s: %v", member.User.ID, guildID, err)
				}
			}

			if newMemberRole != "" && hasRole(member, newMemberRole) && member.JoinedAt.Before(graceCutoff) {
				if err := r.discord.GuildMemberRoleRemove(guildID, member.User.ID, newMemberRole); err != nil {
					log.Printf("Could not remove new-member role from %s in guild %s: %v", member.User.ID, guildID, err)
				}
			}
		}

		if len(members) < memberPageSize {
			return nil
		}
		after = members[len(members)-1].User.ID
	}
}

func (r *Reconciler) logModerator(guildID, description string) {
	channelID, err := r.guildCfg.LogChannelID(guildID, model.LogModerator)
	if err != nil {
		log.Printf("Failed to resolve moderator log channel for guild %s: %v", guildID, err)
		return
	}
	if channelID == "" {
		return
	}

	embed := &discordgo.MessageEmbed{Description: description}
	if _, err := r.discord.ChannelMessageSendEmbed(channelID, embed); err != nil {
		log.Printf("Could not send moderator log for guild %s: %v", guildID, err)
	}
}

func hasRole(member *discordgo.Member, roleID string) bool {
	for _, id := range member.Roles {
		if id == roleID {
			return true
		}
	}
	return false
}
