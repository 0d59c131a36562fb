package handlers

import (
	"fmt"
	"log"
	"time"

	"modbot/bot"
	"modbot/model"
	"modbot/storage"

	"github.com/bwmarrin/discordgo"
)

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func memberSnapshot(guildID string, user *discordgo.User, nick string, at int64) model.MemberIdentitySnapshot {
	return model.MemberIdentitySnapshot{
		GuildID:   guildID,
		MemberID:  user.ID,
		VersionAt: at,
		Tag:       strPtr(user.String()),
		Nick:      strPtr(nick),
	}
}

// HandleMemberJoin snapshots the joining member's identity, grants the join
// role, and re-applies the silence marker when the ledger says the member is
// still silenced (leaving and rejoining must not shed an active silence).
func HandleMemberJoin(b *bot.Bot, s *discordgo.Session, m *discordgo.GuildMemberAdd) {
	now := time.Now().Unix()

	if err := storage.AppendMemberSnapshot(b.DB, memberSnapshot(m.GuildID, m.User, m.Nick, now)); err != nil {
		log.Printf("Failed to snapshot joining member %s: %v", m.User.ID, err)
	}

	if joinRole, err := b.GuildConfig.RoleID(m.GuildID, model.RoleJoin); err != nil {
		log.Printf("Failed to resolve join role for guild %s: %v", m.GuildID, err)
	} else if joinRole != "" {
		if err := s.GuildMemberRoleAdd(m.GuildID, m.User.ID, joinRole); err != nil {
			log.Printf("Could not add join role to %s in guild %s: %v", m.User.ID, m.GuildID, err)
		}
	}

	silenced, err := storage.IsSilenced(b.DB, m.GuildID, m.User.ID)
	if err != nil {
		log.Printf("Failed to check silence state of %s in guild %s: %v", m.User.ID, m.GuildID, err)
	} else if silenced {
		if silenceRole, err := b.GuildConfig.RoleID(m.GuildID, model.RoleSilence); err == nil && silenceRole != "" {
			if err := s.GuildMemberRoleAdd(m.GuildID, m.User.ID, silenceRole); err != nil {
				log.Printf("Could not re-apply silence role to %s in guild %s: %v", m.User.ID, m.GuildID, err)
			}
		}
	}

	sendLog(b, s, m.GuildID, model.LogMember, &discordgo.MessageEmbed{
		Description: fmt.Sprintf("➡ ​ ​ %s (<@%s>) joined", m.User.String(), m.User.ID),
	})
}

// HandleMemberRemove appends a nulled identity snapshot and checks the audit
// log for a kick. A kick is only recorded when it can be attributed; an
// unmatched leave is indistinguishable from a voluntary departure. Bans are
// handled by HandleBanAdd and recorded unconditionally.
func HandleMemberRemove(b *bot.Bot, s *discordgo.Session, m *discordgo.GuildMemberRemove) {
	now := time.Now()

	snap := model.MemberIdentitySnapshot{
		GuildID:   m.GuildID,
		MemberID:  m.User.ID,
		VersionAt: now.Unix(),
	}
	if err := storage.AppendMemberSnapshot(b.DB, snap); err != nil {
		log.Printf("Failed to snapshot leaving member %s: %v", m.User.ID, err)
	}

	sendLog(b, s, m.GuildID, model.LogMember, &discordgo.MessageEmbed{
		Description: fmt.Sprintf("⬅ ​ ​ %s (<@%s>) left", m.User.String(), m.User.ID),
	})

	correlator := b.Correlator()
	if correlator == nil {
		return
	}
	attr, ok := correlator.Correlate(m.GuildID, m.User.ID, discordgo.AuditLogActionMemberKick, now, b.GetConfig().AuditWindow)
	if !ok {
		return
	}

	rec := model.ModeratorActionRecord{
		GuildID:     m.GuildID,
		TargetID:    m.User.ID,
		ModeratorID: strPtr(attr.ModeratorID),
		ActionType:  model.ActionKick,
		RecordedAt:  now.Unix(),
		Reason:      strPtr(attr.Reason),
	}
	if err := storage.AppendAction(b.DB, rec); err != nil {
		log.Printf("Failed to record kick of %s in guild %s: %v", m.User.ID, m.GuildID, err)
		return
	}

	sendLog(b, s, m.GuildID, model.LogModerator, &discordgo.MessageEmbed{
		Description: fmt.Sprintf("**<@%s> got kicked by <@%s>**\n**Reason:** %s",
			m.User.ID, attr.ModeratorID, attr.Reason),
	})
}

// HandleMemberUpdate snapshots nickname changes. Updates that do not change
// the recorded identity are dropped.
func HandleMemberUpdate(b *bot.Bot, s *discordgo.Session, m *discordgo.GuildMemberUpdate) {
	if m.User == nil {
		return
	}

	snap := memberSnapshot(m.GuildID, m.User, m.Nick, time.Now().Unix())

	latest, err := storage.LatestMemberIdentity(b.DB, m.GuildID, m.User.ID)
	if err == nil && latest != nil && equalPtr(latest.Tag, snap.Tag) && equalPtr(latest.Nick, snap.Nick) {
		return
	}

	if err := storage.AppendMemberSnapshot(b.DB, snap); err != nil {
		log.Printf("Failed to snapshot member update of %s: %v", m.User.ID, err)
	}
}

// HandleUserUpdate fans a global tag change out to every guild the bot
// shares with the user, as one batched append.
func HandleUserUpdate(b *bot.Bot, s *discordgo.Session, u *discordgo.UserUpdate) {
	now := time.Now().Unix()

	var snaps []model.MemberIdentitySnapshot
	for _, guild := range s.State.Guilds {
		member, err := s.State.Member(guild.ID, u.ID)
		if err != nil {
			member, err = s.GuildMember(guild.ID, u.ID)
		}
		if err != nil || member == nil {
			continue // not a member of this guild
		}
		snaps = append(snaps, memberSnapshot(guild.ID, u.User, member.Nick, now))
	}

	if err := storage.AppendMemberSnapshots(b.DB, snaps); err != nil {
		log.Printf("Failed to snapshot tag change of user %s: %v", u.ID, err)
	}
}

// HandleBanAdd records a ban. Unlike kicks, bans are recorded even when the
// audit log yields no attribution; the actor stays unknown.
func HandleBanAdd(b *bot.Bot, s *discordgo.Session, e *discordgo.GuildBanAdd) {
	recordBanAction(b, s, e.GuildID, e.User, model.ActionBan, discordgo.AuditLogActionMemberBanAdd, "banned")
}

// HandleBanRemove records an unban, with the same degrade-to-unknown policy
// as bans.
func HandleBanRemove(b *bot.Bot, s *discordgo.Session, e *discordgo.GuildBanRemove) {
	recordBanAction(b, s, e.GuildID, e.User, model.ActionUnban, discordgo.AuditLogActionMemberBanRemove, "unbanned")
}

func recordBanAction(b *bot.Bot, s *discordgo.Session, guildID string, user *discordgo.User, action model.ActionType, auditAction discordgo.AuditLogAction, verb string) {
	now := time.Now()

	rec := model.ModeratorActionRecord{
		GuildID:    guildID,
		TargetID:   user.ID,
		ActionType: action,
		RecordedAt: now.Unix(),
	}

	if correlator := b.Correlator(); correlator != nil {
		if attr, ok := correlator.Correlate(guildID, user.ID, auditAction, now, b.GetConfig().AuditWindow); ok {
			rec.ModeratorID = strPtr(attr.ModeratorID)
			rec.Reason = strPtr(attr.Reason)
		}
	}

	if err := storage.AppendAction(b.DB, rec); err != nil {
		log.Printf("Failed to record %s of %s in guild %s: %v", action, user.ID, guildID, err)
		return
	}

	by := "an unknown moderator"
	if rec.ModeratorID != nil {
		by = fmt.Sprintf("<@%s>", *rec.ModeratorID)
	}
	reason := "unknown"
	if rec.Reason != nil {
		reason = *rec.Reason
	}
	sendLog(b, s, guildID, model.LogModerator, &discordgo.MessageEmbed{
		Description: fmt.Sprintf("**<@%s> got %s by %s**\n**Reason:** %s", user.ID, verb, by, reason),
	})
}

func equalPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
