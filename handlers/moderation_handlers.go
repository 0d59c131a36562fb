package handlers

import (
	"fmt"
	"log"
	"time"

	"modbot/bot"
	"modbot/model"
	"modbot/storage"
	"modbot/utils"

	"github.com/bwmarrin/discordgo"
)

// delegationReason tags an outbound API call with the human invoker, so the
// audit correlator can re-attribute the action when it later observes the
// bot as the actor.
func delegationReason(invokerID, reason string) string {
	return fmt.Sprintf("[%s]: %s", invokerID, reason)
}

func guildName(s *discordgo.Session, guildID string) string {
	if guild, err := s.State.Guild(guildID); err == nil && guild.Name != "" {
		return guild.Name
	}
	return guildID
}

// HandleSilence applies the silence marker role for a duration and records
// the silence in the ledger. The "active" state is derived from the ledger;
// the role is only its outward projection.
func HandleSilence(b *bot.Bot, s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := commandOptions(i)
	target := data["user"].UserValue(s)
	reason := data["reason"].StringValue()
	invoker := i.Member.User

	duration, err := utils.ParseDuration(data["duration"].StringValue())
	if err != nil || duration <= 0 {
		respond(s, i, "Invalid duration, use a form like `1d2h30m`.", true)
		return
	}

	role, err := b.GuildConfig.RoleID(i.GuildID, model.RoleSilence)
	if err != nil {
		log.Printf("Failed to resolve silence role for guild %s: %v", i.GuildID, err)
		respond(s, i, "Could not look up the silence role.", true)
		return
	}
	if role == "" {
		respond(s, i, "No silence role configured.", true)
		return
	}

	if err := s.GuildMemberRoleAdd(i.GuildID, target.ID, role, discordgo.WithAuditLogReason(delegationReason(invoker.ID, reason))); err != nil {
		log.Printf("Could not add silence role to %s in guild %s: %v", target.ID, i.GuildID, err)
		respond(s, i, "Could not apply the silence role.", true)
		return
	}

	seconds := int64(duration / time.Second)
	rec := model.ModeratorActionRecord{
		GuildID:     i.GuildID,
		TargetID:    target.ID,
		ModeratorID: &invoker.ID,
		ActionType:  model.ActionSilence,
		RecordedAt:  time.Now().Unix(),
		Duration:    &seconds,
		Reason:      &reason,
	}
	if err := storage.AppendAction(b.DB, rec); err != nil {
		log.Printf("Failed to record silence of %s in guild %s: %v", target.ID, i.GuildID, err)
		respond(s, i, "The role was applied but the silence could not be recorded.", true)
		return
	}

	pretty := utils.FormatDuration(duration)
	utils.SendPrivateMessage(s, target.ID, fmt.Sprintf(
		"**You were silenced in %s by <@%s> for %s**\n**Reason:** %s",
		guildName(s, i.GuildID), invoker.ID, pretty, reason))

	sendLog(b, s, i.GuildID, model.LogModerator, &discordgo.MessageEmbed{
		Description: fmt.Sprintf("**<@%s> got silenced by <@%s> for %s**\n**Reason:** %s",
			target.ID, invoker.ID, pretty, reason),
	})

	respond(s, i, fmt.Sprintf("Silenced %s for %s.", target.String(), pretty), true)
}

// HandleUnsilence lifts a silence by hand.
func HandleUnsilence(b *bot.Bot, s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := commandOptions(i)
	target := data["user"].UserValue(s)
	reason := data["reason"].StringValue()
	invoker := i.Member.User

	role, err := b.GuildConfig.RoleID(i.GuildID, model.RoleSilence)
	if err != nil {
		log.Printf("Failed to resolve silence role for guild %s: %v", i.GuildID, err)
		respond(s, i, "Could not look up the silence role.", true)
		return
	}
	if role == "" {
		respond(s, i, "No silence role configured.", true)
		return
	}

	if err := s.GuildMemberRoleRemove(i.GuildID, target.ID, role, discordgo.WithAuditLogReason(delegationReason(invoker.ID, reason))); err != nil {
		log.Printf("Could not remove silence role from %s in guild %s: %v", target.ID, i.GuildID, err)
	}

	rec := model.ModeratorActionRecord{
		GuildID:     i.GuildID,
		TargetID:    target.ID,
		ModeratorID: &invoker.ID,
		ActionType:  model.ActionUnsilence,
		RecordedAt:  time.Now().Unix(),
		Reason:      &reason,
	}
	if err := storage.AppendAction(b.DB, rec); err != nil {
		log.Printf("Failed to record unsilence of %s in guild %s: %v", target.ID, i.GuildID, err)
		respond(s, i, "The role was removed but the unsilence could not be recorded.", true)
		return
	}

	utils.SendPrivateMessage(s, target.ID, fmt.Sprintf(
		"**You were unsilenced in %s by <@%s>**\n**Reason:** %s",
		guildName(s, i.GuildID), invoker.ID, reason))

	sendLog(b, s, i.GuildID, model.LogModerator, &discordgo.MessageEmbed{
		Description: fmt.Sprintf("**<@%s> got unsilenced by <@%s>**\n**Reason:** %s",
			target.ID, invoker.ID, reason),
	})

	respond(s, i, fmt.Sprintf("Unsilenced %s.", target.String()), true)
}

// HandleWarn records a warning. Warnings have no role side effect; repeat
// warnings are legitimate ledger entries.
func HandleWarn(b *bot.Bot, s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := commandOptions(i)
	target := data["user"].UserValue(s)
	reason := data["reason"].StringValue()
	invoker := i.Member.User

	rec := model.ModeratorActionRecord{
		GuildID:     i.GuildID,
		TargetID:    target.ID,
		ModeratorID: &invoker.ID,
		ActionType:  model.ActionWarn,
		RecordedAt:  time.Now().Unix(),
		Reason:      &reason,
	}
	if err := storage.AppendAction(b.DB, rec); err != nil {
		log.Printf("Failed to record warn of %s in guild %s: %v", target.ID, i.GuildID, err)
		respond(s, i, "The warning could not be recorded.", true)
		return
	}

	utils.SendPrivateMessage(s, target.ID, fmt.Sprintf(
		"**You were warned in %s by <@%s>**\n**Reason:** %s",
		guildName(s, i.GuildID), invoker.ID, reason))

	sendLog(b, s, i.GuildID, model.LogModerator, &discordgo.MessageEmbed{
		Description: fmt.Sprintf("**<@%s> got warned by <@%s>**\n**Reason:** %s",
			target.ID, invoker.ID, reason),
	})

	respond(s, i, fmt.Sprintf("Warned %s.", target.String()), true)
}

// HandleBan bans through the API with a delegation-tagged reason. The ledger
// entry is written by the gateway ban handler, which re-attributes the
// action to the invoker via the audit log.
func HandleBan(b *bot.Bot, s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := commandOptions(i)
	target := data["user"].UserValue(s)
	reason := data["reason"].StringValue()
	invoker := i.Member.User

	if err := s.GuildBanCreateWithReason(i.GuildID, target.ID, delegationReason(invoker.ID, reason), 0); err != nil {
		log.Printf("Could not ban %s in guild %s: %v", target.ID, i.GuildID, err)
		respond(s, i, "Could not ban that user.", true)
		return
	}
	respond(s, i, fmt.Sprintf("Banned %s.", target.String()), true)
}

// HandleUnban mirrors HandleBan; the record comes from the gateway unban
// event.
func HandleUnban(b *bot.Bot, s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := commandOptions(i)
	target := data["user"].UserValue(s)
	reason := data["reason"].StringValue()
	invoker := i.Member.User

	if err := s.GuildBanDelete(i.GuildID, target.ID, discordgo.WithAuditLogReason(delegationReason(invoker.ID, reason))); err != nil {
		log.Printf("Could not unban %s in guild %s: %v", target.ID, i.GuildID, err)
		respond(s, i, "Could not unban that user.", true)
		return
	}
	respond(s, i, fmt.Sprintf("Unbanned %s.", target.String()), true)
}

// HandleKick kicks through the API with a delegation-tagged reason. The kick
// is only recorded if the member-remove handler attributes it from the audit
// log.
func HandleKick(b *bot.Bot, s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := commandOptions(i)
	target := data["user"].UserValue(s)
	reason := data["reason"].StringValue()
	invoker := i.Member.User

	if err := s.GuildMemberDeleteWithReason(i.GuildID, target.ID, delegationReason(invoker.ID, reason)); err != nil {
		log.Printf("Could not kick %s in guild %s: %v", target.ID, i.GuildID, err)
		respond(s, i, "Could not kick that user.", true)
		return
	}
	respond(s, i, fmt.Sprintf("Kicked %s.", target.String()), true)
}
