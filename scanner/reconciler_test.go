package scanner

import (
	"fmt"
	"testing"
	"time"

	"modbot/configstore"
	"modbot/model"
	"modbot/storage"

	"github.com/bwmarrin/discordgo"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDiscord struct {
	guilds  []*discordgo.UserGuild
	members map[string][]*discordgo.Member

	roleAdds    []string
	roleRemoves []string
	dms         []string
	embeds      []string
}

func (f *fakeDiscord) UserGuilds(limit int, beforeID, afterID string, withCounts bool, options ...discordgo.RequestOption) ([]*discordgo.UserGuild, error) {
	return f.guilds, nil
}

func (f *fakeDiscord) GuildMembers(guildID string, after string, limit int, options ...discordgo.RequestOption) ([]*discordgo.Member, error) {
	if after != "" {
		return nil, nil
	}
	return f.members[guildID], nil
}

func (f *fakeDiscord) GuildMemberRoleAdd(guildID, userID, roleID string, options ...discordgo.RequestOption) error {
	f.roleAdds = append(f.roleAdds, fmt.Sprintf("%s/%s/%s", guildID, userID, roleID))
	return nil
}

func (f *fakeDiscord) GuildMemberRoleRemove(guildID, userID, roleID string, options ...discordgo.RequestOption) error {
	f.roleRemoves = append(f.roleRemoves, fmt.Sprintf("%s/%s/%s", guildID, userID, roleID))
	return nil
}

func (f *fakeDiscord) UserChannelCreate(recipientID string, options ...discordgo.RequestOption) (*discordgo.Channel, error) {
	return &discordgo.Channel{ID: "dm-" + recipientID}, nil
}

func (f *fakeDiscord) ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.dms = append(f.dms, channelID+": "+content)
	return &discordgo.Message{}, nil
}

func (f *fakeDiscord) ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.embeds = append(f.embeds, channelID+": "+embed.Description)
	return &discordgo.Message{}, nil
}

func setupReconciler(t *testing.T) (*Reconciler, *fakeDiscord, *sqlx.DB, *configstore.Store) {
	t.Helper()
	db, err := storage.Init(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store, err := configstore.New(db)
	require.NoError(t, err)

	discord := &fakeDiscord{members: map[string][]*discordgo.Member{}}
	r := New(db, discord, store, "99", 15*time.Minute)
	return r, discord, db, store
}

func silenceAt(t *testing.T, db *sqlx.DB, guild, target string, at, duration int64) {
	t.Helper()
	mod := "12"
	err := storage.AppendAction(db, model.ModeratorActionRecord{
		GuildID:     guild,
		TargetID:    target,
		ModeratorID: &mod,
		ActionType:  model.ActionSilence,
		RecordedAt:  at,
		Duration:    &duration,
	})
	require.NoError(t, err)
}

func strPtr(s string) *string { return &s }

func TestExpireSilences(t *testing.T) {
	r, discord, db, store := setupReconciler(t)
	require.NoError(t, store.SetRoleID("g", model.RoleSilence, strPtr("555")))
	require.NoError(t, store.SetLogChannelID("g", model.LogModerator, strPtr("777")))

	silenceAt(t, db, "g", "42", 1000, 3600)

	// Still inside the duration, nothing to lift.
	r.now = func() time.Time { return time.Unix(4500, 0) }
	r.expireSilences()

	silenced, err := storage.IsSilenced(db, "g", "42")
	require.NoError(t, err)
	assert.True(t, silenced)
	assert.Empty(t, discord.roleRemoves)

	// Past the duration, the next pass lifts it.
	r.now = func() time.Time { return time.Unix(4700, 0) }
	r.expireSilences()

	silenced, err = storage.IsSilenced(db, "g", "42")
	require.NoError(t, err)
	assert.False(t, silenced)
	assert.Equal(t, []string{"g/42/555"}, discord.roleRemoves)
	require.Len(t, discord.dms, 1)
	assert.Contains(t, discord.dms[0], "automatically unsilenced")
	require.Len(t, discord.embeds, 1)
	assert.Contains(t, discord.embeds[0], "777: ")

	actions, err := storage.ActionsByTarget(db, "g", "42")
	require.NoError(t, err)
	require.Len(t, actions, 2)
	assert.Equal(t, model.ActionUnsilence, actions[0].ActionType, "entries come newest first")
	require.NotNil(t, actions[0].ModeratorID)
	assert.Equal(t, "99", *actions[0].ModeratorID, "expiry is attributed to the bot")

	// The lifted silence never expires again.
	r.expireSilences()
	actions, err = storage.ActionsByTarget(db, "g", "42")
	require.NoError(t, err)
	assert.Len(t, actions, 2)
}

func TestConvergeMemberRoles(t *testing.T) {
	r, discord, _, store := setupReconciler(t)
	require.NoError(t, store.SetRoleID("g", model.RoleJoin, strPtr("100")))
	require.NoError(t, store.SetRoleID("g", model.RoleNewMember, strPtr("200")))

	now := time.Unix(100000, 0)
	r.now = func() time.Time { return now }

	discord.guilds = []*discordgo.UserGuild{{ID: "g"}}
	discord.members["g"] = []*discordgo.Member{
		// Missing the join role.
		{User: &discordgo.User{ID: "1"}, JoinedAt: now.Add(-time.Hour)},
		// Bots are left alone.
		{User: &discordgo.User{ID: "2", Bot: true}, JoinedAt: now.Add(-time.Hour)},
		// Past the grace period, loses the new-member role.
		{User: &discordgo.User{ID: "3"}, Roles: []string{"100", "200"}, JoinedAt: now.Add(-time.Hour)},
		// Still inside the grace period, keeps it.
		{User: &discordgo.User{ID: "4"}, Roles: []string{"100", "200"}, JoinedAt: now.Add(-5 * time.Minute)},
	}

	r.Tick()

	assert.Equal(t, []string{"g/1/100"}, discord.roleAdds)
	assert.Equal(t, []string{"g/3/200"}, discord.roleRemoves)
}

func TestConvergeSilenceRoles(t *testing.T) {
	r, discord, db, store := setupReconciler(t)
	require.NoError(t, store.SetRoleID("g", model.RoleSilence, strPtr("555")))

	// A silence that is still running; the member may have rejoined or the
	// role may have been removed by hand.
	silenceAt(t, db, "g", "42", time.Now().Unix(), 86400)

	discord.guilds = []*discordgo.UserGuild{{ID: "g"}}

	r.Tick()

	assert.Contains(t, discord.roleAdds, "g/42/555")
}

func TestUnconfiguredGuildIsNoOp(t *testing.T) {
	r, discord, _, _ := setupReconciler(t)

	discord.guilds = []*discordgo.UserGuild{{ID: "g"}}
	discord.members["g"] = []*discordgo.Member{
		{User: &discordgo.User{ID: "1"}},
	}

	r.Tick()

	assert.Empty(t, discord.roleAdds)
	assert.Empty(t, discord.roleRemoves)
}

func TestOverlappingTickSkipped(t *testing.T) {
	r, discord, db, store := setupReconciler(t)
	require.NoError(t, store.SetRoleID("g", model.RoleSilence, strPtr("555")))
	silenceAt(t, db, "g", "42", 1000, 60)
	r.now = func() time.Time { return time.Unix(5000, 0) }

	r.mu.Lock()
	r.Tick()
	r.mu.Unlock()

	assert.Empty(t, discord.roleRemoves, "a held tick must be skipped, not queued")
}
