package configstore_test

import (
	"testing"

	"modbot/configstore"
	"modbot/model"
	"modbot/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupStore(t *testing.T) *configstore.Store {
	t.Helper()
	db, err := storage.Init(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store, err := configstore.New(db)
	require.NoError(t, err)
	return store
}

func strPtr(s string) *string { return &s }

func TestEnsureCreatesBlankConfig(t *testing.T) {
	store := setupStore(t)

	cfg, err := store.Ensure("g")
	require.NoError(t, err)
	assert.Equal(t, "g", cfg.GuildID)
	assert.Nil(t, cfg.SilenceRoleID)

	roleID, err := store.RoleID("g", model.RoleSilence)
	require.NoError(t, err)
	assert.Empty(t, roleID, "unset role means the feature is disabled")
}

func TestSetAndGetRole(t *testing.T) {
	store := setupStore(t)

	require.NoError(t, store.SetRoleID("g", model.RoleSilence, strPtr("555")))

	roleID, err := store.RoleID("g", model.RoleSilence)
	require.NoError(t, err)
	assert.Equal(t, "555", roleID)

	// Writing through must invalidate the cached row.
	require.NoError(t, store.SetRoleID("g", model.RoleSilence, nil))
	roleID, err = store.RoleID("g", model.RoleSilence)
	require.NoError(t, err)
	assert.Empty(t, roleID)
}

func TestSetAndGetLogChannel(t *testing.T) {
	store := setupStore(t)

	require.NoError(t, store.SetLogChannelID("g", model.LogModerator, strPtr("777")))

	channelID, err := store.LogChannelID("g", model.LogModerator)
	require.NoError(t, err)
	assert.Equal(t, "777", channelID)

	channelID, err = store.LogChannelID("g", model.LogMessage)
	require.NoError(t, err)
	assert.Empty(t, channelID)
}

func TestUnknownTypes(t *testing.T) {
	store := setupStore(t)
	assert.Error(t, store.SetRoleID("g", model.RoleType("bogus"), strPtr("1")))
	assert.Error(t, store.SetLogChannelID("g", model.LogType("bogus"), strPtr("1")))
}

func TestDeleteData(t *testing.T) {
	store := setupStore(t)

	require.NoError(t, store.SetRoleID("g", model.RoleJoin, strPtr("123")))
	require.NoError(t, store.DeleteData("g"))

	roleID, err := store.RoleID("g", model.RoleJoin)
	require.NoError(t, err)
	assert.Empty(t, roleID, "erasure resets the guild to a blank config")
}
