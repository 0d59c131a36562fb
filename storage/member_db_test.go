package storage_test

import (
	"testing"

	"modbot/model"
	"modbot/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestMemberIdentityAt(t *testing.T) {
	db := setupDB(t)

	snaps := []model.MemberIdentitySnapshot{
		{GuildID: "g", MemberID: "42", VersionAt: 1000, Tag: strPtr("old#1234"), Nick: nil},
		{GuildID: "g", MemberID: "42", VersionAt: 2000, Tag: strPtr("old#1234"), Nick: strPtr("nicky")},
		{GuildID: "g", MemberID: "42", VersionAt: 3000, Tag: nil, Nick: nil}, // left
	}
	for _, snap := range snaps {
		require.NoError(t, storage.AppendMemberSnapshot(db, snap))
	}

	at, err := storage.MemberIdentityAt(db, "g", "42", 1500)
	require.NoError(t, err)
	require.NotNil(t, at.Tag)
	assert.Equal(t, "old#1234", *at.Tag)
	assert.Nil(t, at.Nick)

	at, err = storage.MemberIdentityAt(db, "g", "42", 2500)
	require.NoError(t, err)
	require.NotNil(t, at.Nick)
	assert.Equal(t, "nicky", *at.Nick)

	at, err = storage.MemberIdentityAt(db, "g", "42", 9000)
	require.NoError(t, err)
	assert.Nil(t, at.Tag, "leave snapshot nulls the identity")

	_, err = storage.MemberIdentityAt(db, "g", "42", 500)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestAppendMemberSnapshotsFanOut(t *testing.T) {
	db := setupDB(t)

	// A global tag change writes one row per shared guild in one batch.
	snaps := []model.MemberIdentitySnapshot{
		{GuildID: "g1", MemberID: "42", VersionAt: 1000, Tag: strPtr("new#0001")},
		{GuildID: "g2", MemberID: "42", VersionAt: 1000, Tag: strPtr("new#0001"), Nick: strPtr("other")},
	}
	require.NoError(t, storage.AppendMemberSnapshots(db, snaps))
	require.NoError(t, storage.AppendMemberSnapshots(db, nil))

	latest, err := storage.LatestMemberIdentity(db, "g2", "42")
	require.NoError(t, err)
	require.NotNil(t, latest.Tag)
	assert.Equal(t, "new#0001", *latest.Tag)
	require.NotNil(t, latest.Nick)
	assert.Equal(t, "other", *latest.Nick)
}
