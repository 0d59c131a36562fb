package storage_test

import (
	"testing"

	"modbot/model"
	"modbot/storage"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := storage.Init(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func testMessage(id string) model.MessageRecord {
	return model.MessageRecord{
		MessageID: id,
		ChannelID: "200",
		GuildID:   "300",
		AuthorID:  "400",
	}
}

func TestCreateThenEdit(t *testing.T) {
	db := setupDB(t)
	rec := testMessage("100")

	require.NoError(t, storage.RecordMessageCreate(db, rec, 1000, "hello"))

	appended, err := storage.RecordMessageEdit(db, rec, 1010, "hello world")
	require.NoError(t, err)
	assert.True(t, appended)

	v0, err := storage.GetVersion(db, "100", 0)
	require.NoError(t, err)
	assert.Equal(t, "hello", v0.Content)
	assert.Equal(t, int64(1000), v0.VersionAt)
	assert.Equal(t, "400", v0.AuthorID)

	v1, err := storage.GetVersion(db, "100", 1)
	require.NoError(t, err)
	assert.Equal(t, "hello world", v1.Content)
	assert.Greater(t, v1.VersionAt, v0.VersionAt)

	_, err = storage.GetVersion(db, "100", 2)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestNoOpEditDropped(t *testing.T) {
	db := setupDB(t)
	rec := testMessage("100")

	require.NoError(t, storage.RecordMessageCreate(db, rec, 1000, "foo"))

	// The platform redelivers edit notifications; identical content must
	// not create a version.
	for i := 0; i < 2; i++ {
		appended, err := storage.RecordMessageEdit(db, rec, 1010, "foo")
		require.NoError(t, err)
		assert.False(t, appended)
	}

	count, err := storage.VersionCount(db, "100")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestDuplicateEditDelivery(t *testing.T) {
	db := setupDB(t)
	rec := testMessage("100")

	require.NoError(t, storage.RecordMessageCreate(db, rec, 1000, "hello"))

	appended, err := storage.RecordMessageEdit(db, rec, 1010, "foo")
	require.NoError(t, err)
	assert.True(t, appended)

	appended, err = storage.RecordMessageEdit(db, rec, 1011, "foo")
	require.NoError(t, err)
	assert.False(t, appended)

	count, err := storage.VersionCount(db, "100")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestEditWithoutCreate(t *testing.T) {
	db := setupDB(t)
	rec := testMessage("100")

	// Missed create events are tolerated: the edit inserts the metadata
	// itself and its content becomes version 0.
	appended, err := storage.RecordMessageEdit(db, rec, 1010, "edited")
	require.NoError(t, err)
	assert.True(t, appended)

	v0, err := storage.GetVersion(db, "100", 0)
	require.NoError(t, err)
	assert.Equal(t, "edited", v0.Content)
}

func TestDuplicateCreateDelivery(t *testing.T) {
	db := setupDB(t)
	rec := testMessage("100")

	require.NoError(t, storage.RecordMessageCreate(db, rec, 1000, "hello"))
	require.NoError(t, storage.RecordMessageCreate(db, rec, 1000, "hello"))

	count, err := storage.VersionCount(db, "100")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestLatestVersion(t *testing.T) {
	db := setupDB(t)
	rec := testMessage("100")

	require.NoError(t, storage.RecordMessageCreate(db, rec, 1000, "a"))
	_, err := storage.RecordMessageEdit(db, rec, 1010, "b")
	require.NoError(t, err)
	_, err = storage.RecordMessageEdit(db, rec, 1020, "c")
	require.NoError(t, err)

	latest, err := storage.LatestVersion(db, "100")
	require.NoError(t, err)
	assert.Equal(t, "c", latest.Content)
	assert.Equal(t, int64(1020), latest.VersionAt)

	_, err = storage.LatestVersion(db, "999")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
