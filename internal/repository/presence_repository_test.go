package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"presence-service/internal/model"
)

func setupPresenceTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}

	// Create user_presence table for SQLite compatibility
	db.Exec(`CREATE TABLE user_presence (
		user_id INTEGER PRIMARY KEY,
		status TEXT NOT NULL DEFAULT 'OFFLINE',
		last_active DATETIME
	)`)

	return db
}

func TestPresenceRepository_SetLastActiveUpsert(t *testing.T) {
	db := setupPresenceTestDB(t)
	repo := NewPresenceRepository(db)
	ctx := context.Background()

	first := time.Now().Add(-time.Hour).UTC()
	require.NoError(t, repo.SetLastActive(ctx, 7, first))

	row, err := repo.Get(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, model.PresenceOnline, row.Status)
	assert.WithinDuration(t, first, row.LastActive, time.Second)

	// Second stamp hits the conflict path and updates in place
	second := time.Now().UTC()
	require.NoError(t, repo.SetLastActive(ctx, 7, second))

	row, err = repo.Get(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, model.PresenceOnline, row.Status)
	assert.WithinDuration(t, second, row.LastActive, time.Second)

	var count int64
	db.Model(&model.UserPresence{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestPresenceRepository_SetOffline(t *testing.T) {
	db := setupPresenceTestDB(t)
	repo := NewPresenceRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.SetLastActive(ctx, 7, time.Now().Add(-time.Minute).UTC()))

	departed := time.Now().UTC()
	require.NoError(t, repo.SetOffline(ctx, 7, departed))

	row, err := repo.Get(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, model.PresenceOffline, row.Status)
	assert.WithinDuration(t, departed, row.LastActive, time.Second)
}

func TestPresenceRepository_SetOfflineUnknownUserInserts(t *testing.T) {
	db := setupPresenceTestDB(t)
	repo := NewPresenceRepository(db)
	ctx := context.Background()

	// No prior row: the upsert inserts an OFFLINE record
	require.NoError(t, repo.SetOffline(ctx, 9, time.Now().UTC()))

	row, err := repo.Get(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, model.PresenceOffline, row.Status)
}

func TestPresenceRepository_GetNotFound(t *testing.T) {
	db := setupPresenceTestDB(t)
	repo := NewPresenceRepository(db)

	_, err := repo.Get(context.Background(), 404)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestPresenceRepository_MarkOffline(t *testing.T) {
	db := setupPresenceTestDB(t)
	repo := NewPresenceRepository(db)
	ctx := context.Background()

	ts := time.Now().Add(-time.Hour).UTC()
	for _, id := range []int64{1, 2, 3} {
		require.NoError(t, repo.SetLastActive(ctx, id, ts))
	}

	require.NoError(t, repo.MarkOffline(ctx, []int64{2, 3}))

	row, err := repo.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, model.PresenceOnline, row.Status)

	for _, id := range []int64{2, 3} {
		row, err := repo.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, model.PresenceOffline, row.Status)
		// Reconciling the status never touches the timestamp
		assert.WithinDuration(t, ts, row.LastActive, time.Second)
	}
}

func TestPresenceRepository_MarkOfflineEmptyListIsNoop(t *testing.T) {
	db := setupPresenceTestDB(t)
	repo := NewPresenceRepository(db)

	assert.NoError(t, repo.MarkOffline(context.Background(), nil))
}

func TestPresenceRepository_FindOnlineUserIDs(t *testing.T) {
	db := setupPresenceTestDB(t)
	repo := NewPresenceRepository(db)
	ctx := context.Background()

	now := time.Now().UTC()
	require.NoError(t, repo.SetLastActive(ctx, 1, now))
	require.NoError(t, repo.SetLastActive(ctx, 2, now))
	require.NoError(t, repo.SetOffline(ctx, 3, now))

	ids, err := repo.FindOnlineUserIDs(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{1, 2}, ids)
}
