package task

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestPostgres connects using TEST_DATABASE_URL and starts from an
// empty tasks table. Skipped when the variable is unset.
func newTestPostgres(t *testing.T) *PostgresStore {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	pool, err := pgxpool.New(context.Background(), url)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = pool.Exec(context.Background(), `TRUNCATE tasks RESTART IDENTITY`)
	require.NoError(t, err)

	return &PostgresStore{pool: pool}
}

func TestPostgresStore_RoundTrip(t *testing.T) {
	store := newTestPostgres(t)
	ctx := context.Background()
	due := time.Now().UTC().Add(time.Hour).Truncate(time.Second)

	id, err := store.Create(ctx, "call mom", &due, "tomorrow at 9", PriorityHigh)
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	got, err := store.Get(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "call mom", got.Text)
	assert.Equal(t, PriorityHigh, got.Priority)
	assert.False(t, got.Completed)
	require.NotNil(t, got.DueAt)
	assert.True(t, got.DueAt.Equal(due))

	missing, err := store.Get(ctx, 999)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestPostgresStore_OverdueAndComplete(t *testing.T) {
	store := newTestPostgres(t)
	ctx := context.Background()
	now := time.Now().UTC()

	past := now.Add(-time.Minute)
	future := now.Add(time.Hour)
	overdueID, err := store.Create(ctx, "overdue", &past, "", PriorityMedium)
	require.NoError(t, err)
	_, err = store.Create(ctx, "future", &future, "", PriorityMedium)
	require.NoError(t, err)
	_, err = store.Create(ctx, "no due", nil, "", PriorityMedium)
	require.NoError(t, err)

	overdue, err := store.ListOverdue(ctx, now)
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, overdueID, overdue[0].ID)

	done, err := store.Complete(ctx, overdueID)
	require.NoError(t, err)
	assert.True(t, done)

	// Second completion is a no-op
	done, err = store.Complete(ctx, overdueID)
	require.NoError(t, err)
	assert.False(t, done)

	overdue, err = store.ListOverdue(ctx, now)
	require.NoError(t, err)
	assert.Empty(t, overdue)
}

func TestPostgresStore_Delete(t *testing.T) {
	store := newTestPostgres(t)
	ctx := context.Background()

	id, err := store.Create(ctx, "temp", nil, "", PriorityLow)
	require.NoError(t, err)

	deleted, err := store.Delete(ctx, id)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = store.Delete(ctx, id)
	require.NoError(t, err)
	assert.False(t, deleted)
}
