package pending

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fllscore/ddzledger/internal/ledger"
	"github.com/fllscore/ddzledger/internal/storage"
	"github.com/fllscore/ddzledger/internal/testutil"
)

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func newTestQueue(t *testing.T) (*Queue, *testutil.MemoryKV) {
	t.Helper()
	kv := testutil.NewMemoryKV()
	clock := testutil.NewClock(time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC))
	q := New(kv, WithClock(clock.Now), WithIDGenerator(sequentialIDs()))
	return q, kv
}

func TestQueue_AddAssignsIDAndTimestamp(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()

	entry, err := q.Add(ctx, "P", "E", "L", 30)
	require.NoError(t, err)

	assert.Equal(t, "id-1", entry.ID)
	assert.Equal(t, "2024-01-01T10:00:00Z", entry.Timestamp)
	assert.Equal(t, 30, entry.LandlordScore)
	assert.Equal(t, -15, entry.FarmerScore())
}

func TestQueue_InsertionOrder(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()

	_, err := q.Add(ctx, "A", "B", "C", 10)
	require.NoError(t, err)
	_, err = q.Add(ctx, "B", "A", "C", 20)
	require.NoError(t, err)
	_, err = q.Add(ctx, "C", "A", "B", 30)
	require.NoError(t, err)

	entries, err := q.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, []string{"id-1", "id-2", "id-3"},
		[]string{entries[0].ID, entries[1].ID, entries[2].ID})
}

func TestQueue_AddThenRemoveRestoresState(t *testing.T) {
	q, kv := newTestQueue(t)
	ctx := context.Background()

	_, err := q.Add(ctx, "A", "B", "C", 10)
	require.NoError(t, err)
	before := kv.Snapshot()

	entry, err := q.Add(ctx, "B", "A", "C", 20)
	require.NoError(t, err)
	require.NoError(t, q.Remove(ctx, entry.ID))

	assert.Equal(t, before, kv.Snapshot(), "add then remove must leave the queue structurally identical")
}

func TestQueue_RemoveAbsentID(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()

	_, err := q.Add(ctx, "A", "B", "C", 10)
	require.NoError(t, err)

	require.NoError(t, q.Remove(ctx, "no-such-id"))

	n, err := q.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestQueue_Replace(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()

	_, err := q.Add(ctx, "A", "B", "C", 10)
	require.NoError(t, err)
	second, err := q.Add(ctx, "B", "A", "C", 20)
	require.NoError(t, err)

	require.NoError(t, q.Replace(ctx, []ledger.PendingSubmission{second}))

	entries, err := q.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, second.ID, entries[0].ID)
}

func TestQueue_ClearDropsStoredKey(t *testing.T) {
	q, kv := newTestQueue(t)
	ctx := context.Background()

	_, err := q.Add(ctx, "A", "B", "C", 10)
	require.NoError(t, err)
	require.NoError(t, q.Clear(ctx))

	n, err := q.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	_, ok, err := kv.Get(ctx, storage.KeyPendingQueue)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestQueue_SurvivesReopen(t *testing.T) {
	kv := testutil.NewMemoryKV()
	ctx := context.Background()

	q := New(kv, WithIDGenerator(sequentialIDs()))
	_, err := q.Add(ctx, "A", "B", "C", 10)
	require.NoError(t, err)

	// A new queue over the same store sees the buffered entry.
	q2 := New(kv)
	entries, err := q2.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "id-1", entries[0].ID)
}
