package undo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fllscore/ddzledger/internal/pending"
	"github.com/fllscore/ddzledger/internal/remote"
	"github.com/fllscore/ddzledger/internal/storage"
	"github.com/fllscore/ddzledger/internal/testutil"
)

type fakeDeleter struct {
	calls []string
	err   error
}

func (f *fakeDeleter) DeleteLastGame(_ context.Context, timestamp string) error {
	f.calls = append(f.calls, timestamp)
	return f.err
}

func TestUndoRemoteSubmission(t *testing.T) {
	ctx := context.Background()
	kv := testutil.NewMemoryKV()
	del := &fakeDeleter{}
	c := New(pending.New(kv), del, kv)

	require.NoError(t, c.Arm(ctx, Action{
		Landlord:      "alice",
		Farmer1:       "bob",
		Farmer2:       "carol",
		LandlordScore: 4,
		Timestamp:     "2026-03-01 20:15:00",
	}))
	assert.Equal(t, StateArmed, c.State())

	a, err := c.Undo(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"2026-03-01 20:15:00"}, del.calls)
	assert.Equal(t, "alice", a.Landlord)
	assert.Equal(t, StateReverted, c.State())

	_, ok, err := kv.Get(ctx, storage.KeyUndoState)
	require.NoError(t, err)
	assert.False(t, ok, "persisted state should be cleared after revert")
}

func TestUndoLocalSubmissionRemovesQueueEntry(t *testing.T) {
	ctx := context.Background()
	kv := testutil.NewMemoryKV()
	q := pending.New(kv)
	del := &fakeDeleter{}
	c := New(q, del, kv)

	entry, err := q.Add(ctx, "alice", "bob", "carol", -6)
	require.NoError(t, err)
	require.NoError(t, c.Arm(ctx, Action{
		Landlord:      "alice",
		Farmer1:       "bob",
		Farmer2:       "carol",
		LandlordScore: -6,
		PendingID:     entry.ID,
	}))

	_, err = c.Undo(ctx)
	require.NoError(t, err)

	assert.Empty(t, del.calls, "local undo must not reach the server")
	n, err := q.Len(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestUndoWithoutArmedAction(t *testing.T) {
	kv := testutil.NewMemoryKV()
	c := New(pending.New(kv), &fakeDeleter{}, kv)

	_, err := c.Undo(context.Background())
	assert.ErrorIs(t, err, ErrNotArmed)
}

func TestUndoRetryableDeleteFailureStaysArmed(t *testing.T) {
	ctx := context.Background()
	kv := testutil.NewMemoryKV()
	del := &fakeDeleter{err: &remote.APIError{Code: remote.CodeTimeout, Message: "deadline"}}
	c := New(pending.New(kv), del, kv)

	require.NoError(t, c.Arm(ctx, Action{Landlord: "alice", Timestamp: "2026-03-01 20:15:00"}))

	_, err := c.Undo(ctx)
	require.Error(t, err)
	assert.True(t, remote.IsRetryable(err))
	assert.Equal(t, StateArmed, c.State(), "a retryable failure keeps the window open")

	del.err = nil
	_, err = c.Undo(ctx)
	require.NoError(t, err)
	assert.Len(t, del.calls, 2)
	assert.Equal(t, StateReverted, c.State())
}

func TestUndoTerminalDeleteFailureTreatedAsApplied(t *testing.T) {
	ctx := context.Background()
	kv := testutil.NewMemoryKV()
	del := &fakeDeleter{err: &remote.APIError{Code: remote.CodeRejected, Message: "no such row"}}
	c := New(pending.New(kv), del, kv)

	require.NoError(t, c.Arm(ctx, Action{Landlord: "alice", Timestamp: "2026-03-01 20:15:00"}))

	_, err := c.Undo(ctx)
	require.NoError(t, err)
	assert.Equal(t, StateReverted, c.State())
}

func TestArmReplacesPreviousAction(t *testing.T) {
	ctx := context.Background()
	kv := testutil.NewMemoryKV()
	del := &fakeDeleter{}
	c := New(pending.New(kv), del, kv)

	require.NoError(t, c.Arm(ctx, Action{Landlord: "alice", Timestamp: "2026-03-01 20:00:00"}))
	require.NoError(t, c.Arm(ctx, Action{Landlord: "bob", Timestamp: "2026-03-01 20:05:00"}))

	a, err := c.Undo(ctx)
	require.NoError(t, err)
	assert.Equal(t, "bob", a.Landlord)
	assert.Equal(t, []string{"2026-03-01 20:05:00"}, del.calls,
		"only the most recent submission is reversible")
}

func TestWindowExpiry(t *testing.T) {
	ctx := context.Background()
	kv := testutil.NewMemoryKV()
	c := New(pending.New(kv), &fakeDeleter{}, kv, WithWindow(20*time.Millisecond))

	require.NoError(t, c.Arm(ctx, Action{Landlord: "alice", Timestamp: "2026-03-01 20:15:00"}))

	require.Eventually(t, func() bool {
		return c.State() == StateExpired
	}, time.Second, 5*time.Millisecond)

	_, err := c.Undo(ctx)
	assert.ErrorIs(t, err, ErrNotArmed)

	_, ok, err := kv.Get(ctx, storage.KeyUndoState)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRestoreResumesRemainingWindow(t *testing.T) {
	ctx := context.Background()
	kv := testutil.NewMemoryKV()
	clock := testutil.NewClock(time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC))

	first := New(pending.New(kv), &fakeDeleter{}, kv, WithClock(clock.Now))
	require.NoError(t, first.Arm(ctx, Action{Landlord: "alice", Timestamp: "2026-03-01 20:00:00"}))

	// A second process picks up the persisted state 30 seconds later.
	clock.Advance(30 * time.Second)
	del := &fakeDeleter{}
	second := New(pending.New(kv), del, kv, WithClock(clock.Now))
	require.NoError(t, second.Restore(ctx))
	assert.Equal(t, StateArmed, second.State())
	assert.LessOrEqual(t, second.Remaining(), 30*time.Second)

	_, err := second.Undo(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"2026-03-01 20:00:00"}, del.calls)
}

func TestRestoreDropsLapsedState(t *testing.T) {
	ctx := context.Background()
	kv := testutil.NewMemoryKV()
	clock := testutil.NewClock(time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC))

	first := New(pending.New(kv), &fakeDeleter{}, kv, WithClock(clock.Now))
	require.NoError(t, first.Arm(ctx, Action{Landlord: "alice", Timestamp: "2026-03-01 20:00:00"}))

	clock.Advance(2 * time.Minute)
	second := New(pending.New(kv), &fakeDeleter{}, kv, WithClock(clock.Now))
	require.NoError(t, second.Restore(ctx))
	assert.Equal(t, StateIdle, second.State())

	_, ok, err := kv.Get(ctx, storage.KeyUndoState)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRestoreWithNoState(t *testing.T) {
	kv := testutil.NewMemoryKV()
	c := New(pending.New(kv), &fakeDeleter{}, kv)
	require.NoError(t, c.Restore(context.Background()))
	assert.Equal(t, StateIdle, c.State())
}

func TestDisarm(t *testing.T) {
	ctx := context.Background()
	kv := testutil.NewMemoryKV()
	del := &fakeDeleter{}
	c := New(pending.New(kv), del, kv)

	require.NoError(t, c.Arm(ctx, Action{Landlord: "alice", Timestamp: "2026-03-01 20:00:00"}))
	require.NoError(t, c.Disarm(ctx))

	assert.Equal(t, StateIdle, c.State())
	assert.Empty(t, del.calls)
	_, err := c.Undo(ctx)
	assert.ErrorIs(t, err, ErrNotArmed)
}
