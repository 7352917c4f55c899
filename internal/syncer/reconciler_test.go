package syncer

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fllscore/ddzledger/internal/hmacsig"
	"github.com/fllscore/ddzledger/internal/pending"
	"github.com/fllscore/ddzledger/internal/remote"
	"github.com/fllscore/ddzledger/internal/session"
	"github.com/fllscore/ddzledger/internal/testutil"
)

type fixture struct {
	rec       *Reconciler
	queue     *pending.Queue
	sess      *session.Cache
	transport *testutil.ScriptedTransport
}

func newFixture(t *testing.T, loggedIn bool, outcomes ...testutil.Outcome) *fixture {
	t.Helper()
	kv := testutil.NewMemoryKV()
	sess := session.NewCache(kv)
	if loggedIn {
		require.NoError(t, sess.Save(context.Background(), "player@example.com", "editor"))
	}
	queue := pending.New(kv)
	transport := &testutil.ScriptedTransport{Outcomes: outcomes}
	client := remote.New(remote.Config{
		Endpoint:   "https://ledger.example/exec",
		AppVersion: "2.0.58",
		Signer:     hmacsig.New("test-secret"),
		Session:    sess,
		HTTPClient: &http.Client{Transport: transport},
	})
	return &fixture{
		rec:       New(queue, client, sess, nil),
		queue:     queue,
		sess:      sess,
		transport: transport,
	}
}

func (f *fixture) enqueue(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		_, err := f.queue.Add(context.Background(), "P", "E", "L", 30)
		require.NoError(t, err)
	}
}

func TestSyncAll_NotLoggedIn(t *testing.T) {
	f := newFixture(t, false)
	f.enqueue(t, 1)

	res, err := f.rec.SyncAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, Result{LastError: "NOT_LOGGED_IN"}, res)
	n, _ := f.queue.Len(context.Background())
	assert.Equal(t, 1, n, "queue untouched without an identity")
	assert.Zero(t, f.transport.Calls())
}

func TestSyncAll_EmptyQueue(t *testing.T) {
	f := newFixture(t, true)

	res, err := f.rec.SyncAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, Result{}, res)
	assert.Zero(t, f.transport.Calls())
}

func TestSyncAll_AllSucceed(t *testing.T) {
	f := newFixture(t, true,
		testutil.Outcome{Status: 200, Body: `{"success":true,"timestamp":"2024-01-01 10:00:00"}`},
		testutil.Outcome{Status: 200, Body: `{"success":true,"timestamp":"2024-01-01 10:01:00"}`},
	)
	f.enqueue(t, 2)

	res, err := f.rec.SyncAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, Result{Synced: 2}, res)
	n, _ := f.queue.Len(context.Background())
	assert.Equal(t, 0, n)
	assert.Equal(t, 2, f.transport.Calls())
}

func TestSyncAll_AccessDeniedShortCircuits(t *testing.T) {
	f := newFixture(t, true,
		testutil.Outcome{Status: 200, Body: `{"success":false,"code":"ACCESS_DENIED"}`},
	)
	f.enqueue(t, 2)

	res, err := f.rec.SyncAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, res.Synced)
	assert.Equal(t, 2, res.Failed)
	assert.Contains(t, res.LastError, "ACCESS_DENIED")

	n, _ := f.queue.Len(context.Background())
	assert.Equal(t, 2, n, "both entries retained")
	assert.Equal(t, 1, f.transport.Calls(), "remaining entries short-circuited without calls")
	assert.False(t, f.sess.IsValid(context.Background()), "session cache cleared")
}

func TestSyncAll_RetryableKeepsEntryAndContinues(t *testing.T) {
	f := newFixture(t, true,
		testutil.Outcome{Err: testutil.TimeoutError{}},
		testutil.Outcome{Status: 200, Body: `{"success":true}`},
	)
	f.enqueue(t, 2)

	res, err := f.rec.SyncAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, res.Synced)
	assert.Equal(t, 1, res.Failed)
	assert.Contains(t, res.LastError, "TIMEOUT")

	entries, _ := f.queue.List(context.Background())
	require.Len(t, entries, 1, "only the timed-out entry survives")
}

func TestSyncAll_TerminalFailureTreatedAsApplied(t *testing.T) {
	f := newFixture(t, true,
		testutil.Outcome{Status: 200, Body: `{"success":false,"message":"row rejected"}`},
	)
	f.enqueue(t, 1)

	res, err := f.rec.SyncAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, Result{Synced: 1}, res, "non-retryable failure counts as synced")
	n, _ := f.queue.Len(context.Background())
	assert.Equal(t, 0, n)
}

func TestSyncAll_ValidationQuirkIsSuccess(t *testing.T) {
	f := newFixture(t, true,
		testutil.Outcome{Status: 200, Body: `{"success":false,"message":"violates the data validation rules"}`},
	)
	f.enqueue(t, 1)

	res, err := f.rec.SyncAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, Result{Synced: 1}, res)
}

func TestSyncAll_ServerErrorKeepsOrder(t *testing.T) {
	f := newFixture(t, true,
		testutil.Outcome{Status: 503, Body: "unavailable"},
		testutil.Outcome{Status: 503, Body: "unavailable"},
	)
	before, err := func() ([]string, error) {
		f.enqueue(t, 2)
		entries, err := f.queue.List(context.Background())
		ids := make([]string, len(entries))
		for i, e := range entries {
			ids[i] = e.ID
		}
		return ids, err
	}()
	require.NoError(t, err)

	res, err := f.rec.SyncAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, res.Failed)
	entries, _ := f.queue.List(context.Background())
	require.Len(t, entries, 2)
	assert.Equal(t, before[0], entries[0].ID, "surviving entries keep insertion order")
	assert.Equal(t, before[1], entries[1].ID)
}
