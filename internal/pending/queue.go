// Package pending is the durable, insertion-ordered buffer of writes
// the remote ledger has not confirmed. It is the single source of truth
// for unconfirmed submissions: no other component tracks them.
package pending

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fllscore/ddzledger/internal/ledger"
	"github.com/fllscore/ddzledger/internal/storage"
)

// Queue persists pending submissions as one JSON array in the KV store.
// Each operation is a read-modify-persist cycle serialized by an
// internal mutex; callers must not assume atomicity across operations.
type Queue struct {
	mu    sync.Mutex
	kv    storage.KV
	newID func() string
	now   func() time.Time
}

// Option configures a Queue.
type Option func(*Queue)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(q *Queue) { q.now = now }
}

// WithIDGenerator overrides entry id generation.
func WithIDGenerator(gen func() string) Option {
	return func(q *Queue) { q.newID = gen }
}

// New creates a queue over the given store.
func New(kv storage.KV, opts ...Option) *Queue {
	q := &Queue{kv: kv, newID: uuid.NewString, now: time.Now}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Add appends a submission with a fresh id and a client-side provisional
// timestamp, persisting immediately. Returns the stored entry.
func (q *Queue) Add(ctx context.Context, landlord, farmer1, farmer2 string, landlordScore int) (ledger.PendingSubmission, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	entries, err := q.load(ctx)
	if err != nil {
		return ledger.PendingSubmission{}, err
	}

	entry := ledger.PendingSubmission{
		ID:            q.newID(),
		Landlord:      landlord,
		Farmer1:       farmer1,
		Farmer2:       farmer2,
		LandlordScore: landlordScore,
		Timestamp:     q.now().UTC().Format(time.RFC3339),
	}
	entries = append(entries, entry)

	if err := q.persist(ctx, entries); err != nil {
		return ledger.PendingSubmission{}, err
	}
	return entry, nil
}

// Remove deletes the entry with the given id, persisting immediately.
// Removing an absent id is a no-op.
func (q *Queue) Remove(ctx context.Context, id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	entries, err := q.load(ctx)
	if err != nil {
		return err
	}

	kept := entries[:0]
	for _, e := range entries {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	return q.persist(ctx, kept)
}

// List returns a snapshot of the queue in insertion order.
func (q *Queue) List(ctx context.Context) ([]ledger.PendingSubmission, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.load(ctx)
}

// Replace persists exactly the given entries, dropping everything else
// in one write. The sync reconciler uses this to remove all resolved
// entries atomically relative to the survivors.
func (q *Queue) Replace(ctx context.Context, entries []ledger.PendingSubmission) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.persist(ctx, entries)
}

// Clear empties the queue. This is the destructive escape hatch for a
// permanently stuck sync; only an explicit user action should reach it.
func (q *Queue) Clear(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.kv.Delete(ctx, storage.KeyPendingQueue)
}

// Len returns the number of buffered entries.
func (q *Queue) Len(ctx context.Context) (int, error) {
	entries, err := q.List(ctx)
	if err != nil {
		return 0, err
	}
	return len(entries), nil
}

func (q *Queue) load(ctx context.Context) ([]ledger.PendingSubmission, error) {
	raw, ok, err := q.kv.Get(ctx, storage.KeyPendingQueue)
	if err != nil {
		return nil, fmt.Errorf("load pending queue: %w", err)
	}
	if !ok || raw == "" {
		return nil, nil
	}
	var entries []ledger.PendingSubmission
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, fmt.Errorf("decode pending queue: %w", err)
	}
	return entries, nil
}

func (q *Queue) persist(ctx context.Context, entries []ledger.PendingSubmission) error {
	if len(entries) == 0 {
		return q.kv.Delete(ctx, storage.KeyPendingQueue)
	}
	raw, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encode pending queue: %w", err)
	}
	return q.kv.Set(ctx, storage.KeyPendingQueue, string(raw))
}
