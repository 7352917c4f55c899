package syncer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/fllscore/ddzledger/internal/ledger"
	"github.com/fllscore/ddzledger/internal/pending"
	"github.com/fllscore/ddzledger/internal/remote"
	"github.com/fllscore/ddzledger/internal/session"
)

// Result summarizes one sync pass. LastError carries the message of the
// most recent retryable failure; individual entry errors never
// propagate past SyncAll.
type Result struct {
	Synced    int    `json:"synced"`
	Failed    int    `json:"failed"`
	LastError string `json:"lastError,omitempty"`
}

// Reconciler drains the pending queue through the remote client.
type Reconciler struct {
	queue   *pending.Queue
	client  *remote.Client
	session *session.Cache
	log     *slog.Logger
}

// New creates a Reconciler.
func New(queue *pending.Queue, client *remote.Client, sess *session.Cache, log *slog.Logger) *Reconciler {
	if log == nil {
		log = slog.Default()
	}
	return &Reconciler{queue: queue, client: client, session: sess, log: log}
}

// SyncAll processes the queue snapshot strictly in insertion order,
// sequentially: entry N+1 is not attempted until entry N's outcome is
// known, so queued writes land on the remote ledger in submission
// order.
//
// Once a retryable auth failure is observed the remaining entries are
// short-circuited as failed without further calls. After the pass the
// queue is persisted with exactly the surviving entries.
//
// The returned error covers local storage failures only.
func (r *Reconciler) SyncAll(ctx context.Context) (Result, error) {
	if !r.session.IsValid(ctx) {
		return Result{LastError: string(remote.CodeNotLoggedIn)}, nil
	}

	entries, err := r.queue.List(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("snapshot pending queue: %w", err)
	}
	if len(entries) == 0 {
		return Result{}, nil
	}

	var res Result
	keep := make([]ledger.PendingSubmission, 0, len(entries))
	authFailed := false

	for _, entry := range entries {
		if authFailed {
			keep = append(keep, entry)
			res.Failed++
			continue
		}

		_, err := r.client.Submit(ctx, entry.Landlord, entry.Farmer1, entry.Farmer2, entry.LandlordScore, entry.Timestamp)
		if err == nil {
			res.Synced++
			continue
		}

		if remote.IsRetryable(err) {
			keep = append(keep, entry)
			res.Failed++
			res.LastError = err.Error()
			if remote.IsAuthError(err) || remote.IsNotLoggedIn(err) {
				authFailed = true
				r.log.Warn("auth failure during sync, short-circuiting remaining entries", "error", err)
			}
			continue
		}

		// Terminal: the remote side most likely applied the write.
		// Dropping the entry risks losing one record; keeping it
		// risks duplicating one. The ledger favors no duplicates.
		r.log.Warn("treating non-retryable submit failure as applied", "id", entry.ID, "error", err)
		res.Synced++
	}

	if err := r.queue.Replace(ctx, keep); err != nil {
		return res, fmt.Errorf("persist surviving entries: %w", err)
	}

	r.log.Info("sync pass complete", "synced", res.Synced, "failed", res.Failed)
	return res, nil
}
