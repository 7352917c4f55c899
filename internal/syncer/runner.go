package syncer

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/fllscore/ddzledger/internal/pending"
	"github.com/fllscore/ddzledger/internal/remote"
)

// Default cadence and latency threshold for the background trigger.
const (
	DefaultInterval  = 30 * time.Second
	DefaultSlowAfter = 3 * time.Second
)

// Health is one connectivity probe outcome.
type Health struct {
	OK      bool
	Slow    bool
	Latency time.Duration
}

// Runner periodically health-checks the endpoint and, when reachable,
// drains a non-empty queue. Overlapping passes are suppressed by an
// in-progress flag: a tick that arrives mid-pass is dropped, not
// queued.
type Runner struct {
	rec       *Reconciler
	client    *remote.Client
	queue     *pending.Queue
	interval  time.Duration
	slowAfter time.Duration
	inFlight  atomic.Bool
	log       *slog.Logger

	// OnResult, when set, observes each completed sync pass.
	OnResult func(Result)
}

// NewRunner creates a background sync runner.
func NewRunner(rec *Reconciler, client *remote.Client, queue *pending.Queue, log *slog.Logger) *Runner {
	if log == nil {
		log = slog.Default()
	}
	return &Runner{
		rec:       rec,
		client:    client,
		queue:     queue,
		interval:  DefaultInterval,
		slowAfter: DefaultSlowAfter,
		log:       log,
	}
}

// SetInterval overrides the tick cadence. Must be called before Run.
func (r *Runner) SetInterval(d time.Duration) {
	r.interval = d
}

// Run ticks until the context is cancelled. The first check fires after
// one interval, not immediately; callers wanting an eager pass call
// CheckAndSync themselves.
func (r *Runner) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.CheckAndSync(ctx)
		}
	}
}

// CheckAndSync performs one health-check-then-sync pass. Returns false
// when a pass was already in progress and this one was suppressed.
func (r *Runner) CheckAndSync(ctx context.Context) bool {
	if !r.inFlight.CompareAndSwap(false, true) {
		r.log.Debug("sync pass already in progress, suppressing trigger")
		return false
	}
	defer r.inFlight.Store(false)

	health := r.HealthCheck(ctx)
	if !health.OK {
		r.log.Debug("endpoint unreachable, skipping sync", "latency", health.Latency)
		return true
	}

	n, err := r.queue.Len(ctx)
	if err != nil {
		r.log.Error("failed to read pending queue length", "error", err)
		return true
	}
	if n == 0 {
		return true
	}

	res, err := r.rec.SyncAll(ctx)
	if err != nil {
		r.log.Error("sync pass failed", "error", err)
		return true
	}
	if r.OnResult != nil {
		r.OnResult(res)
	}
	return true
}

// HealthCheck probes the endpoint with a lightweight read and grades
// the latency.
func (r *Runner) HealthCheck(ctx context.Context) Health {
	ping := r.client.Ping(ctx)
	return Health{
		OK:      ping.OK,
		Slow:    ping.OK && ping.Latency > r.slowAfter,
		Latency: ping.Latency,
	}
}
