// Package undo gives the user a bounded window to reverse the most
// recent submission, whether it landed remotely or only in the local
// queue. One action is tracked at a time: arming replaces any earlier
// timer.
package undo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/fllscore/ddzledger/internal/pending"
	"github.com/fllscore/ddzledger/internal/remote"
	"github.com/fllscore/ddzledger/internal/storage"
)

// Window is how long a submission stays reversible.
const Window = 60 * time.Second

// State of the coordinator's single tracked action.
type State int

const (
	// StateIdle: nothing to reverse.
	StateIdle State = iota
	// StateArmed: a countdown is running.
	StateArmed
	// StateReverted: the last action was undone.
	StateReverted
	// StateExpired: the window lapsed with no reversal.
	StateExpired
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateArmed:
		return "armed"
	case StateReverted:
		return "reverted"
	case StateExpired:
		return "expired"
	default:
		return "idle"
	}
}

// ErrNotArmed is returned when there is nothing to undo.
var ErrNotArmed = errors.New("no undoable submission")

// Action carries enough context to reverse one submission: the queue
// entry id when the write is still local-only, or the server-assigned
// timestamp when it was confirmed remotely.
type Action struct {
	Landlord      string    `json:"landlord"`
	Farmer1       string    `json:"farmer1"`
	Farmer2       string    `json:"farmer2"`
	LandlordScore int       `json:"landlordScore"`
	PendingID     string    `json:"pendingId,omitempty"`
	Timestamp     string    `json:"timestamp,omitempty"`
	ArmedAt       time.Time `json:"armedAt"`
}

// Local reports whether the write never left the local queue.
func (a Action) Local() bool {
	return a.PendingID != ""
}

// Deleter issues the remote delete-by-timestamp call.
// *remote.Client satisfies it.
type Deleter interface {
	DeleteLastGame(ctx context.Context, timestamp string) error
}

// Coordinator is the armed/reverted/expired state machine, driven by a
// single cancellable timer. Armed state is mirrored into the KV store
// so a short-lived process can arm in one invocation and revert in the
// next, window permitting.
type Coordinator struct {
	mu      sync.Mutex
	state   State
	action  Action
	timer   *time.Timer
	window  time.Duration
	queue   *pending.Queue
	deleter Deleter
	kv      storage.KV
	now     func() time.Time
	log     *slog.Logger
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithWindow overrides the undo window.
func WithWindow(d time.Duration) Option {
	return func(c *Coordinator) { c.window = d }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

// WithLogger overrides the logger.
func WithLogger(log *slog.Logger) Option {
	return func(c *Coordinator) { c.log = log }
}

// New creates a Coordinator.
func New(queue *pending.Queue, deleter Deleter, kv storage.KV, opts ...Option) *Coordinator {
	c := &Coordinator{
		state:   StateIdle,
		window:  Window,
		queue:   queue,
		deleter: deleter,
		kv:      kv,
		now:     time.Now,
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Arm starts the countdown for a fresh submission, cancelling and
// replacing any previously armed timer.
func (c *Coordinator) Arm(ctx context.Context, a Action) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopTimer()
	a.ArmedAt = c.now()
	c.action = a
	c.state = StateArmed
	c.timer = time.AfterFunc(c.window, c.expire)

	return c.persist(ctx)
}

// Restore re-arms from persisted state, resuming the remaining window.
// State that has already lapsed is dropped silently.
func (c *Coordinator) Restore(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	raw, ok, err := c.kv.Get(ctx, storage.KeyUndoState)
	if err != nil || !ok {
		return err
	}
	var a Action
	if err := json.Unmarshal([]byte(raw), &a); err != nil {
		return fmt.Errorf("decode undo state: %w", err)
	}

	remaining := c.window - c.now().Sub(a.ArmedAt)
	if remaining <= 0 {
		return c.kv.Delete(ctx, storage.KeyUndoState)
	}

	c.stopTimer()
	c.action = a
	c.state = StateArmed
	c.timer = time.AfterFunc(remaining, c.expire)
	return nil
}

// Undo reverses the armed submission. A still-local write is removed
// from the queue with no remote call; a confirmed write triggers a
// delete-by-timestamp. A retryable delete failure propagates and
// leaves the countdown armed so the user can retry; any other delete
// failure means the remote side most likely already processed the
// deletion and is reported as success.
func (c *Coordinator) Undo(ctx context.Context) (Action, error) {
	c.mu.Lock()
	if c.state != StateArmed {
		c.mu.Unlock()
		return Action{}, ErrNotArmed
	}
	a := c.action
	c.mu.Unlock()

	if a.Local() {
		if err := c.queue.Remove(ctx, a.PendingID); err != nil {
			return a, fmt.Errorf("remove pending submission: %w", err)
		}
	} else if a.Timestamp != "" {
		if err := c.deleter.DeleteLastGame(ctx, a.Timestamp); err != nil {
			if remote.IsRetryable(err) {
				return a, err
			}
			c.log.Warn("treating non-retryable delete failure as applied", "error", err)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopTimer()
	c.state = StateReverted
	if err := c.kv.Delete(ctx, storage.KeyUndoState); err != nil {
		return a, err
	}
	return a, nil
}

// Disarm drops the armed action without reversing anything.
func (c *Coordinator) Disarm(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateArmed {
		return nil
	}
	c.stopTimer()
	c.state = StateIdle
	return c.kv.Delete(ctx, storage.KeyUndoState)
}

// State returns the current state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Armed returns the tracked action while the countdown runs.
func (c *Coordinator) Armed() (Action, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateArmed {
		return Action{}, false
	}
	return c.action, true
}

// Remaining returns how much of the window is left, zero when idle.
func (c *Coordinator) Remaining() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateArmed {
		return 0
	}
	left := c.window - c.now().Sub(c.action.ArmedAt)
	if left < 0 {
		return 0
	}
	return left
}

// expire fires when the window lapses: disarm silently, no remote or
// local mutation.
func (c *Coordinator) expire() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateArmed {
		return
	}
	c.state = StateExpired
	c.timer = nil
	if err := c.kv.Delete(context.Background(), storage.KeyUndoState); err != nil {
		c.log.Error("failed to clear persisted undo state", "error", err)
	}
}

func (c *Coordinator) stopTimer() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *Coordinator) persist(ctx context.Context) error {
	raw, err := json.Marshal(c.action)
	if err != nil {
		return fmt.Errorf("encode undo state: %w", err)
	}
	return c.kv.Set(ctx, storage.KeyUndoState, string(raw))
}
