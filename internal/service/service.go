// Package service composes the client, queue, caches, and undo
// coordinator into the operations the CLI exposes: submit with offline
// fallback, cached reads, login, and queue management.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/fllscore/ddzledger/internal/ledger"
	"github.com/fllscore/ddzledger/internal/pending"
	"github.com/fllscore/ddzledger/internal/remote"
	"github.com/fllscore/ddzledger/internal/session"
	"github.com/fllscore/ddzledger/internal/storage"
	"github.com/fllscore/ddzledger/internal/undo"
)

// historyCacheLimit caps how many first-page records the offline cache
// retains.
const historyCacheLimit = 200

// Service is the composition layer over the remote client and the
// local stores.
type Service struct {
	client *remote.Client
	sess   *session.Cache
	queue  *pending.Queue
	undo   *undo.Coordinator
	kv     storage.KV
	log    *slog.Logger
	now    func() time.Time

	roundGap   time.Duration
	cacheLimit int
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLogger overrides the logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Service) { s.log = log }
}

// WithRoundGap overrides the timestamp gap that splits rounds.
func WithRoundGap(gap time.Duration) Option {
	return func(s *Service) { s.roundGap = gap }
}

// New creates a Service.
func New(client *remote.Client, sess *session.Cache, queue *pending.Queue, coord *undo.Coordinator, kv storage.KV, opts ...Option) *Service {
	s := &Service{
		client:     client,
		sess:       sess,
		queue:      queue,
		undo:       coord,
		kv:         kv,
		log:        slog.Default(),
		now:        time.Now,
		roundGap:   ledger.RoundGapTight,
		cacheLimit: historyCacheLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Login verifies the email against the remote access list and caches
// the resulting session.
func (s *Service) Login(ctx context.Context, email string) (session.Session, error) {
	res, err := s.client.CheckAccess(ctx, email)
	if err != nil {
		return session.Session{}, fmt.Errorf("verify access: %w", err)
	}
	if !res.HasAccess {
		return session.Session{}, &remote.APIError{
			Code:    remote.CodeAccessDenied,
			Message: email + " is not on the access list",
		}
	}
	if err := s.sess.Save(ctx, email, res.Role); err != nil {
		return session.Session{}, fmt.Errorf("cache session: %w", err)
	}
	sess, _, err := s.sess.Get(ctx)
	return sess, err
}

// Logout clears the cached session. Pending writes stay queued.
func (s *Service) Logout(ctx context.Context) error {
	return s.sess.Clear(ctx)
}

// Session returns the cached session when it is still valid.
func (s *Service) Session(ctx context.Context) (session.Session, bool) {
	if !s.sess.IsValid(ctx) {
		return session.Session{}, false
	}
	sess, ok, err := s.sess.Get(ctx)
	if err != nil || !ok {
		return session.Session{}, false
	}
	return sess, true
}

// Undo reverses the most recent submission, if its window is open.
func (s *Service) Undo(ctx context.Context) (undo.Action, error) {
	return s.undo.Undo(ctx)
}

// UndoState reports the armed action and remaining window, if any.
func (s *Service) UndoState() (undo.Action, time.Duration, bool) {
	a, ok := s.undo.Armed()
	if !ok {
		return undo.Action{}, 0, false
	}
	return a, s.undo.Remaining(), true
}

// Pending lists the queued unconfirmed submissions in insertion order.
func (s *Service) Pending(ctx context.Context) ([]ledger.PendingSubmission, error) {
	return s.queue.List(ctx)
}

// PendingCount reports the queue depth.
func (s *Service) PendingCount(ctx context.Context) (int, error) {
	return s.queue.Len(ctx)
}

// ClearPending drops every queued submission without syncing. The undo
// state is disarmed alongside because a queued action it references no
// longer exists.
func (s *Service) ClearPending(ctx context.Context) error {
	if err := s.queue.Clear(ctx); err != nil {
		return err
	}
	return s.undo.Disarm(ctx)
}
