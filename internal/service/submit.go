package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fllscore/ddzledger/internal/ledger"
	"github.com/fllscore/ddzledger/internal/remote"
	"github.com/fllscore/ddzledger/internal/undo"
)

// ErrInvalidPlayers is returned when the three seats are not distinct
// non-empty names.
var ErrInvalidPlayers = errors.New("landlord and farmers must be three distinct players")

// SubmitOutcome describes where a submission landed.
type SubmitOutcome struct {
	// Queued is true when the write is buffered locally, waiting for a
	// sync pass.
	Queued bool
	// Timestamp is the server-assigned timestamp of a confirmed write.
	Timestamp string
	// PendingID identifies the queue entry of a buffered write.
	PendingID string
	// ValidationWarning marks a confirmed write whose response carried
	// the benign validation complaint.
	ValidationWarning bool
}

// SubmitGame records one game. With a valid session it submits
// directly and falls back to the local queue on a retryable failure;
// without one it queues immediately. Either way the undo window is
// armed and the seating is saved for pre-filling the next submission.
func (s *Service) SubmitGame(ctx context.Context, landlord, farmer1, farmer2 string, landlordScore int) (SubmitOutcome, error) {
	if landlord == "" || farmer1 == "" || farmer2 == "" ||
		landlord == farmer1 || landlord == farmer2 || farmer1 == farmer2 {
		return SubmitOutcome{}, ErrInvalidPlayers
	}

	if err := s.saveLastCombo(ctx, ledger.PlayerCombo{Landlord: landlord, Farmer1: farmer1, Farmer2: farmer2}); err != nil {
		s.log.Warn("failed to save player combo", "error", err)
	}

	if !s.sess.IsValid(ctx) {
		return s.queueSubmission(ctx, landlord, farmer1, farmer2, landlordScore)
	}

	clientTS := s.now().UTC().Format(time.RFC3339)
	res, err := s.client.Submit(ctx, landlord, farmer1, farmer2, landlordScore, clientTS)
	if err != nil {
		if remote.IsRetryable(err) {
			s.log.Info("direct submit failed, buffering locally", "error", err)
			return s.queueSubmission(ctx, landlord, farmer1, farmer2, landlordScore)
		}
		return SubmitOutcome{}, err
	}

	ts := res.Timestamp
	if ts == "" {
		// The opaque-body redirect and the benign validation warning
		// both eat the server timestamp; recover it from the newest
		// history record so the write stays undoable.
		ts = s.recoverTimestamp(ctx)
	}
	if ts != "" {
		err := s.undo.Arm(ctx, undo.Action{
			Landlord:      landlord,
			Farmer1:       farmer1,
			Farmer2:       farmer2,
			LandlordScore: landlordScore,
			Timestamp:     ts,
		})
		if err != nil {
			s.log.Warn("failed to arm undo window", "error", err)
		}
	}
	return SubmitOutcome{Timestamp: ts, ValidationWarning: res.ValidationWarning}, nil
}

func (s *Service) queueSubmission(ctx context.Context, landlord, farmer1, farmer2 string, landlordScore int) (SubmitOutcome, error) {
	entry, err := s.queue.Add(ctx, landlord, farmer1, farmer2, landlordScore)
	if err != nil {
		return SubmitOutcome{}, fmt.Errorf("buffer submission: %w", err)
	}
	err = s.undo.Arm(ctx, undo.Action{
		Landlord:      landlord,
		Farmer1:       farmer1,
		Farmer2:       farmer2,
		LandlordScore: landlordScore,
		PendingID:     entry.ID,
	})
	if err != nil {
		s.log.Warn("failed to arm undo window", "error", err)
	}
	return SubmitOutcome{Queued: true, PendingID: entry.ID}, nil
}

// recoverTimestamp fetches the newest history record on a best-effort
// basis. An empty result only degrades undo for this submission.
func (s *Service) recoverTimestamp(ctx context.Context) string {
	page, err := s.client.History(ctx, 0, 1)
	if err != nil || len(page.Data) == 0 {
		s.log.Warn("could not recover server timestamp", "error", err)
		return ""
	}
	return page.Data[0].Timestamp
}
