package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fllscore/ddzledger/internal/ledger"
	"github.com/fllscore/ddzledger/internal/storage"
)

// LastCombo returns the seating of the most recent submission, for
// pre-filling the next one.
func (s *Service) LastCombo(ctx context.Context) (ledger.PlayerCombo, bool, error) {
	raw, ok, err := s.kv.Get(ctx, storage.KeyLastCombo)
	if err != nil || !ok {
		return ledger.PlayerCombo{}, false, err
	}
	var combo ledger.PlayerCombo
	if err := json.Unmarshal([]byte(raw), &combo); err != nil {
		return ledger.PlayerCombo{}, false, fmt.Errorf("decode player combo: %w", err)
	}
	return combo, true, nil
}

func (s *Service) saveLastCombo(ctx context.Context, combo ledger.PlayerCombo) error {
	raw, err := json.Marshal(combo)
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, storage.KeyLastCombo, string(raw))
}

// Settings returns the opaque user settings payload.
func (s *Service) Settings(ctx context.Context) (string, bool, error) {
	return s.kv.Get(ctx, storage.KeySettings)
}

// SaveSettings stores the opaque user settings payload as-is.
func (s *Service) SaveSettings(ctx context.Context, raw string) error {
	if !json.Valid([]byte(raw)) {
		return fmt.Errorf("settings payload is not valid JSON")
	}
	return s.kv.Set(ctx, storage.KeySettings, raw)
}
