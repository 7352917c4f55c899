package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fllscore/ddzledger/internal/ledger"
	"github.com/fllscore/ddzledger/internal/overlay"
	"github.com/fllscore/ddzledger/internal/remote"
	"github.com/fllscore/ddzledger/internal/storage"
)

// HistoryView is one page of the ledger as presented to the user:
// server records enriched with roles and numbering, with any queued
// local submissions layered on top of the first page.
type HistoryView struct {
	Records []ledger.EnrichedGameRecord
	Players []string
	Total   int
	HasMore bool
	// FromCache marks a page served from the offline cache after a
	// failed fetch. Cached pages never claim more data is available.
	FromCache bool
}

// historyCache is the persisted first-page snapshot.
type historyCache struct {
	Players  []string                    `json:"players"`
	Total    int                         `json:"total"`
	Records  []ledger.EnrichedGameRecord `json:"records"`
	CachedAt string                      `json:"cachedAt"`
}

// History fetches one page of the remote ledger. The first page is
// written through to the offline cache and overlaid with pending
// submissions; on a fetch failure the cached first page is served
// instead.
func (s *Service) History(ctx context.Context, offset, limit int) (HistoryView, error) {
	page, err := s.client.History(ctx, offset, limit)
	if err != nil {
		if offset == 0 {
			if view, ok := s.cachedHistory(ctx); ok {
				s.log.Info("serving history from offline cache", "error", err)
				return view, nil
			}
		}
		return HistoryView{}, err
	}

	records := make([]ledger.EnrichedGameRecord, len(page.Data))
	for i, rec := range page.Data {
		records[i] = ledger.Enrich(rec, page.Total-offset-i)
	}

	view := HistoryView{
		Records: records,
		Players: page.Players,
		Total:   page.Total,
		HasMore: page.HasMore,
	}
	if offset != 0 {
		return view, nil
	}

	s.cacheHistory(ctx, view)
	return s.overlayHistory(ctx, view)
}

// Round returns the current round: the leading run of merged records
// separated by no more than the configured gap.
func (s *Service) Round(ctx context.Context) ([]ledger.EnrichedGameRecord, error) {
	view, err := s.History(ctx, 0, 50)
	if err != nil {
		return nil, err
	}
	round := ledger.FilterRound(view.Records, s.roundGap)
	for i := range round {
		round[i].IsCurrentRound = true
	}
	return round, nil
}

func (s *Service) overlayHistory(ctx context.Context, view HistoryView) (HistoryView, error) {
	queued, err := s.queue.List(ctx)
	if err != nil {
		return HistoryView{}, fmt.Errorf("read pending queue: %w", err)
	}
	view.Records = overlay.MergeHistory(view.Records, queued)
	view.Total += len(queued)
	return view, nil
}

func (s *Service) cacheHistory(ctx context.Context, view HistoryView) {
	records := view.Records
	if len(records) > s.cacheLimit {
		records = records[:s.cacheLimit]
	}
	raw, err := json.Marshal(historyCache{
		Players:  view.Players,
		Total:    view.Total,
		Records:  records,
		CachedAt: s.now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		s.log.Warn("failed to encode history cache", "error", err)
		return
	}
	if err := s.kv.Set(ctx, storage.KeyHistoryCache, string(raw)); err != nil {
		s.log.Warn("failed to write history cache", "error", err)
	}
}

func (s *Service) cachedHistory(ctx context.Context) (HistoryView, bool) {
	raw, ok, err := s.kv.Get(ctx, storage.KeyHistoryCache)
	if err != nil || !ok {
		return HistoryView{}, false
	}
	var cached historyCache
	if err := json.Unmarshal([]byte(raw), &cached); err != nil {
		return HistoryView{}, false
	}
	view := HistoryView{
		Records:   cached.Records,
		Players:   cached.Players,
		Total:     cached.Total,
		FromCache: true,
	}
	view, err = s.overlayHistory(ctx, view)
	if err != nil {
		return HistoryView{}, false
	}
	return view, true
}

// StatsView is the aggregate stats for one range, with queued local
// submissions folded in.
type StatsView struct {
	Rows      []ledger.PlayerStats
	FromCache bool
}

// Stats fetches the aggregate stats for a range, caching per range and
// falling back to the cache on a failed fetch. Queued submissions are
// folded into the totals either way.
func (s *Service) Stats(ctx context.Context, rng string) (StatsView, error) {
	rows, err := s.client.Stats(ctx, rng)
	if err != nil {
		cached, ok := s.cachedStats(ctx, rng)
		if !ok {
			return StatsView{}, err
		}
		s.log.Info("serving stats from offline cache", "range", rng, "error", err)
		rows = cached
		return s.overlayStats(ctx, rows, true)
	}

	if raw, err := json.Marshal(rows); err == nil {
		if err := s.kv.Set(ctx, storage.StatsCacheKey(rng), string(raw)); err != nil {
			s.log.Warn("failed to write stats cache", "range", rng, "error", err)
		}
	}
	return s.overlayStats(ctx, rows, false)
}

func (s *Service) overlayStats(ctx context.Context, rows []ledger.PlayerStats, fromCache bool) (StatsView, error) {
	queued, err := s.queue.List(ctx)
	if err != nil {
		return StatsView{}, fmt.Errorf("read pending queue: %w", err)
	}
	return StatsView{Rows: overlay.OverlayStats(rows, queued), FromCache: fromCache}, nil
}

func (s *Service) cachedStats(ctx context.Context, rng string) ([]ledger.PlayerStats, bool) {
	raw, ok, err := s.kv.Get(ctx, storage.StatsCacheKey(rng))
	if err != nil || !ok {
		return nil, false
	}
	var rows []ledger.PlayerStats
	if err := json.Unmarshal([]byte(raw), &rows); err != nil {
		return nil, false
	}
	return rows, true
}

// Params fetches the shared roster and score options, caching on
// success and falling back to the cache on failure.
func (s *Service) Params(ctx context.Context) (remote.Params, bool, error) {
	params, err := s.client.Params(ctx)
	if err != nil {
		raw, ok, kvErr := s.kv.Get(ctx, storage.KeyParamsCache)
		if kvErr == nil && ok {
			var cached remote.Params
			if json.Unmarshal([]byte(raw), &cached) == nil {
				s.log.Info("serving params from offline cache", "error", err)
				return cached, true, nil
			}
		}
		return remote.Params{}, false, err
	}

	if raw, err := json.Marshal(params); err == nil {
		if err := s.kv.Set(ctx, storage.KeyParamsCache, string(raw)); err != nil {
			s.log.Warn("failed to write params cache", "error", err)
		}
	}
	return params, false, nil
}
