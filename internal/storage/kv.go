package storage

import "context"

// KV is a string key-value store. Implementations must make each
// operation individually durable; callers must not assume atomicity
// across multiple operations.
type KV interface {
	// Get returns the value for key and whether it exists.
	Get(ctx context.Context, key string) (string, bool, error)
	// Set writes key to value, replacing any previous value.
	Set(ctx context.Context, key, value string) error
	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}

// Well-known keys. Every piece of persisted local state lives under one
// of these so a force-reset can enumerate them.
const (
	KeyPendingQueue = "pending_queue"
	KeyHistoryCache = "history_cache"
	KeyParamsCache  = "params_cache"
	KeyStatsCache   = "stats_cache" // suffixed with ":<range>"
	KeyLastCombo    = "last_player_combo"
	KeySettings     = "settings"
	KeyAuthSession  = "auth_session"
	KeyUndoState    = "undo_state"
)

// StatsCacheKey returns the cache key for one stats range.
func StatsCacheKey(rng string) string {
	return KeyStatsCache + ":" + rng
}
