// Package session caches the verified identity and role so the client
// does not re-check access on every start. The cache is the system's
// single forced-logout lever: any component that sees an
// authentication or authorization error clears it.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fllscore/ddzledger/internal/storage"
)

// TTL is how long a verified session stays valid without re-checking.
const TTL = 24 * time.Hour

// StatusAuthorized is the only status a valid session carries.
const StatusAuthorized = "authorized"

// Session is the cached identity. Mutated only as a whole:
// replace on Save, drop on Clear, never patched field by field.
type Session struct {
	Email      string `json:"email"`
	Role       string `json:"role"`
	Status     string `json:"status"`
	VerifiedAt int64  `json:"verifiedAtEpochMs"`
}

// Cache persists the session in the local KV store.
type Cache struct {
	kv  storage.KV
	ttl time.Duration
	now func() time.Time
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithTTL overrides the session lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) { c.ttl = ttl }
}

// NewCache creates a session cache over the given store.
func NewCache(kv storage.KV, opts ...Option) *Cache {
	c := &Cache{kv: kv, ttl: TTL, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the stored session and whether one exists. Existence does
// not imply validity; use IsValid for that.
func (c *Cache) Get(ctx context.Context) (Session, bool, error) {
	raw, ok, err := c.kv.Get(ctx, storage.KeyAuthSession)
	if err != nil || !ok {
		return Session{}, false, err
	}
	var s Session
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return Session{}, false, fmt.Errorf("decode session: %w", err)
	}
	return s, true, nil
}

// Save stores a freshly verified identity, resetting the verification
// clock. An empty role defaults to "editor" to match the remote
// endpoint's default grant.
func (c *Cache) Save(ctx context.Context, email, role string) error {
	if role == "" {
		role = "editor"
	}
	s := Session{
		Email:      email,
		Role:       role,
		Status:     StatusAuthorized,
		VerifiedAt: c.now().UnixMilli(),
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	return c.kv.Set(ctx, storage.KeyAuthSession, string(raw))
}

// Clear drops the session. Called on explicit logout and whenever the
// server reports an authentication or authorization failure.
func (c *Cache) Clear(ctx context.Context) error {
	return c.kv.Delete(ctx, storage.KeyAuthSession)
}

// IsValid reports whether a session exists, is authorized, and has not
// outlived the TTL.
func (c *Cache) IsValid(ctx context.Context) bool {
	s, ok, err := c.Get(ctx)
	if err != nil || !ok {
		return false
	}
	if s.Status != StatusAuthorized || s.Email == "" {
		return false
	}
	elapsed := c.now().UnixMilli() - s.VerifiedAt
	return elapsed < c.ttl.Milliseconds()
}

// Email returns the cached identity, or "" when no valid session
// exists.
func (c *Cache) Email(ctx context.Context) string {
	if !c.IsValid(ctx) {
		return ""
	}
	s, _, _ := c.Get(ctx)
	return s.Email
}
