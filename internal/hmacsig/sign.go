// Package hmacsig derives the authentication envelope every outbound
// RPC call carries. The server verifies calls statelessly: the keyed
// MAC proves knowledge of the pre-shared secret, the coarse timestamp
// bounds the replay window, and the per-call nonce defeats replay of an
// identical envelope within the same second.
package hmacsig

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"strconv"
	"time"
)

// NonceLength is the fixed length of the anti-replay nonce.
const NonceLength = 16

const nonceAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// Envelope is the per-call authentication material. Constructed fresh
// for every call, never stored.
type Envelope struct {
	Signature string
	Timestamp string // unix seconds, decimal
	Nonce     string
}

// Signer produces envelopes for a fixed pre-shared secret.
type Signer struct {
	secret []byte
	now    func() time.Time
	rand   io.Reader
}

// Option configures a Signer. Used by tests to pin time and randomness.
type Option func(*Signer)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Signer) { s.now = now }
}

// WithRand overrides the randomness source for nonce generation.
func WithRand(r io.Reader) Option {
	return func(s *Signer) { s.rand = r }
}

// New creates a Signer for the given secret.
func New(secret string, opts ...Option) *Signer {
	s := &Signer{
		secret: []byte(secret),
		now:    time.Now,
		rand:   rand.Reader,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sign computes the envelope for one call. The MAC covers the
// concatenation timestamp+nonce+action+identity, in that order.
//
// When no secret is configured, or nonce generation fails, the
// signature comes back empty: the call proceeds and fails server-side
// verification as a normal authentication error rather than a local
// crash.
func (s *Signer) Sign(action, identity string) Envelope {
	ts := strconv.FormatInt(s.now().Unix(), 10)
	nonce, err := s.generateNonce()
	if err != nil || len(s.secret) == 0 {
		return Envelope{Timestamp: ts, Nonce: nonce}
	}

	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(ts + nonce + action + identity))
	return Envelope{
		Signature: hex.EncodeToString(mac.Sum(nil)),
		Timestamp: ts,
		Nonce:     nonce,
	}
}

func (s *Signer) generateNonce() (string, error) {
	buf := make([]byte, NonceLength)
	if _, err := io.ReadFull(s.rand, buf); err != nil {
		return "", err
	}
	out := make([]byte, NonceLength)
	for i, b := range buf {
		out[i] = nonceAlphabet[int(b)%len(nonceAlphabet)]
	}
	return string(out), nil
}
