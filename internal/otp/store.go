// Package otp implements the short-lived one-time-passcode store and the
// pluggable delivery backends used for login.
//
// Codes are single-use and expire after a configurable TTL. There is no
// attempt counter: a caller may retry a wrong code until the record expires.
// Known hardening gap carried over from the original design.
package otp

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"time"

	"github.com/fooddash/api/internal/clock"
	"github.com/fooddash/api/internal/shardmap"
)

const codeDigits = 1000000

type record struct {
	code      string
	expiresAt time.Time
}

// Store holds active codes keyed by identifier. One active code per
// identifier; issuing again overwrites the previous one.
type Store struct {
	records *shardmap.Map[record]
	clock   clock.Clock
	ttl     time.Duration
}

const defaultTTL = 5 * time.Minute

type StoreOption func(*Store)

// WithTTL overrides the default code lifetime.
func WithTTL(d time.Duration) StoreOption {
	return func(s *Store) {
		if d > 0 {
			s.ttl = d
		}
	}
}

func NewStore(clk clock.Clock, opts ...StoreOption) *Store {
	s := &Store{
		records: shardmap.New[record](),
		clock:   clk,
		ttl:     defaultTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Issue generates a fresh 6-digit code for identifier and stores it with an
// absolute expiry. Any previously issued code for the identifier is silently
// invalidated.
func (s *Store) Issue(identifier string) (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeDigits))
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	code := fmt.Sprintf("%06d", n.Int64())

	s.records.Set(identifier, record{
		code:      code,
		expiresAt: s.clock.Now().Add(s.ttl),
	})
	return code, nil
}

// TTL returns the configured code lifetime.
func (s *Store) TTL() time.Duration {
	return s.ttl
}

// Consume returns true and deletes the record iff a code exists for
// identifier, has not expired, and candidate matches it. Expired records are
// deleted on the failing read. Missing, expired and mismatched codes are
// indistinguishable to the caller.
func (s *Store) Consume(identifier, candidate string) bool {
	now := s.clock.Now()
	matched := false

	s.records.Update(identifier, func(cur record, exists bool) (record, bool) {
		if !exists {
			return cur, false
		}
		if cur.expiresAt.Before(now) {
			return cur, false
		}
		if subtle.ConstantTimeCompare([]byte(cur.code), []byte(candidate)) != 1 {
			return cur, true
		}
		matched = true
		return cur, false
	})

	return matched
}
