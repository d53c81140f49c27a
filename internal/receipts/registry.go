// Package receipts tracks the receipts handed out by GET requests.
//
// A receipt authorizes exactly one successful DELETE of the entry set it was
// issued for. Expiry is lazy: every registry call first moves receipts past
// their deadline to a tombstone set, so a late DELETE can be told apart from
// a token that was never issued. There is no background sweeper.
package receipts

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrUnknownReceipt is returned for tokens that were never issued or were
	// already redeemed.
	ErrUnknownReceipt = errors.New("unknown receipt")
	// ErrExpiredReceipt is returned for tokens past their lifetime.
	ErrExpiredReceipt = errors.New("receipt expired")
	// ErrInconsistentState marks a receipt whose entries can no longer be
	// removed. Returning it from a redeem callback invalidates the receipt.
	ErrInconsistentState = errors.New("inconsistent state")
)

// Receipt is a time-bounded claim on a set of held entries.
type Receipt struct {
	Token     string    `json:"token"`
	EntryIDs  []uint64  `json:"entryIds"`
	IssuedAt  time.Time `json:"issuedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Expired reports whether now is past the receipt's deadline. A receipt is
// still valid at exactly ExpiresAt.
func (r Receipt) Expired(now time.Time) bool { return now.After(r.ExpiresAt) }

// Stats counts live receipts and expiry tombstones.
type Stats struct {
	Active  int `json:"active"`
	Expired int `json:"expired"`
}

// Option configures a Registry.
type Option func(*Registry)

// WithTokenSource replaces the UUID v4 token generator.
func WithTokenSource(fn func() string) Option {
	return func(r *Registry) { r.newToken = fn }
}

// Registry is safe for concurrent use.
type Registry struct {
	lifetime time.Duration
	newToken func() string

	mu      sync.Mutex
	active  map[string]Receipt
	expired map[string]time.Time
}

// New returns a Registry issuing receipts valid for lifetime.
func New(lifetime time.Duration, opts ...Option) *Registry {
	r := &Registry{
		lifetime: lifetime,
		newToken: uuid.NewString,
		active:   make(map[string]Receipt),
		expired:  make(map[string]time.Time),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Lifetime returns the configured receipt lifetime.
func (r *Registry) Lifetime() time.Duration { return r.lifetime }

// sweepLocked moves receipts past their deadline to the tombstone set.
func (r *Registry) sweepLocked(now time.Time) {
	for token, rc := range r.active {
		if rc.Expired(now) {
			delete(r.active, token)
			r.expired[token] = rc.ExpiresAt
		}
	}
}

// Issue registers a receipt covering ids.
func (r *Registry) Issue(ids []uint64, now time.Time) Receipt {
	rc := Receipt{
		EntryIDs:  append([]uint64(nil), ids...),
		IssuedAt:  now,
		ExpiresAt: now.Add(r.lifetime),
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.sweepLocked(now)
	for {
		rc.Token = r.newToken()
		_, live := r.active[rc.Token]
		_, dead := r.expired[rc.Token]
		if !live && !dead {
			break
		}
	}
	r.active[rc.Token] = rc
	return rc
}

// Redeem looks up token and, while holding the registry lock, calls fn with
// the receipt. The receipt is invalidated when fn returns nil or an error
// wrapping ErrInconsistentState; any other error leaves it redeemable.
// fn is not called for unknown or expired tokens.
func (r *Registry) Redeem(token string, now time.Time, fn func(Receipt) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sweepLocked(now)

	rc, ok := r.active[token]
	if !ok {
		if _, dead := r.expired[token]; dead {
			return ErrExpiredReceipt
		}
		return ErrUnknownReceipt
	}
	err := fn(rc)
	if err == nil || errors.Is(err, ErrInconsistentState) {
		delete(r.active, token)
	}
	return err
}

// Active returns the live receipts ordered by issue time.
func (r *Registry) Active(now time.Time) []Receipt {
	r.mu.Lock()
	r.sweepLocked(now)
	out := make([]Receipt, 0, len(r.active))
	for _, rc := range r.active {
		out = append(out, rc)
	}
	r.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].IssuedAt.Before(out[j].IssuedAt) })
	return out
}

// Stats returns receipt counts as of now.
func (r *Registry) Stats(now time.Time) Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sweepLocked(now)
	return Stats{Active: len(r.active), Expired: len(r.expired)}
}
