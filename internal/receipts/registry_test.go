package receipts

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

func TestIssueProducesUUIDv4(t *testing.T) {
	r := New(200 * time.Second)
	rc := r.Issue([]uint64{0, 1}, t0)

	parsed, err := uuid.Parse(rc.Token)
	require.NoError(t, err)
	require.Equal(t, uuid.Version(4), parsed.Version())
	require.Equal(t, []uint64{0, 1}, rc.EntryIDs)
	require.Equal(t, t0.Add(200*time.Second), rc.ExpiresAt)
}

func TestRedeemOnce(t *testing.T) {
	r := New(time.Minute)
	rc := r.Issue([]uint64{3}, t0)

	var got Receipt
	require.NoError(t, r.Redeem(rc.Token, t0, func(x Receipt) error { got = x; return nil }))
	require.Equal(t, rc.EntryIDs, got.EntryIDs)

	err := r.Redeem(rc.Token, t0, func(Receipt) error { t.Fatal("callback on redeemed token"); return nil })
	require.ErrorIs(t, err, ErrUnknownReceipt)
}

func TestRedeemUnknown(t *testing.T) {
	r := New(time.Minute)
	require.ErrorIs(t, r.Redeem("nope", t0, func(Receipt) error { return nil }), ErrUnknownReceipt)
}

func TestExpiryBoundary(t *testing.T) {
	r := New(time.Minute)
	atDeadline := r.Issue([]uint64{1}, t0)
	late := r.Issue([]uint64{2}, t0)

	require.NoError(t, r.Redeem(atDeadline.Token, t0.Add(time.Minute), func(Receipt) error { return nil }))

	err := r.Redeem(late.Token, t0.Add(time.Minute+time.Nanosecond), func(Receipt) error {
		t.Fatal("callback on expired token")
		return nil
	})
	require.ErrorIs(t, err, ErrExpiredReceipt)
	require.Equal(t, Stats{Active: 0, Expired: 1}, r.Stats(t0.Add(2*time.Minute)))
}

func TestCallbackErrorKeepsReceipt(t *testing.T) {
	r := New(time.Minute)
	rc := r.Issue([]uint64{1}, t0)
	boom := errors.New("disk on fire")

	require.ErrorIs(t, r.Redeem(rc.Token, t0, func(Receipt) error { return boom }), boom)
	require.NoError(t, r.Redeem(rc.Token, t0, func(Receipt) error { return nil }))
}

func TestInconsistentStateInvalidates(t *testing.T) {
	r := New(time.Minute)
	rc := r.Issue([]uint64{1}, t0)

	err := r.Redeem(rc.Token, t0, func(Receipt) error {
		return fmt.Errorf("remove: %w", ErrInconsistentState)
	})
	require.ErrorIs(t, err, ErrInconsistentState)
	require.ErrorIs(t, r.Redeem(rc.Token, t0, func(Receipt) error { return nil }), ErrUnknownReceipt)
}

func TestTokenCollisionRetries(t *testing.T) {
	tokens := []string{"a", "a", "b"}
	var i int
	r := New(time.Minute, WithTokenSource(func() string { s := tokens[i]; i++; return s }))
	first := r.Issue([]uint64{1}, t0)
	second := r.Issue([]uint64{2}, t0)
	require.Equal(t, "a", first.Token)
	require.Equal(t, "b", second.Token)
}

func TestActiveOrderedByIssue(t *testing.T) {
	r := New(time.Minute)
	a := r.Issue([]uint64{1}, t0)
	b := r.Issue([]uint64{2}, t0.Add(time.Second))
	got := r.Active(t0.Add(2 * time.Second))
	require.Len(t, got, 2)
	require.Equal(t, a.Token, got[0].Token)
	require.Equal(t, b.Token, got[1].Token)
}

func TestConcurrentRedeemSucceedsOnce(t *testing.T) {
	r := New(time.Minute)
	rc := r.Issue([]uint64{1, 2}, t0)

	var ok atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if r.Redeem(rc.Token, t0, func(Receipt) error { return nil }) == nil {
				ok.Add(1)
			}
		}()
	}
	wg.Wait()
	require.Equal(t, int32(1), ok.Load())
}
