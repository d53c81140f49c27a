package entrystore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	pebblestore "github.com/dpa-newslab/dpa-digitalwires-wireq-example/internal/storage/pebble"
)

func openTestStore(t *testing.T, n int) *Store {
	t.Helper()
	db, err := pebblestore.Open(pebblestore.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	s, err := Open(db, nil)
	require.NoError(t, err)
	if n > 0 {
		payloads := make([]json.RawMessage, n)
		for i := range payloads {
			payloads[i] = json.RawMessage(fmt.Sprintf(`{"n":%d}`, i))
		}
		_, err := s.Append(context.Background(), payloads)
		require.NoError(t, err)
	}
	return s
}

func seqsOf(entries []Entry) []uint64 {
	out := make([]uint64, len(entries))
	for i, e := range entries {
		out[i] = e.Sequence
	}
	return out
}

func TestAppendAssignsSequencesFromZero(t *testing.T) {
	s := openTestStore(t, 0)
	ctx := context.Background()

	seqs, err := s.Append(ctx, []json.RawMessage{json.RawMessage(`1`), json.RawMessage(`2`)})
	require.NoError(t, err)
	require.Equal(t, []uint64{0, 1}, seqs)

	seqs, err = s.Append(ctx, []json.RawMessage{json.RawMessage(`3`)})
	require.NoError(t, err)
	require.Equal(t, []uint64{2}, seqs)

	require.Equal(t, Stats{Pending: 3, NextSequence: 3}, s.Stats())
}

func TestTakeNextRemoveBatches(t *testing.T) {
	s := openTestStore(t, 5)
	ctx := context.Background()

	want := []struct {
		seqs    []uint64
		hasMore bool
	}{
		{[]uint64{0, 1}, true},
		{[]uint64{2, 3}, true},
		{[]uint64{4}, false},
		{[]uint64{}, false},
	}
	for i, w := range want {
		entries, hasMore, err := s.TakeNext(ctx, 2, ModeRemove)
		require.NoError(t, err)
		require.Equal(t, w.seqs, append([]uint64{}, seqsOf(entries)...), "call %d", i)
		require.Equal(t, w.hasMore, hasMore, "call %d", i)
	}
	require.Equal(t, Stats{Removed: 5, NextSequence: 5}, s.Stats())
}

func TestTakeNextKeepsPayload(t *testing.T) {
	s := openTestStore(t, 1)
	entries, _, err := s.TakeNext(context.Background(), 10, ModeRemove)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.JSONEq(t, `{"n":0}`, string(entries[0].Payload))
}

func TestTakeNextNonPositive(t *testing.T) {
	s := openTestStore(t, 2)
	entries, hasMore, err := s.TakeNext(context.Background(), 0, ModeHold)
	require.NoError(t, err)
	require.Empty(t, entries)
	require.True(t, hasMore)
	require.Equal(t, 2, s.Stats().Pending)
}

func TestHoldThenRemove(t *testing.T) {
	s := openTestStore(t, 3)
	ctx := context.Background()

	held, hasMore, err := s.TakeNext(ctx, 2, ModeHold)
	require.NoError(t, err)
	require.True(t, hasMore)
	require.Equal(t, []uint64{0, 1}, seqsOf(held))

	_, state, err := s.Lookup(0)
	require.NoError(t, err)
	require.Equal(t, StateHeld, state)

	// Held entries are not offered again.
	next, hasMore, err := s.TakeNext(ctx, 2, ModeHold)
	require.NoError(t, err)
	require.False(t, hasMore)
	require.Equal(t, []uint64{2}, seqsOf(next))

	require.NoError(t, s.Remove(ctx, []uint64{0, 1}))
	_, state, err = s.Lookup(1)
	require.NoError(t, err)
	require.Equal(t, StateRemoved, state)
	require.Equal(t, Stats{Held: 1, Removed: 2, NextSequence: 3}, s.Stats())
}

func TestRemoveIsAllOrNothing(t *testing.T) {
	s := openTestStore(t, 3)
	ctx := context.Background()

	_, _, err := s.TakeNext(ctx, 2, ModeHold)
	require.NoError(t, err)

	// 2 is still Pending, so the whole call fails.
	err = s.Remove(ctx, []uint64{0, 2})
	require.ErrorIs(t, err, ErrUnknownEntry)
	_, state, err := s.Lookup(0)
	require.NoError(t, err)
	require.Equal(t, StateHeld, state)

	require.NoError(t, s.Remove(ctx, []uint64{0, 1}))
	require.ErrorIs(t, s.Remove(ctx, []uint64{0}), ErrUnknownEntry)
}

func TestLookupUnassigned(t *testing.T) {
	s := openTestStore(t, 1)
	_, _, err := s.Lookup(5)
	require.True(t, errors.Is(err, ErrUnknownEntry))
}

func TestReopenRestoresCounters(t *testing.T) {
	db, err := pebblestore.Open(pebblestore.Options{})
	require.NoError(t, err)
	defer db.Close()
	ctx := context.Background()

	s, err := Open(db, nil)
	require.NoError(t, err)
	_, err = s.Append(ctx, []json.RawMessage{json.RawMessage(`1`), json.RawMessage(`2`), json.RawMessage(`3`)})
	require.NoError(t, err)
	_, _, err = s.TakeNext(ctx, 1, ModeHold)
	require.NoError(t, err)

	again, err := Open(db, nil)
	require.NoError(t, err)
	st := again.Stats()
	require.Equal(t, 2, st.Pending)
	require.Equal(t, 1, st.Held)
	require.Equal(t, uint64(3), st.NextSequence)
}

func TestConcurrentTakeNeverOverlaps(t *testing.T) {
	const total = 500
	s := openTestStore(t, total)
	ctx := context.Background()

	var (
		mu   sync.Mutex
		seen []uint64
		wg   sync.WaitGroup
	)
	for w := 0; w < 8; w++ {
		mode := ModeRemove
		if w%2 == 1 {
			mode = ModeHold
		}
		wg.Add(1)
		go func(mode Mode) {
			defer wg.Done()
			for {
				entries, _, err := s.TakeNext(ctx, 7, mode)
				if err != nil {
					t.Errorf("take: %v", err)
					return
				}
				if len(entries) == 0 {
					return
				}
				got := seqsOf(entries)
				if !sort.SliceIsSorted(got, func(i, j int) bool { return got[i] < got[j] }) {
					t.Errorf("batch not ordered: %v", got)
				}
				mu.Lock()
				seen = append(seen, got...)
				mu.Unlock()
			}
		}(mode)
	}
	wg.Wait()

	require.Len(t, seen, total)
	unique := make(map[uint64]struct{}, total)
	for _, seq := range seen {
		unique[seq] = struct{}{}
	}
	require.Len(t, unique, total, "duplicate sequences delivered")
}
