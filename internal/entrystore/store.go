package entrystore

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	pebblestore "github.com/dpa-newslab/dpa-digitalwires-wireq-example/internal/storage/pebble"
	logpkg "github.com/dpa-newslab/dpa-digitalwires-wireq-example/pkg/log"
)

// ErrUnknownEntry is returned by Remove when an id is not currently Held.
var ErrUnknownEntry = errors.New("entrystore: unknown entry")

// State is the lifecycle state of an entry.
type State uint8

const (
	StatePending State = iota + 1
	StateHeld
	StateRemoved
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateHeld:
		return "held"
	case StateRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// Mode selects what TakeNext does with the entries it takes.
type Mode int

const (
	// ModeRemove removes taken entries immediately (dequeue).
	ModeRemove Mode = iota
	// ModeHold moves taken entries to Held until Remove (get/delete).
	ModeHold
)

// Entry is a delivered entry.
type Entry struct {
	Sequence uint64          `json:"sequence"`
	Payload  json.RawMessage `json:"payload"`
}

// Stats is a point-in-time view of the store.
type Stats struct {
	Pending      int    `json:"pending"`
	Held         int    `json:"held"`
	Removed      int    `json:"removed"`
	NextSequence uint64 `json:"nextSequence"`
}

// Store holds the ordered entries. Every read-then-write runs under mu, so
// no two callers can take the same entry.
type Store struct {
	db     *pebblestore.DB
	logger logpkg.Logger

	mu      sync.Mutex
	nextSeq uint64
	pending int
	held    int
	removed int
}

// Open attaches a Store to db, restoring the sequence counter and index
// counts from an existing keyspace.
func Open(db *pebblestore.DB, logger logpkg.Logger) (*Store, error) {
	if db == nil {
		return nil, errors.New("entrystore: nil db")
	}
	if logger == nil {
		logger = logpkg.NewLogger(logpkg.WithOutput(logpkg.NullOutput{}))
	}
	s := &Store{db: db, logger: logger.With(logpkg.Component("entrystore"))}

	meta, err := db.Get(MetaKey())
	switch {
	case err == nil && len(meta) >= 8:
		s.nextSeq = binary.BigEndian.Uint64(meta[:8])
	case err != nil && !errors.Is(err, pebblestore.ErrNotFound):
		return nil, fmt.Errorf("entrystore: read meta: %w", err)
	}
	if s.pending, err = db.CountPrefix(PendingPrefix()); err != nil {
		return nil, fmt.Errorf("entrystore: count pending: %w", err)
	}
	if s.held, err = db.CountPrefix(HeldPrefix()); err != nil {
		return nil, fmt.Errorf("entrystore: count held: %w", err)
	}
	return s, nil
}

// Append stores payloads as Pending entries and returns their sequences,
// which continue from the last assigned sequence.
func (s *Store) Append(ctx context.Context, payloads []json.RawMessage) ([]uint64, error) {
	if len(payloads) == 0 {
		return nil, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	b := s.db.NewBatch()
	defer b.Close()
	seqs := make([]uint64, len(payloads))
	next := s.nextSeq
	for i, p := range payloads {
		seq := next
		next++
		seqs[i] = seq
		if err := b.Set(EntryKey(seq), EncodeRecord(StatePending, p), nil); err != nil {
			return nil, err
		}
		if err := b.Set(PendingKey(seq), nil, nil); err != nil {
			return nil, err
		}
	}
	var mb [8]byte
	binary.BigEndian.PutUint64(mb[:], next)
	if err := b.Set(MetaKey(), mb[:], nil); err != nil {
		return nil, err
	}
	if err := s.db.CommitBatch(ctx, b); err != nil {
		return nil, fmt.Errorf("entrystore: append: %w", err)
	}
	s.nextSeq = next
	s.pending += len(payloads)
	return seqs, nil
}

// TakeNext takes up to n Pending entries in ascending sequence order and
// either removes them or moves them to Held, depending on mode. hasMore
// reports whether Pending entries remain afterwards.
func (s *Store) TakeNext(ctx context.Context, n int, mode Mode) (entries []Entry, hasMore bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n <= 0 {
		return nil, s.pending > 0, nil
	}

	it, err := s.db.NewPrefixIter(PendingPrefix())
	if err != nil {
		return nil, false, fmt.Errorf("entrystore: iterate pending: %w", err)
	}
	defer it.Close()

	b := s.db.NewBatch()
	defer b.Close()

	valid := it.First()
	for ; valid && len(entries) < n; valid = it.Next() {
		seq, ok := seqFromKey(prefixPending, it.Key())
		if !ok {
			continue
		}
		raw, err := s.db.Get(EntryKey(seq))
		if err != nil {
			return nil, false, fmt.Errorf("entrystore: load entry %d: %w", seq, err)
		}
		_, payload, ok := DecodeRecord(raw)
		if !ok {
			return nil, false, fmt.Errorf("entrystore: corrupt record for entry %d", seq)
		}
		if err := b.Delete(PendingKey(seq), nil); err != nil {
			return nil, false, err
		}
		switch mode {
		case ModeHold:
			if err := b.Set(EntryKey(seq), EncodeRecord(StateHeld, payload), nil); err != nil {
				return nil, false, err
			}
			if err := b.Set(HeldKey(seq), nil, nil); err != nil {
				return nil, false, err
			}
		default:
			if err := b.Delete(EntryKey(seq), nil); err != nil {
				return nil, false, err
			}
		}
		entries = append(entries, Entry{Sequence: seq, Payload: payload})
	}
	if err := it.Error(); err != nil {
		return nil, false, fmt.Errorf("entrystore: iterate pending: %w", err)
	}
	if len(entries) == 0 {
		return nil, false, nil
	}

	if err := s.db.CommitBatch(ctx, b); err != nil {
		return nil, false, fmt.Errorf("entrystore: take: %w", err)
	}
	s.pending -= len(entries)
	if mode == ModeHold {
		s.held += len(entries)
	} else {
		s.removed += len(entries)
	}
	s.logger.Debug("took entries",
		logpkg.Int("count", len(entries)),
		logpkg.Uint64("first", entries[0].Sequence),
		logpkg.Bool("hold", mode == ModeHold))
	return entries, s.pending > 0, nil
}

// Remove moves Held entries to Removed. Either every id is Held and all are
// removed, or ErrUnknownEntry is returned and nothing changes.
func (s *Store) Remove(ctx context.Context, ids []uint64) error {
	if len(ids) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[uint64]struct{}, len(ids))
	for _, seq := range ids {
		if _, dup := seen[seq]; dup {
			continue
		}
		if _, err := s.db.Get(HeldKey(seq)); err != nil {
			if errors.Is(err, pebblestore.ErrNotFound) {
				return fmt.Errorf("%w: %d", ErrUnknownEntry, seq)
			}
			return fmt.Errorf("entrystore: check entry %d: %w", seq, err)
		}
		seen[seq] = struct{}{}
	}

	b := s.db.NewBatch()
	defer b.Close()
	for seq := range seen {
		if err := b.Delete(HeldKey(seq), nil); err != nil {
			return err
		}
		if err := b.Delete(EntryKey(seq), nil); err != nil {
			return err
		}
	}
	if err := s.db.CommitBatch(ctx, b); err != nil {
		return fmt.Errorf("entrystore: remove: %w", err)
	}
	s.held -= len(seen)
	s.removed += len(seen)
	return nil
}

// Lookup returns an entry and its state. Sequences that were assigned but
// are no longer stored report StateRemoved; unassigned ones ErrUnknownEntry.
func (s *Store) Lookup(seq uint64) (Entry, State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if seq >= s.nextSeq {
		return Entry{}, 0, fmt.Errorf("%w: %d", ErrUnknownEntry, seq)
	}
	raw, err := s.db.Get(EntryKey(seq))
	if errors.Is(err, pebblestore.ErrNotFound) {
		return Entry{Sequence: seq}, StateRemoved, nil
	}
	if err != nil {
		return Entry{}, 0, err
	}
	state, payload, ok := DecodeRecord(raw)
	if !ok {
		return Entry{}, 0, fmt.Errorf("entrystore: corrupt record for entry %d", seq)
	}
	return Entry{Sequence: seq, Payload: payload}, state, nil
}

// Stats returns the current counts.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{Pending: s.pending, Held: s.held, Removed: s.removed, NextSequence: s.nextSeq}
}
