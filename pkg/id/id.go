package id

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"sync"
	"time"
)

// ID is a time-ordered 128-bit identifier: [8 bytes ms][8 bytes counter].
type ID [16]byte

// Nil is the zero ID.
var Nil ID

// Bytes returns a copy of the raw 16 bytes.
func (i ID) Bytes() []byte {
	b := make([]byte, len(i))
	copy(b, i[:])
	return b
}

// String returns the lowercase hex form.
func (i ID) String() string { return hex.EncodeToString(i[:]) }

// Time returns the millisecond timestamp embedded in the ID.
func (i ID) Time() time.Time {
	return time.UnixMilli(int64(binary.BigEndian.Uint64(i[0:8])))
}

// Counter returns the per-millisecond counter.
func (i ID) Counter() uint64 { return binary.BigEndian.Uint64(i[8:16]) }

// Compare returns -1, 0 or 1.
func (i ID) Compare(other ID) int {
	for k := range i {
		switch {
		case i[k] < other[k]:
			return -1
		case i[k] > other[k]:
			return 1
		}
	}
	return 0
}

// MarshalText implements encoding.TextMarshaler.
func (i ID) MarshalText() ([]byte, error) { return []byte(i.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (i *ID) UnmarshalText(b []byte) error {
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*i = parsed
	return nil
}

// Parse decodes the hex form produced by String.
func Parse(s string) (ID, error) {
	var out ID
	if len(s) != hex.EncodedLen(len(out)) {
		return Nil, fmt.Errorf("id: invalid length %d", len(s))
	}
	if _, err := hex.Decode(out[:], []byte(s)); err != nil {
		return Nil, fmt.Errorf("id: %w", err)
	}
	return out, nil
}

// NowMs is the clock used by generators. Tests replace it.
var NowMs = func() int64 { return time.Now().UnixMilli() }

// Generator hands out strictly increasing IDs. The zero value is ready to use.
type Generator struct {
	mu      sync.Mutex
	lastMs  int64
	counter uint64
}

// NewGenerator returns a fresh Generator.
func NewGenerator() *Generator { return &Generator{} }

// Next returns an ID greater than every ID previously returned by g.
// A clock that moves backwards is pinned to the last seen millisecond; an
// exhausted counter waits for the next millisecond.
func (g *Generator) Next() ID {
	g.mu.Lock()
	defer g.mu.Unlock()

	ms := NowMs()
	if ms < g.lastMs {
		ms = g.lastMs
	}
	switch {
	case ms > g.lastMs:
		g.counter = 0
	case g.counter < math.MaxUint64:
		g.counter++
	default:
		for ms <= g.lastMs {
			time.Sleep(time.Millisecond / 8)
			ms = NowMs()
		}
		g.counter = 0
	}
	g.lastMs = ms

	var out ID
	binary.BigEndian.PutUint64(out[0:8], uint64(ms))
	binary.BigEndian.PutUint64(out[8:16], g.counter)
	return out
}

var shared = NewGenerator()

// NewString returns the hex form of a new ID from the shared generator.
func NewString() string { return shared.Next().String() }
