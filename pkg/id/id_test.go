package id

import (
	"testing"
	"time"
)

func withClock(t *testing.T, fn func() int64) {
	t.Helper()
	prev := NowMs
	NowMs = fn
	t.Cleanup(func() { NowMs = prev })
}

func TestNextIsStrictlyIncreasing(t *testing.T) {
	withClock(t, func() int64 { return 1000 })
	g := NewGenerator()
	prev := g.Next()
	for i := 0; i < 100; i++ {
		next := g.Next()
		if prev.Compare(next) >= 0 {
			t.Fatalf("ids not increasing: %s then %s", prev, next)
		}
		prev = next
	}
	if prev.Time().UnixMilli() != 1000 {
		t.Fatalf("embedded time = %d", prev.Time().UnixMilli())
	}
}

func TestClockRegressionIsPinned(t *testing.T) {
	now := int64(1000)
	withClock(t, func() int64 { return now })
	g := NewGenerator()

	a := g.Next()
	now = 900
	b := g.Next()
	if a.Compare(b) >= 0 {
		t.Fatalf("expected %s < %s after clock regression", a, b)
	}
	if b.Time().UnixMilli() != 1000 {
		t.Fatalf("regressed id should keep last ms, got %d", b.Time().UnixMilli())
	}
}

func TestCounterExhaustionWaitsForNextMs(t *testing.T) {
	clock := make(chan int64, 1)
	clock <- 2000
	withClock(t, func() int64 {
		v := <-clock
		clock <- v
		return v
	})
	g := &Generator{lastMs: 2000, counter: ^uint64(0)}

	done := make(chan ID, 1)
	go func() { done <- g.Next() }()

	time.AfterFunc(10*time.Millisecond, func() {
		<-clock
		clock <- 2001
	})

	select {
	case got := <-done:
		if got.Time().UnixMilli() != 2001 || got.Counter() != 0 {
			t.Fatalf("unexpected id after wait: ms=%d counter=%d", got.Time().UnixMilli(), got.Counter())
		}
	case <-time.After(time.Second):
		t.Fatalf("timeout waiting for counter reset")
	}
}

func TestParseRoundTripsString(t *testing.T) {
	g := NewGenerator()
	a := g.Next()
	b, err := Parse(a.String())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if a != b {
		t.Fatalf("parse mismatch")
	}
	if _, err := Parse("zz"); err == nil {
		t.Fatalf("expected error for short input")
	}
	if _, err := Parse("zz" + a.String()[2:]); err == nil {
		t.Fatalf("expected error for non-hex input")
	}
}

func TestNewStringLength(t *testing.T) {
	if s := NewString(); len(s) != 32 {
		t.Fatalf("len = %d", len(s))
	}
}
