package dequeue

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	cfgpkg "github.com/dpa-newslab/dpa-digitalwires-wireq-example/internal/config"
	"github.com/dpa-newslab/dpa-digitalwires-wireq-example/internal/entrystore"
	"github.com/dpa-newslab/dpa-digitalwires-wireq-example/internal/runtime"
)

func openRuntime(t *testing.T, entries, maxItems int) *runtime.Runtime {
	t.Helper()
	cfg := cfgpkg.Default()
	cfg.MaxItemsReturned = maxItems
	payloads := make([]json.RawMessage, entries)
	for i := range payloads {
		payloads[i] = json.RawMessage(fmt.Sprintf(`{"i":%d}`, i))
	}
	rt, err := runtime.Open(context.Background(), runtime.Options{Config: cfg, Payloads: payloads})
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.Close() })
	return rt
}

func sequences(entries []entrystore.Entry) []uint64 {
	out := []uint64{}
	for _, e := range entries {
		out = append(out, e.Sequence)
	}
	return out
}

func TestDequeueScenario(t *testing.T) {
	rt := openRuntime(t, 5, 2)
	svc := New(rt)
	ctx := context.Background()

	steps := []struct {
		seqs  []uint64
		retry time.Duration
	}{
		{[]uint64{0, 1}, 10 * time.Second},
		{[]uint64{2, 3}, 10 * time.Second},
		{[]uint64{4}, 100 * time.Second},
		{[]uint64{}, 100 * time.Second},
	}
	for i, st := range steps {
		res, err := svc.Dequeue(ctx)
		require.NoError(t, err)
		require.Equal(t, st.seqs, sequences(res.Entries), "step %d", i)
		require.Equal(t, st.retry, res.RetryAfter, "step %d", i)
	}
}

func TestDequeueIncreasingAcrossCalls(t *testing.T) {
	rt := openRuntime(t, 37, 5)
	svc := New(rt)
	last := int64(-1)
	for {
		res, err := svc.Dequeue(context.Background())
		require.NoError(t, err)
		if len(res.Entries) == 0 {
			break
		}
		for _, e := range res.Entries {
			require.Greater(t, int64(e.Sequence), last)
			last = int64(e.Sequence)
		}
	}
	require.Equal(t, int64(36), last)
	require.Equal(t, 37, rt.Stats().Entries.Removed)
}
