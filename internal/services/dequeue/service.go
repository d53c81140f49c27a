package dequeue

import (
	"context"
	"fmt"
	"time"

	"github.com/dpa-newslab/dpa-digitalwires-wireq-example/internal/entrystore"
	"github.com/dpa-newslab/dpa-digitalwires-wireq-example/internal/metrics"
	"github.com/dpa-newslab/dpa-digitalwires-wireq-example/internal/runtime"
	logpkg "github.com/dpa-newslab/dpa-digitalwires-wireq-example/pkg/log"
)

// Result is one dequeued batch.
type Result struct {
	Entries    []entrystore.Entry
	RetryAfter time.Duration
}

// Service implements the dequeue protocol: entries are removed the moment
// they are returned.
type Service struct {
	rt     *runtime.Runtime
	logger logpkg.Logger
}

// New creates a dequeue service logging through the runtime logger.
func New(rt *runtime.Runtime) *Service {
	return NewWithLogger(rt, rt.Logger().With(logpkg.Component("dequeue")))
}

// NewWithLogger creates a dequeue service with a custom logger.
func NewWithLogger(rt *runtime.Runtime, logger logpkg.Logger) *Service {
	if logger == nil {
		logger = logpkg.NewLogger(logpkg.WithLevel(logpkg.InfoLevel))
		logger = logger.With(logpkg.F("component", "dequeue"))
	}
	return &Service{rt: rt, logger: logger}
}

// Dequeue removes and returns up to MaxItemsReturned entries in sequence
// order. An empty store yields an empty batch, not an error.
func (s *Service) Dequeue(ctx context.Context) (Result, error) {
	cfg := s.rt.Config()
	entries, hasMore, err := s.rt.Store().TakeNext(ctx, cfg.MaxItemsReturned, entrystore.ModeRemove)
	if err != nil {
		return Result{}, fmt.Errorf("dequeue: %w", err)
	}
	s.rt.Metrics().AddDelivered(metrics.ProtocolDequeue, len(entries))
	if len(entries) > 0 {
		s.logger.Debug("dequeued",
			logpkg.Int("count", len(entries)),
			logpkg.Uint64("first", entries[0].Sequence),
			logpkg.Bool("has_more", hasMore))
	}
	return Result{Entries: entries, RetryAfter: cfg.PollDelay(hasMore)}, nil
}
