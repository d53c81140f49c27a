package getdelete

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dpa-newslab/dpa-digitalwires-wireq-example/internal/entrystore"
	"github.com/dpa-newslab/dpa-digitalwires-wireq-example/internal/metrics"
	"github.com/dpa-newslab/dpa-digitalwires-wireq-example/internal/receipts"
	"github.com/dpa-newslab/dpa-digitalwires-wireq-example/internal/runtime"
	logpkg "github.com/dpa-newslab/dpa-digitalwires-wireq-example/pkg/log"
)

var (
	ErrUnknownReceipt    = receipts.ErrUnknownReceipt
	ErrExpiredReceipt    = receipts.ErrExpiredReceipt
	ErrInconsistentState = receipts.ErrInconsistentState
)

// GetResult is one held batch and the receipt that can delete it.
type GetResult struct {
	Entries []entrystore.Entry
	// Receipt is empty when no entries were taken.
	Receipt    string
	ExpiresAt  time.Time
	RetryAfter time.Duration
}

// Service implements the GET-then-DELETE protocol.
type Service struct {
	rt     *runtime.Runtime
	logger logpkg.Logger
}

// New creates a get/delete service logging through the runtime logger.
func New(rt *runtime.Runtime) *Service {
	return NewWithLogger(rt, rt.Logger().With(logpkg.Component("getdelete")))
}

// NewWithLogger creates a get/delete service with a custom logger.
func NewWithLogger(rt *runtime.Runtime, logger logpkg.Logger) *Service {
	if logger == nil {
		logger = logpkg.NewLogger(logpkg.WithLevel(logpkg.InfoLevel))
		logger = logger.With(logpkg.F("component", "getdelete"))
	}
	return &Service{rt: rt, logger: logger}
}

// Get moves up to MaxItemsReturned Pending entries to Held and issues a
// receipt covering exactly those entries.
func (s *Service) Get(ctx context.Context) (GetResult, error) {
	cfg := s.rt.Config()
	entries, hasMore, err := s.rt.Store().TakeNext(ctx, cfg.MaxItemsReturned, entrystore.ModeHold)
	if err != nil {
		return GetResult{}, fmt.Errorf("get: %w", err)
	}
	res := GetResult{Entries: entries, RetryAfter: cfg.PollDelay(hasMore)}
	if len(entries) == 0 {
		return res, nil
	}

	ids := make([]uint64, len(entries))
	for i, e := range entries {
		ids[i] = e.Sequence
	}
	rc := s.rt.Receipts().Issue(ids, s.rt.Now())
	res.Receipt = rc.Token
	res.ExpiresAt = rc.ExpiresAt

	m := s.rt.Metrics()
	m.AddDelivered(metrics.ProtocolGetDelete, len(entries))
	m.IncReceiptIssued()
	s.logger.Debug("issued receipt",
		logpkg.Str("receipt", rc.Token),
		logpkg.Int("count", len(ids)),
		logpkg.Bool("has_more", hasMore))
	return res, nil
}

// Delete redeems token and removes its entries. It returns the removed
// sequences, or ErrUnknownReceipt, ErrExpiredReceipt or ErrInconsistentState.
// Entries of an expired receipt stay Held.
func (s *Service) Delete(ctx context.Context, token string) ([]uint64, error) {
	var removed []uint64
	err := s.rt.Receipts().Redeem(token, s.rt.Now(), func(rc receipts.Receipt) error {
		if err := s.rt.Store().Remove(ctx, rc.EntryIDs); err != nil {
			if errors.Is(err, entrystore.ErrUnknownEntry) {
				return fmt.Errorf("%w: receipt %s: %v", ErrInconsistentState, rc.Token, err)
			}
			return err
		}
		removed = rc.EntryIDs
		return nil
	})

	m := s.rt.Metrics()
	switch {
	case err == nil:
		m.IncReceiptRedeemed()
		s.logger.Debug("redeemed receipt", logpkg.Str("receipt", token), logpkg.Int("count", len(removed)))
		return removed, nil
	case errors.Is(err, ErrUnknownReceipt):
		m.IncReceiptRejected("unknown")
	case errors.Is(err, ErrExpiredReceipt):
		m.IncReceiptRejected("expired")
	case errors.Is(err, ErrInconsistentState):
		m.IncReceiptRejected("inconsistent")
		s.logger.Error("receipt references entries that are not held", logpkg.Str("receipt", token), logpkg.Err(err))
	default:
		return nil, fmt.Errorf("delete: %w", err)
	}
	return nil, err
}
