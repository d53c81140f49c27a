package runtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	cfgpkg "github.com/dpa-newslab/dpa-digitalwires-wireq-example/internal/config"
	"github.com/dpa-newslab/dpa-digitalwires-wireq-example/internal/entrystore"
	"github.com/dpa-newslab/dpa-digitalwires-wireq-example/internal/metrics"
	"github.com/dpa-newslab/dpa-digitalwires-wireq-example/internal/ratelimit"
	"github.com/dpa-newslab/dpa-digitalwires-wireq-example/internal/receipts"
	pebblestore "github.com/dpa-newslab/dpa-digitalwires-wireq-example/internal/storage/pebble"
	"github.com/dpa-newslab/dpa-digitalwires-wireq-example/internal/wiregen"
	logpkg "github.com/dpa-newslab/dpa-digitalwires-wireq-example/pkg/log"
)

// Options for building the Runtime.
type Options struct {
	Config cfgpkg.Config
	// DataDir puts the keyspace on disk; empty keeps it in memory.
	DataDir string
	Logger  logpkg.Logger
	Metrics *metrics.Metrics
	// Clock defaults to time.Now.
	Clock func() time.Time
	// Payloads replaces the generated startup entries when non-nil.
	Payloads []json.RawMessage
}

// Runtime owns the shared state of one mock server instance: the entry
// store, the receipt registry and the rate limiter.
type Runtime struct {
	db       *pebblestore.DB
	store    *entrystore.Store
	receipts *receipts.Registry
	limiter  *ratelimit.Limiter

	config  cfgpkg.Config
	logger  logpkg.Logger
	metrics *metrics.Metrics
	clock   func() time.Time
	closed  atomic.Bool
}

// Snapshot aggregates the counters served on /v1/stats.
type Snapshot struct {
	Entries  entrystore.Stats `json:"entries"`
	Receipts receipts.Stats   `json:"receipts"`
	Rate     ratelimit.Stats  `json:"rate"`
}

// Open validates the configuration, opens storage and fills the store with
// the startup entries.
func Open(ctx context.Context, opts Options) (*Runtime, error) {
	cfg := opts.Config
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("runtime: invalid config: %w", err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = logpkg.NewLogger(logpkg.WithOutput(logpkg.NullOutput{}))
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}

	dbOpts := pebblestore.Options{DataDir: opts.DataDir, Logger: logger}
	if opts.Metrics != nil {
		dbOpts.Metrics = opts.Metrics
	}
	db, err := pebblestore.Open(dbOpts)
	if err != nil {
		return nil, err
	}
	store, err := entrystore.Open(db, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	payloads := opts.Payloads
	if payloads == nil {
		payloads, err = wiregen.New(cfg.Seed, clock).Payloads(cfg.NumberOfFiles)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("runtime: generate entries: %w", err)
		}
	}
	if _, err := store.Append(ctx, payloads); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("runtime: load entries: %w", err)
	}

	rt := &Runtime{
		db:       db,
		store:    store,
		receipts: receipts.New(cfg.ReceiptLifetime()),
		limiter:  ratelimit.New(cfg.MaxRequestsPerMinute, time.Duration(cfg.RetryAfterTooManyRequests)*time.Second),
		config:   cfg,
		logger:   logger,
		metrics:  opts.Metrics,
		clock:    clock,
	}
	if opts.Metrics != nil {
		opts.Metrics.RegisterGauge("entries_pending", "Entries waiting for delivery.", func() float64 {
			return float64(rt.store.Stats().Pending)
		})
		opts.Metrics.RegisterGauge("entries_held", "Entries held by an outstanding receipt.", func() float64 {
			return float64(rt.store.Stats().Held)
		})
		opts.Metrics.RegisterGauge("receipts_active", "Receipts that can still be redeemed.", func() float64 {
			return float64(rt.receipts.Stats(rt.Now()).Active)
		})
	}
	logger.Info("runtime ready",
		logpkg.Int("entries", len(payloads)),
		logpkg.Bool("in_memory", db.InMemory()))
	return rt, nil
}

// Close closes underlying resources. It is safe to call more than once.
func (r *Runtime) Close() error {
	if r == nil || !r.closed.CompareAndSwap(false, true) {
		return nil
	}
	return r.db.Close()
}

// CheckHealth reports whether storage is usable.
func (r *Runtime) CheckHealth(ctx context.Context) error {
	if r.closed.Load() {
		return errors.New("runtime closed")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	it, err := r.db.NewIter(nil)
	if err != nil {
		return err
	}
	return it.Close()
}

// Now returns the runtime clock's current time.
func (r *Runtime) Now() time.Time { return r.clock() }

// Stats returns the current counters.
func (r *Runtime) Stats() Snapshot {
	now := r.Now()
	return Snapshot{
		Entries:  r.store.Stats(),
		Receipts: r.receipts.Stats(now),
		Rate:     r.limiter.Stats(now),
	}
}

func (r *Runtime) Store() *entrystore.Store     { return r.store }
func (r *Runtime) Receipts() *receipts.Registry { return r.receipts }
func (r *Runtime) Limiter() *ratelimit.Limiter  { return r.limiter }
func (r *Runtime) Config() cfgpkg.Config        { return r.config }
func (r *Runtime) Logger() logpkg.Logger        { return r.logger }
func (r *Runtime) Metrics() *metrics.Metrics    { return r.metrics }
func (r *Runtime) DB() *pebblestore.DB          { return r.db }
