package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	transports "github.com/dpa-newslab/dpa-digitalwires-wireq-example/internal/cmd/client/transports"
	logpkg "github.com/dpa-newslab/dpa-digitalwires-wireq-example/pkg/log"
	"golang.org/x/time/rate"
)

// Mode selects the retrieval protocol.
type Mode string

const (
	ModeDequeue   Mode = "dequeue"
	ModeGetDelete Mode = "get-delete"
)

// ReceiverOptions configures a Receiver.
type ReceiverOptions struct {
	Mode      Mode
	OutputDir string
	// PollInterval is used when the server sends no Retry-After.
	PollInterval time.Duration
	// MaxPolls stops the loop after that many requests. Zero means no limit.
	MaxPolls int
	// Once stops the loop at the first empty batch.
	Once bool
	// RequestsPerSecond paces requests client side. Zero disables pacing.
	RequestsPerSecond float64
	Logger            logpkg.Logger
}

// Summary reports what a Run did.
type Summary struct {
	Polls     int      `json:"polls"`
	Written   int      `json:"written"`
	Deleted   int      `json:"deleted"`
	Throttled int      `json:"throttled"`
	Sequences []uint64 `json:"-"`
	// PendingReceipt is set when the loop stopped before a written batch
	// could be deleted.
	PendingReceipt string `json:"pendingReceipt,omitempty"`
}

// Receiver polls a wireQ endpoint and writes each payload to
// <OutputDir>/<sequence>.json.
type Receiver struct {
	t       transports.Transport
	opts    ReceiverOptions
	limiter *rate.Limiter
	logger  logpkg.Logger
	// pending is the receipt of a batch already on disk whose DELETE has not
	// succeeded yet. It is retried before the next GET.
	pending string
	// wait sleeps between polls; replaced in tests.
	wait func(ctx context.Context, d time.Duration) error
}

// NewReceiver constructs a Receiver over t.
func NewReceiver(t transports.Transport, opts ReceiverOptions) *Receiver {
	if opts.Mode == "" {
		opts.Mode = ModeDequeue
	}
	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}
	logger := opts.Logger
	if logger == nil {
		logger = logpkg.NewLogger(logpkg.WithOutput(logpkg.NullOutput{}))
	}
	return &Receiver{
		t:       t,
		opts:    opts,
		limiter: rate.NewLimiter(limit, 1),
		logger:  logger.With(logpkg.Component("receiver"), logpkg.Str("mode", string(opts.Mode))),
		wait:    sleepCtx,
	}
}

// Run polls until ctx is done, MaxPolls is reached, or Once sees an empty
// batch. Throttled requests, DELETE included, wait for the advertised
// Retry-After; any other error stops the loop.
func (r *Receiver) Run(ctx context.Context) (sum Summary, err error) {
	defer func() { sum.PendingReceipt = r.pending }()
	if err := os.MkdirAll(r.opts.OutputDir, 0o755); err != nil {
		return sum, fmt.Errorf("create output dir: %w", err)
	}
	for {
		if err := r.limiter.Wait(ctx); err != nil {
			return sum, ignoreCanceled(err)
		}
		sum.Polls++
		delay, empty, err := r.poll(ctx, &sum)
		if err != nil {
			var se *transports.StatusError
			if !errors.As(err, &se) || se.Code != http.StatusTooManyRequests {
				return sum, err
			}
			sum.Throttled++
			delay = se.RetryAfter
			r.logger.Warn("throttled", logpkg.Dur("retry_after", delay))
		}
		if r.opts.Once && empty {
			return sum, nil
		}
		if r.opts.MaxPolls > 0 && sum.Polls >= r.opts.MaxPolls {
			return sum, nil
		}
		if delay <= 0 {
			delay = r.opts.PollInterval
		}
		r.logger.Debug("waiting", logpkg.Dur("delay", delay))
		if err := r.wait(ctx, delay); err != nil {
			return sum, ignoreCanceled(err)
		}
	}
}

// poll performs one fetch and persists its batch. In get-delete mode the
// receipt is redeemed only after every payload was written, and a receipt
// left over from a throttled DELETE is redeemed before fetching again.
func (r *Receiver) poll(ctx context.Context, sum *Summary) (time.Duration, bool, error) {
	if r.pending != "" {
		if err := r.redeem(ctx, sum); err != nil {
			return 0, false, err
		}
	}

	var (
		batch transports.Batch
		err   error
	)
	if r.opts.Mode == ModeGetDelete {
		batch, err = r.t.Get(ctx)
	} else {
		batch, err = r.t.Dequeue(ctx)
	}
	if err != nil {
		return 0, false, err
	}
	for _, e := range batch.Entries {
		if err := writeEntry(r.opts.OutputDir, e); err != nil {
			return 0, false, err
		}
		sum.Written++
		sum.Sequences = append(sum.Sequences, e.Sequence)
	}
	if r.opts.Mode == ModeGetDelete && batch.Receipt != "" {
		r.pending = batch.Receipt
		if err := r.redeem(ctx, sum); err != nil {
			return 0, false, err
		}
	}
	r.logger.Info("poll",
		logpkg.Int("entries", len(batch.Entries)),
		logpkg.Dur("retry_after", batch.RetryAfter),
	)
	return batch.RetryAfter, len(batch.Entries) == 0, nil
}

// redeem deletes the pending receipt. On failure the receipt stays pending.
func (r *Receiver) redeem(ctx context.Context, sum *Summary) error {
	deleted, err := r.t.Delete(ctx, r.pending)
	if err != nil {
		return fmt.Errorf("delete receipt %s: %w", r.pending, err)
	}
	sum.Deleted += len(deleted)
	r.pending = ""
	return nil
}

// writeEntry stores the payload under <dir>/<sequence>.json via a temp file
// so a partial write never leaves a truncated entry behind.
func writeEntry(dir string, e transports.Entry) error {
	name := filepath.Join(dir, strconv.FormatUint(e.Sequence, 10)+".json")
	tmp := name + ".tmp"
	if err := os.WriteFile(tmp, e.Payload, 0o644); err != nil {
		return fmt.Errorf("write entry %d: %w", e.Sequence, err)
	}
	if err := os.Rename(tmp, name); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("write entry %d: %w", e.Sequence, err)
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}
