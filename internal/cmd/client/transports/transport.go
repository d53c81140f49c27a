// Package transports provides the transports used by the receiver CLI.
package transports

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Entry is a delivered wireQ entry. Receipt is only set on GET batches.
type Entry struct {
	Sequence uint64          `json:"sequence"`
	Payload  json.RawMessage `json:"payload"`
	Receipt  string          `json:"_wireq_receipt,omitempty"`
}

// Batch is the result of one poll.
type Batch struct {
	Entries []Entry
	// Receipt authorizes deleting Entries. Empty for dequeue and empty batches.
	Receipt string
	// RetryAfter is the server's Retry-After hint; zero when absent.
	RetryAfter time.Duration
}

// StatusError is a non-2xx answer from the server.
type StatusError struct {
	Code       int
	Message    string
	RetryAfter time.Duration
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("wireq: http %d", e.Code)
	}
	return fmt.Sprintf("wireq: http %d: %s", e.Code, e.Message)
}

// Transport abstracts the wireQ calls used by the receiver.
type Transport interface {
	Dequeue(ctx context.Context) (Batch, error)
	Get(ctx context.Context) (Batch, error)
	Delete(ctx context.Context, receipt string) ([]uint64, error)
}
