package controllers

import (
	"encoding/json"

	"github.com/dpa-newslab/dpa-digitalwires-wireq-example/internal/entrystore"
)

// Response bodies of the wireQ endpoints.

// dequeueResp is returned by POST /dequeue_entries.json.
type dequeueResp struct {
	Entries []entrystore.Entry `json:"entries"`
}

// getEntry is an entry as returned by GET /entries. Each entry carries the
// receipt of its batch.
type getEntry struct {
	Sequence uint64          `json:"sequence"`
	Payload  json.RawMessage `json:"payload"`
	Receipt  string          `json:"_wireq_receipt"`
}

// getResp is returned by GET /entries. Receipt is omitted for an empty batch.
type getResp struct {
	Entries []getEntry `json:"entries"`
	Receipt string     `json:"receipt,omitempty"`
}

// deleteResp is returned by a successful DELETE /entries/{token}.
type deleteResp struct {
	Deleted []uint64 `json:"deleted"`
}

// errorResp is the body of every non-2xx response.
type errorResp struct {
	Error string `json:"error"`
}
