package transports

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// HTTPTransport implements Transport against the wireQ HTTP API.
type HTTPTransport struct {
	baseURL string
	client  *http.Client
}

// NewHTTPTransport constructs a transport for baseURL. A nil client uses a
// client with a 30s timeout.
func NewHTTPTransport(baseURL string, client *http.Client) *HTTPTransport {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPTransport{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

type batchBody struct {
	Entries []Entry `json:"entries"`
	Receipt string  `json:"receipt"`
}

// Dequeue calls POST /dequeue_entries.json.
func (t *HTTPTransport) Dequeue(ctx context.Context) (Batch, error) {
	return t.fetch(ctx, http.MethodPost, "/dequeue_entries.json")
}

// Get calls GET /entries.
func (t *HTTPTransport) Get(ctx context.Context) (Batch, error) {
	return t.fetch(ctx, http.MethodGet, "/entries")
}

// Delete calls DELETE /entries/{receipt} and returns the removed sequences.
func (t *HTTPTransport) Delete(ctx context.Context, receipt string) ([]uint64, error) {
	if receipt == "" {
		return nil, errors.New("wireq: empty receipt")
	}
	resp, err := t.do(ctx, http.MethodDelete, "/entries/"+url.PathEscape(receipt))
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode >= 300 {
		return nil, statusError(resp)
	}
	var body struct {
		Deleted []uint64 `json:"deleted"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode delete response: %w", err)
	}
	return body.Deleted, nil
}

// Stats returns the raw JSON of GET /v1/stats.
func (t *HTTPTransport) Stats(ctx context.Context) (json.RawMessage, error) {
	resp, err := t.do(ctx, http.MethodGet, "/v1/stats")
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode >= 300 {
		return nil, statusError(resp)
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(b), nil
}

func (t *HTTPTransport) fetch(ctx context.Context, method, path string) (Batch, error) {
	resp, err := t.do(ctx, method, path)
	if err != nil {
		return Batch{}, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode >= 300 {
		return Batch{}, statusError(resp)
	}
	var body batchBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Batch{}, fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return Batch{
		Entries:    body.Entries,
		Receipt:    body.Receipt,
		RetryAfter: retryAfter(resp.Header),
	}, nil
}

func (t *HTTPTransport) do(ctx context.Context, method, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, t.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	return t.client.Do(req)
}

func statusError(resp *http.Response) error {
	var body struct {
		Error string `json:"error"`
	}
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	_ = json.Unmarshal(b, &body)
	return &StatusError{
		Code:       resp.StatusCode,
		Message:    body.Error,
		RetryAfter: retryAfter(resp.Header),
	}
}

// retryAfter parses a delta-seconds Retry-After header.
func retryAfter(h http.Header) time.Duration {
	v := strings.TrimSpace(h.Get("Retry-After"))
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0
	}
	return time.Duration(n) * time.Second
}
