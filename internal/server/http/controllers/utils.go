package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	getdeletesvc "github.com/dpa-newslab/dpa-digitalwires-wireq-example/internal/services/getdelete"
)

// Error messages used in JSON error bodies.
const (
	msgUnknownReceipt     = "unknown receipt"
	msgExpiredReceipt     = "receipt expired"
	msgInconsistentState  = "inconsistent state"
	msgTooManyRequests    = "too many requests"
	msgInternal           = "internal error"
	msgNotFound           = "not found"
	msgMethodNotAllowed   = "method not allowed"
	msgServiceUnavailable = "not_serving"
)

// writeError writes an error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResp{Error: message})
}

// writeJSON writes a JSON response with the given status and data.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// setRetryAfter sets the Retry-After header in whole seconds.
func setRetryAfter(w http.ResponseWriter, d time.Duration) {
	w.Header().Set("Retry-After", strconv.FormatInt(int64(d/time.Second), 10))
}

// deleteStatus maps a get/delete service error to an HTTP status and message.
func deleteStatus(err error) (int, string) {
	switch {
	case errors.Is(err, getdeletesvc.ErrUnknownReceipt):
		return http.StatusNotFound, msgUnknownReceipt
	case errors.Is(err, getdeletesvc.ErrExpiredReceipt):
		return http.StatusGone, msgExpiredReceipt
	case errors.Is(err, getdeletesvc.ErrInconsistentState):
		return http.StatusInternalServerError, msgInconsistentState
	default:
		return http.StatusInternalServerError, msgInternal
	}
}

// NotFound answers unmatched paths with a JSON 404.
func NotFound() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, msgNotFound)
	})
}

// MethodNotAllowed answers known paths requested with the wrong method.
func MethodNotAllowed() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, msgMethodNotAllowed)
	})
}

// InternalError writes the generic 500 body.
func InternalError(w http.ResponseWriter) {
	writeError(w, http.StatusInternalServerError, msgInternal)
}
