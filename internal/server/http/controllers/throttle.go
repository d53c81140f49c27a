package controllers

import (
	"net/http"

	"github.com/dpa-newslab/dpa-digitalwires-wireq-example/internal/runtime"
)

// throttle admits requests through the runtime's rate limiter before they
// reach next. Rejected requests get 429 with Retry-After and never touch the
// entry store.
func throttle(rt *runtime.Runtime, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d := rt.Limiter().Admit(rt.Now())
		if !d.Allowed {
			rt.Metrics().IncThrottled()
			setRetryAfter(w, d.RetryAfter)
			writeError(w, http.StatusTooManyRequests, msgTooManyRequests)
			return
		}
		next(w, r)
	}
}
