// Package httpserver serves the wireQ endpoints over HTTP.
//
// Routes (gorilla/mux):
//
//	POST   /dequeue_entries.json   (alias /dequeue-entries.json)
//	GET    /entries                (alias /entries.json)
//	DELETE /entries/{token}        (alias /entry/{token})
//	GET    /healthz, /v1/stats, /metrics
//
// The wireQ routes pass the rate limiter first. Every response carries an
// X-Request-ID header and every routed request is logged.
//
// Example:
//
//	rt, _ := runtime.Open(ctx, runtime.Options{Config: config.Default()})
//	s := httpserver.New(rt, logger)
//	_ = s.ListenAndServe(ctx, ":8080")
package httpserver
