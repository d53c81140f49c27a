// Package serverrun exposes the Run entrypoint used by the CLI to start the
// mock wireQ server, handling configuration, logging and graceful shutdown.
//
// Example:
//
//	cfg, err := serverrun.LoadConfig("", ".env")
//	if err != nil { /* handle */ }
//	_ = serverrun.Run(ctx, serverrun.Options{Config: cfg})
package serverrun
