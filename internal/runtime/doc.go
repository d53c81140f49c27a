// Package runtime wires storage, config, and the shared wireQ state into a
// single mock server instance. It exposes Open/Close, a health check, the
// injectable clock, and accessors used by the services.
//
// Example:
//
//	cfg := config.Default()
//	rt, err := runtime.Open(ctx, runtime.Options{Config: cfg})
//	if err != nil { /* handle */ }
//	defer rt.Close()
//	_ = rt.CheckHealth(ctx)
//	fmt.Println(rt.Stats().Entries.Pending) // cfg.NumberOfFiles
package runtime
