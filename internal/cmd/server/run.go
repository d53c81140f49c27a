package serverrun

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	cfgpkg "github.com/dpa-newslab/dpa-digitalwires-wireq-example/internal/config"
	"github.com/dpa-newslab/dpa-digitalwires-wireq-example/internal/metrics"
	"github.com/dpa-newslab/dpa-digitalwires-wireq-example/internal/runtime"
	grpcserver "github.com/dpa-newslab/dpa-digitalwires-wireq-example/internal/server/grpc"
	httpserver "github.com/dpa-newslab/dpa-digitalwires-wireq-example/internal/server/http"
	logpkg "github.com/dpa-newslab/dpa-digitalwires-wireq-example/pkg/log"
)

type Options struct {
	Config cfgpkg.Config
	// HTTPAddr overrides the address derived from Config.Port.
	HTTPAddr string
	// GRPCAddr overrides Config.GRPCAddr. Empty disables gRPC.
	GRPCAddr string
	// Logger overrides the logger built from Config.Log.
	Logger logpkg.Logger
	// Ready, when set, is called with the bound HTTP address once the
	// listener is open.
	Ready func(httpAddr string)
}

// LoadConfig resolves configuration: defaults, then the optional file, then
// .env files and the process environment. The result is validated.
func LoadConfig(path string, envFiles ...string) (cfgpkg.Config, error) {
	cfg, err := cfgpkg.Load(path)
	if err != nil {
		return cfgpkg.Config{}, fmt.Errorf("load config: %w", err)
	}
	if err := cfgpkg.LoadDotEnv(envFiles...); err != nil {
		return cfgpkg.Config{}, fmt.Errorf("load env file: %w", err)
	}
	cfgpkg.FromEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return cfgpkg.Config{}, err
	}
	return cfg, nil
}

// NewProcessLogger builds the process-wide logger from cfg, falling back to
// a text logger at the parsed (or info) level when cfg is invalid.
func NewProcessLogger(cfg cfgpkg.LogConfig) logpkg.Logger {
	l, err := logpkg.ApplyConfig(logConfig(cfg))
	if err == nil {
		return l
	}
	lvl := logpkg.InfoLevel
	if parsed, e := logpkg.ParseLevel(cfg.Level); e == nil {
		lvl = parsed
	}
	return logpkg.NewLogger(logpkg.WithLevel(lvl), logpkg.WithFormatter(&logpkg.TextFormatter{}))
}

// logConfig maps the file/env log settings onto the logging package.
func logConfig(cfg cfgpkg.LogConfig) *logpkg.Config {
	return &logpkg.Config{
		Level:            cfg.Level,
		Format:           cfg.Format,
		RedactKeys:       cfg.RedactKeys,
		SampleInitial:    cfg.SampleInitial,
		SampleThereafter: cfg.SampleThereafter,
	}
}

// Run starts the HTTP (and optionally gRPC) servers and blocks until ctx is
// cancelled or a listener fails.
func Run(ctx context.Context, opts Options) error {
	sctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	sctx, cancel := context.WithCancel(sctx)
	defer cancel()

	cfg := opts.Config
	httpAddr := opts.HTTPAddr
	if httpAddr == "" {
		httpAddr = cfg.HTTPAddr()
	}
	grpcAddr := opts.GRPCAddr
	if grpcAddr == "" {
		grpcAddr = cfg.GRPCAddr
	}

	procLogger := opts.Logger
	if procLogger == nil {
		procLogger = NewProcessLogger(cfg.Log)
		logpkg.RedirectStdLog(procLogger)
	}

	rt, err := runtime.Open(sctx, runtime.Options{
		Config:  cfg,
		Logger:  procLogger,
		Metrics: metrics.New(),
	})
	if err != nil {
		return err
	}
	defer rt.Close()

	hsrv := httpserver.New(rt, procLogger)
	if err := hsrv.Listen(httpAddr); err != nil {
		return fmt.Errorf("http listen: %w", err)
	}

	procLogger.Info("Starting wireQ mock server",
		logpkg.Str("http", hsrv.Addr()),
		logpkg.Str("grpc", grpcAddr),
		logpkg.Int("entries", cfg.NumberOfFiles),
		logpkg.Int("max_items", cfg.MaxItemsReturned),
		logpkg.Int("max_requests_per_minute", cfg.MaxRequestsPerMinute),
		logpkg.Int("receipt_lifetime_s", cfg.ReceiptLifetimeSeconds),
	)
	if opts.Ready != nil {
		opts.Ready(hsrv.Addr())
	}

	var (
		wg      sync.WaitGroup
		errOnce sync.Once
		runErr  error
	)
	fail := func(err error) {
		errOnce.Do(func() { runErr = err })
		cancel()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := hsrv.Serve(sctx); err != nil && sctx.Err() == nil {
			procLogger.Error("http server failed", logpkg.Err(err))
			fail(fmt.Errorf("http: %w", err))
		}
	}()

	if grpcAddr != "" {
		gsrv := grpcserver.New(rt, procLogger)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := gsrv.ListenAndServe(sctx, grpcAddr); err != nil && sctx.Err() == nil {
				procLogger.Error("grpc server failed", logpkg.Err(err))
				fail(fmt.Errorf("grpc: %w", err))
			}
		}()
	}

	<-sctx.Done()
	// Both servers shut down on sctx; wait for them before the deferred
	// runtime close.
	wg.Wait()
	procLogger.Info("server stopped")
	return runErr
}
