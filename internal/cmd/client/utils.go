package client

import (
	"context"
	"os"

	cfgpkg "github.com/dpa-newslab/dpa-digitalwires-wireq-example/internal/config"
	logpkg "github.com/dpa-newslab/dpa-digitalwires-wireq-example/pkg/log"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// DefaultsFunc provides the configuration flags default to (env, .env).
type DefaultsFunc func() cfgpkg.Config

// grpcAddrFromEnv returns the gRPC server address from WIREQ_GRPC_ADDR or a default.
func grpcAddrFromEnv() string {
	if addr := os.Getenv("WIREQ_GRPC_ADDR"); addr != "" {
		return addr
	}
	return "127.0.0.1:50051"
}

// dialer returns a dial func for addr with insecure transport for local/dev.
func dialer(addr string) func(ctx context.Context) (*grpc.ClientConn, error) {
	return func(ctx context.Context) (*grpc.ClientConn, error) {
		return grpc.DialContext(ctx, addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	}
}

// cliLogger builds the logger for client commands; it writes to stderr so
// stdout stays machine readable.
func cliLogger(level string) logpkg.Logger {
	lvl, err := logpkg.ParseLevel(level)
	if err != nil {
		lvl = logpkg.InfoLevel
	}
	return logpkg.NewLogger(
		logpkg.WithLevel(lvl),
		logpkg.WithFormatter(&logpkg.TextFormatter{}),
		logpkg.WithOutput(logpkg.NewConsoleOutput()),
	)
}
