package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	clientcmd "github.com/dpa-newslab/dpa-digitalwires-wireq-example/internal/cmd/client"
	serverrun "github.com/dpa-newslab/dpa-digitalwires-wireq-example/internal/cmd/server"
	cfgpkg "github.com/dpa-newslab/dpa-digitalwires-wireq-example/internal/config"
	"github.com/dpa-newslab/dpa-digitalwires-wireq-example/internal/wiregen"
	logpkg "github.com/dpa-newslab/dpa-digitalwires-wireq-example/pkg/log"
	"github.com/spf13/cobra"
)

func main() {
	// .env next to the binary feeds flag defaults, as in the original scripts.
	_ = cfgpkg.LoadDotEnv(".env")

	level := os.Getenv("WIREQ_LOG_LEVEL")
	parsed, err := logpkg.ParseLevel(level)
	if err != nil || level == "" {
		parsed = logpkg.InfoLevel
	}
	logger := logpkg.NewLogger(
		logpkg.WithLevel(parsed),
		logpkg.WithFormatter(&logpkg.TextFormatter{}),
		logpkg.WithOutput(logpkg.NewConsoleOutput()),
	)

	// Redirect standard library logs (used by Pebble) to our logger
	logpkg.RedirectStdLog(logger)

	rootCmd := &cobra.Command{
		Use:          "wireq",
		Short:        "wireQ mock server and receiver",
		Long:         "wireq emulates the dpa-digitalwires wireQ polling API locally and ships a receiver that stores entries as files.",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newServerCommand())
	rootCmd.AddCommand(newGenerateCommand())

	// receiver commands
	rootCmd.AddCommand(clientcmd.NewReceiveCommand(envDefaults))
	rootCmd.AddCommand(clientcmd.NewStatsCommand(envDefaults))
	rootCmd.AddCommand(clientcmd.NewHealthCommand())

	if err := rootCmd.Execute(); err != nil {
		logger.Error("command failed", logpkg.Err(err))
		os.Exit(1)
	}
}

// envDefaults is the built-in configuration with the environment applied.
func envDefaults() cfgpkg.Config {
	cfg := cfgpkg.Default()
	cfgpkg.FromEnv(&cfg)
	return cfg
}

func newServerCommand() *cobra.Command {
	serverCmd := &cobra.Command{Use: "server", Short: "Server commands"}
	serverStartCmd := &cobra.Command{
		Use:     "start",
		Short:   "Start the wireQ mock server (HTTP and optional gRPC health)",
		Aliases: []string{"run"},
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			envFiles, _ := cmd.Flags().GetStringSlice("env-file")
			httpAddr, _ := cmd.Flags().GetString("http")

			cfg, err := serverrun.LoadConfig(configPath, envFiles...)
			if err != nil {
				return err
			}
			if err := applyServerFlags(cmd, &cfg); err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			if err := serverrun.Run(ctx, serverrun.Options{
				Config:   cfg,
				HTTPAddr: httpAddr,
			}); err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			// brief delay to allow logs flush
			time.Sleep(100 * time.Millisecond)
			return nil
		},
	}
	f := serverStartCmd.Flags()
	f.String("config", os.Getenv("WIREQ_CONFIG"), "Config file (.json, .yaml or .yml)")
	f.StringSlice("env-file", []string{".env"}, "KEY=VALUE files applied before the environment")
	f.String("http", "", "HTTP listen address (default :PORT)")
	f.String("grpc", "", "gRPC health listen address (env WIREQ_GRPC_ADDR; empty disables)")
	f.Int("port", 0, "HTTP port (env PORT)")
	f.Int("entries", 0, "Entries generated at startup (env NUMBER_OF_FILES)")
	f.Int("max-items", 0, "Max entries per response (env MAX_ITEMS_RETURNED)")
	f.Int("max-rpm", 0, "Max requests per minute, <0 disables (env MAX_REQUESTS_PER_MINUTE)")
	f.Int("receipt-lifetime", 0, "Receipt lifetime in seconds (env WIREQ_RECEIPT_LIFETIME_DURATION)")
	f.Int64("seed", 0, "Generator seed, 0 = time based (env WIREQ_SEED)")
	f.String("log-level", "", "Log level: debug|info|warn|error (env WIREQ_LOG_LEVEL)")
	f.String("log-format", "", "Log format: text|json (env WIREQ_LOG_FORMAT)")
	serverCmd.AddCommand(serverStartCmd)
	return serverCmd
}

// applyServerFlags overrides cfg with the flags the user set explicitly.
func applyServerFlags(cmd *cobra.Command, cfg *cfgpkg.Config) error {
	f := cmd.Flags()
	ints := map[string]*int{
		"port":             &cfg.Port,
		"entries":          &cfg.NumberOfFiles,
		"max-items":        &cfg.MaxItemsReturned,
		"max-rpm":          &cfg.MaxRequestsPerMinute,
		"receipt-lifetime": &cfg.ReceiptLifetimeSeconds,
	}
	for name, dst := range ints {
		if f.Changed(name) {
			*dst, _ = f.GetInt(name)
		}
	}
	if f.Changed("seed") {
		cfg.Seed, _ = f.GetInt64("seed")
	}
	if f.Changed("grpc") {
		cfg.GRPCAddr, _ = f.GetString("grpc")
	}
	if f.Changed("log-level") {
		cfg.Log.Level, _ = f.GetString("log-level")
	}
	if f.Changed("log-format") {
		cfg.Log.Format, _ = f.GetString("log-format")
	}
	return cfg.Validate()
}

func newGenerateCommand() *cobra.Command {
	cfg := envDefaults()
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Print synthetic wire entries as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			count, _ := cmd.Flags().GetInt("count")
			seed, _ := cmd.Flags().GetInt64("seed")
			indent, _ := cmd.Flags().GetBool("indent")
			if count < 0 {
				return fmt.Errorf("invalid --count %d", count)
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			if indent {
				enc.SetIndent("", "  ")
			}
			return enc.Encode(wiregen.New(seed, time.Now).Generate(count))
		},
	}
	cmd.Flags().Int("count", cfg.NumberOfFiles, "Number of entries (env NUMBER_OF_FILES)")
	cmd.Flags().Int64("seed", cfg.Seed, "Generator seed, 0 = time based (env WIREQ_SEED)")
	cmd.Flags().Bool("indent", false, "Indent the output")
	return cmd
}
