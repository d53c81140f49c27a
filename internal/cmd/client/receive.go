package client

import (
	"encoding/json"
	"fmt"
	"time"

	transports "github.com/dpa-newslab/dpa-digitalwires-wireq-example/internal/cmd/client/transports"
	"github.com/spf13/cobra"
)

// NewReceiveCommand constructs the `receive` command group and subcommands.
func NewReceiveCommand(defaults DefaultsFunc) *cobra.Command {
	receiveCmd := &cobra.Command{
		Use:   "receive",
		Short: "Poll a wireQ endpoint and store entries as <sequence>.json",
	}
	receiveCmd.AddCommand(
		newReceiveModeCommand(defaults, ModeDequeue, "Receive entries with POST /dequeue_entries.json"),
		newReceiveModeCommand(defaults, ModeGetDelete, "Receive entries with GET /entries and DELETE the receipt"),
	)
	return receiveCmd
}

func newReceiveModeCommand(defaults DefaultsFunc, mode Mode, short string) *cobra.Command {
	cfg := defaults()
	cmd := &cobra.Command{
		Use:   string(mode),
		Short: short,
		RunE: func(cmd *cobra.Command, _ []string) error {
			baseURL, _ := cmd.Flags().GetString("base-url")
			out, _ := cmd.Flags().GetString("output")
			interval, _ := cmd.Flags().GetDuration("poll-interval")
			once, _ := cmd.Flags().GetBool("once")
			maxPolls, _ := cmd.Flags().GetInt("max-polls")
			rps, _ := cmd.Flags().GetFloat64("max-rps")
			level, _ := cmd.Flags().GetString("log-level")

			r := NewReceiver(transports.NewHTTPTransport(baseURL, nil), ReceiverOptions{
				Mode:              mode,
				OutputDir:         out,
				PollInterval:      interval,
				MaxPolls:          maxPolls,
				Once:              once,
				RequestsPerSecond: rps,
				Logger:            cliLogger(level),
			})
			sum, err := r.Run(cmd.Context())
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			return enc.Encode(struct {
				Summary
				Output string `json:"output"`
			}{sum, out})
		},
	}
	cmd.Flags().String("base-url", cfg.BaseURL, "wireQ base URL (env BASE_URL)")
	cmd.Flags().StringP("output", "o", cfg.OutputDir, "Directory for <sequence>.json files (env WIREQ_OUTPUT_DIR)")
	cmd.Flags().Duration("poll-interval", 10*time.Second, "Delay between polls when the server sends no Retry-After")
	cmd.Flags().Bool("once", false, "Stop at the first empty batch")
	cmd.Flags().Int("max-polls", 0, "Stop after N requests (0 = unlimited)")
	cmd.Flags().Float64("max-rps", 3, "Client-side request rate limit (0 = unlimited)")
	cmd.Flags().String("log-level", cfg.Log.Level, "Log level: debug|info|warn|error")
	return cmd
}

// NewStatsCommand constructs the `stats` command printing GET /v1/stats.
func NewStatsCommand(defaults DefaultsFunc) *cobra.Command {
	cfg := defaults()
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print server queue, receipt and rate-limit counters",
		RunE: func(cmd *cobra.Command, _ []string) error {
			baseURL, _ := cmd.Flags().GetString("base-url")
			raw, err := transports.NewHTTPTransport(baseURL, nil).Stats(cmd.Context())
			if err != nil {
				return err
			}
			var v any
			if err := json.Unmarshal(raw, &v); err != nil {
				return fmt.Errorf("decode stats: %w", err)
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(v)
		},
	}
	cmd.Flags().String("base-url", cfg.BaseURL, "wireQ base URL (env BASE_URL)")
	return cmd
}

// NewHealthCommand constructs the `health` command using grpc.health.v1.
func NewHealthCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check server health over gRPC",
		RunE: func(cmd *cobra.Command, _ []string) error {
			addr, _ := cmd.Flags().GetString("grpc")
			service, _ := cmd.Flags().GetString("service")
			status, err := transports.NewHealthTransport(dialer(addr)).Check(cmd.Context(), service)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "status:", status.String())
			return nil
		},
	}
	cmd.Flags().String("grpc", grpcAddrFromEnv(), "gRPC address (env WIREQ_GRPC_ADDR)")
	cmd.Flags().String("service", "", "Service name (empty = whole server)")
	return cmd
}
