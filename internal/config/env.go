package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads KEY=VALUE files into the process environment without
// overriding variables that are already set. Missing files are skipped.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return err
		}
	}
	return nil
}

// FromEnv overlays environment variables onto cfg. Unparseable numbers are
// ignored and the previous value kept.
func FromEnv(cfg *Config) {
	envInt("NUMBER_OF_FILES", &cfg.NumberOfFiles)
	envInt("MAX_ITEMS_RETURNED", &cfg.MaxItemsReturned)
	envInt("RETRY_AFTER", &cfg.RetryAfter)
	envInt("RETRY_AFTER_MORE_DATA", &cfg.RetryAfterMoreData)
	envInt("RETRY_AFTER_TOO_MANY_REQUESTS", &cfg.RetryAfterTooManyRequests)
	envInt("MAX_REQUESTS_PER_MINUTE", &cfg.MaxRequestsPerMinute)
	envInt("WIREQ_RECEIPT_LIFETIME_DURATION", &cfg.ReceiptLifetimeSeconds)
	envInt("PORT", &cfg.Port)
	if v := os.Getenv("WIREQ_GRPC_ADDR"); v != "" {
		cfg.GRPCAddr = v
	}
	if v := os.Getenv("WIREQ_SEED"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Seed = n
		}
	}
	if v := os.Getenv("WIREQ_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("WIREQ_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("WIREQ_LOG_REDACT"); v != "" {
		cfg.Log.RedactKeys = splitList(v)
	}
	envInt("WIREQ_LOG_SAMPLE_INITIAL", &cfg.Log.SampleInitial)
	envInt("WIREQ_LOG_SAMPLE_THEREAFTER", &cfg.Log.SampleThereafter)
	if v := os.Getenv("BASE_URL"); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv("WIREQ_OUTPUT_DIR"); v != "" {
		cfg.OutputDir = v
	}
}

// splitList splits a comma separated value, dropping empty items.
func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func envInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}
