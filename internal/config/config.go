package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration loaded from file/env.
//
// Durations are whole seconds so the values match the Retry-After header and
// the environment variables one to one.
type Config struct {
	// NumberOfFiles is how many synthetic entries are generated at startup.
	NumberOfFiles int `json:"numberOfFiles" yaml:"numberOfFiles"`
	// MaxItemsReturned caps the batch size of a single dequeue or GET.
	MaxItemsReturned int `json:"maxItemsReturned" yaml:"maxItemsReturned"`

	RetryAfter                int `json:"retryAfter" yaml:"retryAfter"`
	RetryAfterMoreData        int `json:"retryAfterMoreData" yaml:"retryAfterMoreData"`
	RetryAfterTooManyRequests int `json:"retryAfterTooManyRequests" yaml:"retryAfterTooManyRequests"`

	// MaxRequestsPerMinute is the per-window budget. Zero or less disables limiting.
	MaxRequestsPerMinute int `json:"maxRequestsPerMinute" yaml:"maxRequestsPerMinute"`
	// ReceiptLifetimeSeconds bounds how long a GET receipt can be redeemed.
	ReceiptLifetimeSeconds int `json:"receiptLifetimeSeconds" yaml:"receiptLifetimeSeconds"`

	Port     int    `json:"port" yaml:"port"`
	GRPCAddr string `json:"grpcAddr" yaml:"grpcAddr"`

	// Seed drives the entry generator. Zero seeds from the clock.
	Seed int64 `json:"seed" yaml:"seed"`

	Log LogConfig `json:"log" yaml:"log"`

	// Receiver settings.
	BaseURL   string `json:"baseURL" yaml:"baseURL"`
	OutputDir string `json:"outputDir" yaml:"outputDir"`
}

// LogConfig selects the process logger.
type LogConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
	// RedactKeys replaces the value of matching field keys with [REDACTED].
	RedactKeys []string `json:"redactKeys" yaml:"redactKeys"`
	// SampleInitial/SampleThereafter keep the first SampleInitial records of
	// each message, then every SampleThereafter-th. Zero disables sampling.
	SampleInitial    int `json:"sampleInitial" yaml:"sampleInitial"`
	SampleThereafter int `json:"sampleThereafter" yaml:"sampleThereafter"`
}

// Default returns built-in defaults.
func Default() Config {
	return Config{
		NumberOfFiles:             100,
		MaxItemsReturned:          50,
		RetryAfter:                100,
		RetryAfterMoreData:        10,
		RetryAfterTooManyRequests: 360,
		MaxRequestsPerMinute:      200,
		ReceiptLifetimeSeconds:    200,
		Port:                      8080,
		GRPCAddr:                  "",
		Log:                       LogConfig{Level: "info", Format: "text"},
		BaseURL:                   "http://localhost:8080",
		OutputDir:                 DefaultOutputDir(),
	}
}

// ReceiptLifetime returns the receipt lifetime as a duration.
func (c Config) ReceiptLifetime() time.Duration {
	return time.Duration(c.ReceiptLifetimeSeconds) * time.Second
}

// PollDelay is the Retry-After advertised after a successful fetch:
// RetryAfterMoreData while entries remain, RetryAfter once drained.
func (c Config) PollDelay(hasMore bool) time.Duration {
	if hasMore {
		return time.Duration(c.RetryAfterMoreData) * time.Second
	}
	return time.Duration(c.RetryAfter) * time.Second
}

// HTTPAddr is the listen address derived from Port.
func (c Config) HTTPAddr() string { return ":" + strconv.Itoa(c.Port) }

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	switch {
	case c.NumberOfFiles < 0:
		return fmt.Errorf("numberOfFiles must be >= 0, got %d", c.NumberOfFiles)
	case c.MaxItemsReturned < 1:
		return fmt.Errorf("maxItemsReturned must be >= 1, got %d", c.MaxItemsReturned)
	case c.RetryAfter < 0 || c.RetryAfterMoreData < 0 || c.RetryAfterTooManyRequests < 0:
		return errors.New("retry-after values must be >= 0")
	case c.ReceiptLifetimeSeconds < 1:
		return fmt.Errorf("receiptLifetimeSeconds must be >= 1, got %d", c.ReceiptLifetimeSeconds)
	case c.Port < 0 || c.Port > 65535:
		return fmt.Errorf("port out of range: %d", c.Port)
	}
	return nil
}

// Load reads configuration from a JSON or YAML file (by extension) on top
// of the defaults. If path is empty, returns defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse yaml config: %w", err)
		}
	default:
		if err := json.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse json config: %w", err)
		}
	}
	return cfg, nil
}
