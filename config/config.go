package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration
type Config struct {
	// Server
	ServerPort     string   `yaml:"server_port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	MaxUploadBytes int64    `yaml:"max_upload_bytes"`

	// Database (empty disables persistence)
	DatabaseURL string `yaml:"database_url"`

	// Streaming
	BroadcastInterval time.Duration `yaml:"broadcast_interval"`
	SendTimeout       time.Duration `yaml:"send_timeout"`
	MaxPredictions    int           `yaml:"max_predictions"`

	// S3 dataset archive (empty bucket disables it)
	AWSRegion     string `yaml:"aws_region"`
	DatasetBucket string `yaml:"dataset_bucket"`
	DatasetPrefix string `yaml:"dataset_prefix"`

	// Monitoring (empty disables the periodic status report)
	StatusReportSchedule string `yaml:"status_report_schedule"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		ServerPort:           "8000",
		AllowedOrigins:       []string{"http://localhost:4200", "http://localhost:3000"},
		MaxUploadBytes:       100 * 1024 * 1024,
		BroadcastInterval:    2 * time.Second,
		SendTimeout:          time.Second,
		MaxPredictions:       1000,
		AWSRegion:            "us-east-1",
		DatasetPrefix:        "datasets",
		StatusReportSchedule: "@every 1m",
	}
}

// Load loads configuration from the defaults, then the YAML file named by
// CONFIG_FILE (if any), then environment variables
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.ServerPort = getEnv("SERVER_PORT", cfg.ServerPort)
	cfg.DatabaseURL = getEnv("DATABASE_URL", cfg.DatabaseURL)
	cfg.AWSRegion = getEnv("AWS_REGION", cfg.AWSRegion)
	cfg.DatasetBucket = getEnv("DATASET_BUCKET", cfg.DatasetBucket)
	cfg.DatasetPrefix = getEnv("DATASET_PREFIX", cfg.DatasetPrefix)
	cfg.StatusReportSchedule = getEnv("STATUS_REPORT_SCHEDULE", cfg.StatusReportSchedule)
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		cfg.AllowedOrigins = splitList(origins)
	}

	var err error
	if cfg.BroadcastInterval, err = getEnvDuration("BROADCAST_INTERVAL", cfg.BroadcastInterval); err != nil {
		return nil, err
	}
	if cfg.SendTimeout, err = getEnvDuration("SEND_TIMEOUT", cfg.SendTimeout); err != nil {
		return nil, err
	}
	if cfg.MaxPredictions, err = getEnvInt("MAX_PREDICTIONS", cfg.MaxPredictions); err != nil {
		return nil, err
	}
	maxUpload, err := getEnvInt("MAX_UPLOAD_BYTES", int(cfg.MaxUploadBytes))
	if err != nil {
		return nil, err
	}
	cfg.MaxUploadBytes = int64(maxUpload)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values the service cannot run with
func (c *Config) Validate() error {
	if c.ServerPort == "" {
		return fmt.Errorf("server port must be set")
	}
	if c.BroadcastInterval <= 0 {
		return fmt.Errorf("broadcast interval must be positive, got %s", c.BroadcastInterval)
	}
	if c.SendTimeout <= 0 {
		return fmt.Errorf("send timeout must be positive, got %s", c.SendTimeout)
	}
	if c.MaxPredictions < 0 {
		return fmt.Errorf("max predictions must not be negative, got %d", c.MaxPredictions)
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("max upload bytes must be positive, got %d", c.MaxUploadBytes)
	}
	return nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
