package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the inference server and worker pool.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Predictor PredictorConfig
	Worker    WorkerConfig
}

type ServerConfig struct {
	Port int
	Env  string
}

type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	URL string
}

// PredictorConfig points the worker pool at the classifier backend.
type PredictorConfig struct {
	BaseURL string
	Device  string // cpu | gpu
}

// WorkerConfig holds every worker pool tunable, each with the
// documented default.
type WorkerConfig struct {
	Count              int
	BatchWindow        time.Duration
	MaxBatchSize       int
	BRPOPTimeout       time.Duration
	InferenceTimeout   time.Duration
	MaxRetries         int
	ImageTTL           time.Duration
	RetryTTL           time.Duration
	StuckInProgress    time.Duration
	StuckQueued        time.Duration
	SupervisorTick     time.Duration
	RecoveryPeriod     time.Duration
}

var validDevices = map[string]bool{"cpu": true, "gpu": true}

// Load reads configuration from environment variables and returns a validated Config.
// Returns an error with a descriptive message if any required value is missing or invalid.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: envInt("SERVER_PORT", 8080),
			Env:  envString("SERVER_ENV", "development"),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    envInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: envDuration("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			URL: os.Getenv("REDIS_URL"),
		},
		Predictor: PredictorConfig{
			BaseURL: envString("PREDICTOR_BASE_URL", "http://localhost:9000"),
			Device:  envString("INFERENCE_DEVICE", "cpu"),
		},
		Worker: WorkerConfig{
			Count:            envInt("WORKER_COUNT", 2),
			BatchWindow:      envDurationMillis("BATCH_WINDOW_MS", 30*time.Millisecond),
			MaxBatchSize:     envInt("MAX_BATCH_SIZE", 8),
			BRPOPTimeout:     envDurationSecs("BRPOP_TIMEOUT_S", 5*time.Second),
			InferenceTimeout: envDurationSecs("INFERENCE_TIMEOUT_S", 10*time.Second),
			MaxRetries:       envInt("MAX_RETRIES", 3),
			ImageTTL:         envDurationSecs("IMAGE_TTL_S", 600*time.Second),
			RetryTTL:         envDurationSecs("RETRY_TTL_S", 3600*time.Second),
			StuckInProgress:  envDurationSecs("STUCK_IN_PROGRESS_S", 600*time.Second),
			StuckQueued:      envDurationSecs("STUCK_QUEUED_S", 300*time.Second),
			SupervisorTick:   envDurationSecs("SUPERVISOR_TICK_S", 3*time.Second),
			RecoveryPeriod:   envDurationSecs("RECOVERY_PERIOD_S", 600*time.Second),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}

	if !validDevices[c.Predictor.Device] {
		return fmt.Errorf("INFERENCE_DEVICE must be one of cpu, gpu; got %q", c.Predictor.Device)
	}

	if c.Worker.Count < 1 {
		return fmt.Errorf("WORKER_COUNT must be at least 1, got %d", c.Worker.Count)
	}
	if c.Worker.MaxBatchSize < 1 {
		return fmt.Errorf("MAX_BATCH_SIZE must be at least 1, got %d", c.Worker.MaxBatchSize)
	}
	if c.Worker.MaxRetries < 0 {
		return fmt.Errorf("MAX_RETRIES must be non-negative, got %d", c.Worker.MaxRetries)
	}

	return nil
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}

func envDurationSecs(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	secs, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return time.Duration(secs) * time.Second
}

func envDurationMillis(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	ms, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return time.Duration(ms) * time.Millisecond
}
