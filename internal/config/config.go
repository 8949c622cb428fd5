package config

import (
	"fmt"
	"time"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
)

type Config struct {
	CohereAPIKey          string        `env:"COHERE_API_KEY"`
	CohereBaseURL         string        `env:"COHERE_BASE_URL,default=https://api.cohere.ai"`
	CohereModel           string        `env:"COHERE_MODEL,default=command"`
	OpenAIAPIKey          string        `env:"OPENAI_API_KEY"`
	OpenAIBaseURL         string        `env:"OPENAI_BASE_URL,default=https://api.openai.com"`
	GenerationTimeout     time.Duration `env:"GENERATION_TIMEOUT,default=60s"`
	TranscriptionTimeout  time.Duration `env:"TRANSCRIPTION_TIMEOUT,default=120s"`
	DatasetPath           string        `env:"DATASET_PATH,default=data/final-refined-fine-dining-dataset.json"`
	DatasetReloadInterval time.Duration `env:"DATASET_RELOAD_INTERVAL,default=30s"`
	BucketsPath           string        `env:"BUCKETS_PATH"`
	FollowUpBatchSize     int           `env:"FOLLOWUP_BATCH_SIZE,default=20"`
	WorkerConcurrency     int           `env:"WORKER_CONCURRENCY,default=0"`
	RateLimitPerSec       int           `env:"RATE_LIMIT_PER_SEC,default=10"`
	RedisURL              string        `env:"REDIS_URL"`
	ReportCacheTTL        time.Duration `env:"REPORT_CACHE_TTL,default=1h"`
	APIPort               int           `env:"API_PORT,default=8080"`
	LogLevel              string        `env:"LOG_LEVEL,default=info"`
	MaxUploadMB           int           `env:"MAX_UPLOAD_MB,default=25"`
}

// Load reads an optional .env file and then the process environment.
// Variables already set in the environment win over the file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	_, err := env.UnmarshalFromEnviron(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.FollowUpBatchSize <= 0 {
		return fmt.Errorf("FOLLOWUP_BATCH_SIZE must be positive, got %d", c.FollowUpBatchSize)
	}
	if c.WorkerConcurrency < 0 {
		return fmt.Errorf("WORKER_CONCURRENCY must not be negative, got %d", c.WorkerConcurrency)
	}
	if c.MaxUploadMB <= 0 {
		return fmt.Errorf("MAX_UPLOAD_MB must be positive, got %d", c.MaxUploadMB)
	}
	return nil
}

func (c *Config) HasGenerationCredentials() bool {
	return c.CohereAPIKey != ""
}

func (c *Config) HasTranscriptionCredentials() bool {
	return c.OpenAIAPIKey != ""
}
