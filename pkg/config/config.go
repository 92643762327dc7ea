// Package config loads and validates application configuration from YAML files
// with environment-variable overrides. It provides typed structs for every
// subsystem (Server, Redis, Kafka, Indexer, Search, Correction, etc.).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Redis      RedisConfig      `yaml:"redis"`
	Kafka      KafkaConfig      `yaml:"kafka"`
	Indexer    IndexerConfig    `yaml:"indexer"`
	Search     SearchConfig     `yaml:"search"`
	Correction CorrectionConfig `yaml:"correction"`
	Logging    LoggingConfig    `yaml:"logging"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

// RedisConfig holds Redis connection and caching parameters. An empty Addr
// disables Redis and the searcher falls back to an in-process cache.
type RedisConfig struct {
	Addr          string        `yaml:"addr"`
	Password      string        `yaml:"password"`
	DB            int           `yaml:"db"`
	PoolSize      int           `yaml:"poolSize"`
	CacheTTL      time.Duration `yaml:"cacheTTL"`
	LocalCapacity int           `yaml:"localCapacity"`
}

// KafkaConfig holds Kafka broker and topic settings. With no brokers the
// index-complete notification is skipped.
type KafkaConfig struct {
	Brokers       []string    `yaml:"brokers"`
	ConsumerGroup string      `yaml:"consumerGroup"`
	Topics        KafkaTopics `yaml:"topics"`
}

// KafkaTopics maps logical topic names to their Kafka topic strings.
type KafkaTopics struct {
	IndexComplete string `yaml:"indexComplete"`
}

// Enabled reports whether any broker is configured.
func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

// IndexerConfig controls where documents are read from, where the index
// files are written, and how many documents are processed concurrently.
type IndexerConfig struct {
	DocsDir    string   `yaml:"docsDir"`
	OutputDir  string   `yaml:"outputDir"`
	Workers    int      `yaml:"workers"`
	Extensions []string `yaml:"extensions"`
	StrictLoad bool     `yaml:"strictLoad"`
}

// SearchConfig controls query execution limits.
type SearchConfig struct {
	MaxResults   int    `yaml:"maxResults"`
	DefaultLimit int    `yaml:"defaultLimit"`
	Intersection string `yaml:"intersection"`
}

// CorrectionConfig holds the thresholds of the approximate correction
// engine.
type CorrectionConfig struct {
	MinSimilarity   float64 `yaml:"minSimilarity"`
	MinDocFreq      int     `yaml:"minDocFreq"`
	JaccardTopN     int     `yaml:"jaccardTopN"`
	MaxEditDistance int     `yaml:"maxEditDistance"`
	EditMinDocFreq  int     `yaml:"editMinDocFreq"`
	EditTopN        int     `yaml:"editTopN"`
	MaxAlternatives int     `yaml:"maxAlternatives"`
	TopAlternatives int     `yaml:"topAlternatives"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load reads a YAML config file (if provided) and applies environment-variable
// overrides. It returns a Config populated with defaults for any missing
// values.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns a Config with the defaults used for local development.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Redis: RedisConfig{
			PoolSize:      10,
			CacheTTL:      60 * time.Second,
			LocalCapacity: 1024,
		},
		Kafka: KafkaConfig{
			ConsumerGroup: "textsearch-searcher",
			Topics: KafkaTopics{
				IndexComplete: "index.complete",
			},
		},
		Indexer: IndexerConfig{
			DocsDir:    "crawled_pages",
			OutputDir:  "output",
			Workers:    10,
			Extensions: []string{".html", ".htm", ".txt"},
		},
		Search: SearchConfig{
			MaxResults:   1000,
			DefaultLimit: 50,
			Intersection: "galloping",
		},
		Correction: CorrectionConfig{
			MinSimilarity:   0.3,
			MinDocFreq:      20,
			JaccardTopN:     7,
			MaxEditDistance: 2,
			EditMinDocFreq:  0,
			EditTopN:        5,
			MaxAlternatives: 10,
			TopAlternatives: 3,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
		},
	}
}

// Validate rejects settings the engines cannot run with.
func (c *Config) Validate() error {
	if c.Indexer.Workers < 1 {
		return fmt.Errorf("indexer.workers must be positive, got %d", c.Indexer.Workers)
	}
	switch c.Search.Intersection {
	case "linear", "galloping":
	default:
		return fmt.Errorf("search.intersection must be linear or galloping, got %q", c.Search.Intersection)
	}
	if c.Correction.MinSimilarity < 0 || c.Correction.MinSimilarity > 1 {
		return fmt.Errorf("correction.minSimilarity must be within [0,1], got %v", c.Correction.MinSimilarity)
	}
	if c.Correction.MaxAlternatives < 1 || c.Correction.TopAlternatives < 1 {
		return fmt.Errorf("correction.maxAlternatives and correction.topAlternatives must be positive")
	}
	if c.Correction.JaccardTopN < 1 || c.Correction.EditTopN < 1 {
		return fmt.Errorf("correction.jaccardTopN and correction.editTopN must be positive, got %d and %d",
			c.Correction.JaccardTopN, c.Correction.EditTopN)
	}
	if c.Correction.MaxEditDistance < 0 {
		return fmt.Errorf("correction.maxEditDistance must not be negative, got %d", c.Correction.MaxEditDistance)
	}
	return nil
}

// applyEnvOverrides reads TS_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TS_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("TS_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("TS_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("TS_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("TS_INDEXER_DOCS_DIR"); v != "" {
		cfg.Indexer.DocsDir = v
	}
	if v := os.Getenv("TS_INDEXER_OUTPUT_DIR"); v != "" {
		cfg.Indexer.OutputDir = v
	}
	if v := os.Getenv("TS_INDEXER_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Indexer.Workers = n
		}
	}
	if v := os.Getenv("TS_SEARCH_INTERSECTION"); v != "" {
		cfg.Search.Intersection = v
	}
	if v := os.Getenv("TS_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("TS_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("TS_METRICS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Metrics.Port = port
		}
	}
}
