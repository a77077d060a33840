package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment" default:"development"`
	Server      struct {
		Host            string        `yaml:"host" default:"0.0.0.0"`
		Port            int           `yaml:"port" default:"8080"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"30s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
		SlowRequest     time.Duration `yaml:"slow_request" default:"1s"`
		CORS            bool          `yaml:"cors" default:"true"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level" default:"info"`
		Format string `yaml:"format" default:"json"`
		Output string `yaml:"output" default:"stdout"`
	} `yaml:"log"`
	Metrics struct {
		Enabled bool `yaml:"enabled" default:"true"`
	} `yaml:"metrics"`
	Engine struct {
		Version          string  `yaml:"version" default:"1.0.0"`
		RecordDecisions  bool    `yaml:"record_decisions" default:"false"`
		CouncilWorkers   int     `yaml:"council_workers" default:"4"`
		OutlierWindow    int     `yaml:"outlier_window" default:"20"`
		OutlierThreshold float64 `yaml:"outlier_threshold" default:"2.5"`
	} `yaml:"engine"`
	RateLimit struct {
		Capacity     float64 `yaml:"capacity" default:"20"`
		RefillPerSec float64 `yaml:"refill_per_sec" default:"2"`
	} `yaml:"rate_limit"`
	Ledger struct {
		Backend string `yaml:"backend" default:"memory"`
		Key     string `yaml:"key" default:"signalfusion:ledger"`
		Table   string `yaml:"table" default:"ledger_entries"`
		Breaker struct {
			Failures uint32        `yaml:"failures" default:"3"`
			Timeout  time.Duration `yaml:"timeout" default:"30s"`
		} `yaml:"breaker"`
		Retry struct {
			Max     uint64        `yaml:"max" default:"2"`
			Initial time.Duration `yaml:"initial" default:"100ms"`
		} `yaml:"retry"`
	} `yaml:"ledger"`
	Decay struct {
		SweepInterval time.Duration `yaml:"sweep_interval" default:"1m"`
	} `yaml:"decay"`
	Redis struct {
		Host     string `yaml:"host" default:"localhost"`
		Port     int    `yaml:"port" default:"6379"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		PoolSize int    `yaml:"pool_size" default:"10"`
	} `yaml:"redis"`
	ClickHouse struct {
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port" default:"9000"`
		Database         string        `yaml:"database" default:"signalfusion"`
		User             string        `yaml:"user" default:"default"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout      time.Duration `yaml:"read_timeout" default:"10s"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
	Postgres struct {
		DSN          string        `yaml:"dsn"`
		MaxOpenConns int           `yaml:"max_open_conns" default:"10"`
		MaxIdleConns int           `yaml:"max_idle_conns" default:"5"`
		QueryTimeout time.Duration `yaml:"query_timeout" default:"10s"`
	} `yaml:"postgres"`
	Kafka struct {
		Brokers        []string `yaml:"brokers"`
		Compression    string   `yaml:"compression" default:"snappy"`
		RequiredAcks   int      `yaml:"required_acks" default:"-1"`
		DecisionsTopic string   `yaml:"decisions_topic" default:"signalfusion.decisions"`
		OutcomesTopic  string   `yaml:"outcomes_topic" default:"signalfusion.outcomes"`
		AutoCreate     bool     `yaml:"auto_create_topics"`
		Producer       struct {
			MaxAttempts  int           `yaml:"max_attempts" default:"3"`
			BatchTimeout time.Duration `yaml:"batch_timeout" default:"50ms"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Consumer struct {
			GroupID    string        `yaml:"group_id" default:"signalfusion"`
			Workers    int           `yaml:"workers" default:"2"`
			RetryMax   int           `yaml:"retry_max" default:"3"`
			BackoffMin time.Duration `yaml:"backoff_min" default:"50ms"`
			BackoffMax time.Duration `yaml:"backoff_max" default:"2s"`
			DLQTopic   string        `yaml:"dlq_topic"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
}

// KafkaEnabled reports whether any brokers are configured.
func (c *Config) KafkaEnabled() bool { return len(c.Kafka.Brokers) > 0 }

// Load reads a YAML file over the defaults. An empty path yields the
// defaults alone.
func Load(path string) (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

// LoadWithEnv loads .env (when present), then the YAML file, then applies
// environment overrides.
func LoadWithEnv(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	c, err := Load(path)
	if err != nil {
		return nil, err
	}
	if err := c.applyEnv(); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv() error {
	str := map[string]*string{
		"SIGNALFUSION_ENV":    &c.Environment,
		"LOG_LEVEL":           &c.Log.Level,
		"LEDGER_BACKEND":      &c.Ledger.Backend,
		"REDIS_HOST":          &c.Redis.Host,
		"REDIS_PASSWORD":      &c.Redis.Password,
		"CLICKHOUSE_HOST":     &c.ClickHouse.Host,
		"CLICKHOUSE_PASSWORD": &c.ClickHouse.Password,
		"POSTGRES_DSN":        &c.Postgres.DSN,
	}
	for key, dst := range str {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	if v := os.Getenv("HTTP_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("HTTP_PORT: %w", err)
		}
		c.Server.Port = port
	}
	if v := os.Getenv("RECORD_DECISIONS"); v != "" {
		on, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("RECORD_DECISIONS: %w", err)
		}
		c.Engine.RecordDecisions = on
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Engine.CouncilWorkers < 1 {
		return fmt.Errorf("engine.council_workers must be at least 1")
	}
	switch c.Ledger.Backend {
	case "memory", "redis":
	case "clickhouse":
		if c.ClickHouse.Host == "" {
			return fmt.Errorf("clickhouse.host is required for the clickhouse ledger backend")
		}
	case "postgres":
		if c.Postgres.DSN == "" {
			return fmt.Errorf("postgres.dsn is required for the postgres ledger backend")
		}
	default:
		return fmt.Errorf("ledger.backend must be memory, redis, clickhouse or postgres, got '%s'", c.Ledger.Backend)
	}
	return nil
}
