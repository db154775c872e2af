package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Engine struct {
		StartPrice   float64       `yaml:"start_price"`
		TickMin      time.Duration `yaml:"tick_min"`
		TickMax      time.Duration `yaml:"tick_max"`
		ArchiveBatch int           `yaml:"archive_batch"`
	} `yaml:"engine"`
	Wager struct {
		AscendWinProb    float64       `yaml:"ascend_win_prob"`
		AscendPayoutRate float64       `yaml:"ascend_payout_rate"`
		AscendDuration   time.Duration `yaml:"ascend_duration"`
		CrashPreRoll     time.Duration `yaml:"crash_pre_roll"`
		CrashTickEvery   time.Duration `yaml:"crash_tick_every"`
		CrashTurboProb   float64       `yaml:"crash_turbo_prob"`
	} `yaml:"wager"`
	Ledger struct {
		SettleDelay time.Duration `yaml:"settle_delay"`
	} `yaml:"ledger"`
	Accounts struct {
		Backend string `yaml:"backend"` // memory or redis
		Redis   struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
	} `yaml:"accounts"`
	Archive struct {
		Enabled    bool   `yaml:"enabled"`
		TickTable  string `yaml:"tick_table"`
		TradeTable string `yaml:"trade_table"`
	} `yaml:"archive"`
	ClickHouse struct {
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		WriteTimeout     time.Duration `yaml:"write_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
	Events struct {
		Enabled bool   `yaml:"enabled"`
		Topic   string `yaml:"topic"`
	} `yaml:"events"`
	Kafka struct {
		Brokers      []string `yaml:"brokers"`
		RequiredAcks int      `yaml:"required_acks"`
		Compression  string   `yaml:"compression"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			BatchBytes   int           `yaml:"batch_bytes"`
			BatchSize    int           `yaml:"batch_size"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
	} `yaml:"kafka"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// Validate required fields
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	// Override with environment variables
	if v := os.Getenv("ACCOUNTS_BACKEND"); v != "" {
		c.Accounts.Backend = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Accounts.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Accounts.Redis.Password = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("EVENTS_TOPIC"); v != "" {
		c.Events.Topic = v
	}
	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
	}

	return c, nil
}

// Validate checks if the configuration is valid and fills defaults.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Accounts.Backend == "" {
		c.Accounts.Backend = "memory"
	}
	if c.Accounts.Backend != "memory" && c.Accounts.Backend != "redis" {
		return fmt.Errorf("accounts.backend must be 'memory' or 'redis', got '%s'", c.Accounts.Backend)
	}
	if c.Accounts.Backend == "redis" && c.Accounts.Redis.Addr == "" {
		return fmt.Errorf("accounts.redis.addr is required for the redis backend")
	}
	if c.Archive.Enabled && c.ClickHouse.Host == "" {
		return fmt.Errorf("clickhouse.host is required when archive is enabled")
	}
	if c.Events.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("kafka.brokers cannot be empty when events are enabled")
		}
		if c.Events.Topic == "" {
			return fmt.Errorf("events.topic is required when events are enabled")
		}
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	return nil
}
