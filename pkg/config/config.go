package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"HemoWatch/internal/services/drift"
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
	Backend struct {
		Type         string        `yaml:"type"` // "kafka" or "clickhouse"
		BatchSize    int           `yaml:"batch_size"`
		BatchTimeout time.Duration `yaml:"batch_timeout"`
	} `yaml:"backend"`
	Kafka struct {
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic"`       // accepted samples
		AlarmTopic   string   `yaml:"alarm_topic"` // drift alarms
		RequiredAcks int      `yaml:"required_acks"`
		Compression  string   `yaml:"compression"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			BatchBytes   int           `yaml:"batch_bytes"`
			BatchSize    int           `yaml:"batch_size"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Consumer struct {
			GroupID    string        `yaml:"group_id"`
			Workers    int           `yaml:"workers"`
			BufferSize int           `yaml:"buffer_size"`
			RetryMax   int           `yaml:"retry_max"`
			BackoffMin time.Duration `yaml:"backoff_min"`
			BackoffMax time.Duration `yaml:"backoff_max"`
			DLQTopic   string        `yaml:"dlq_topic"`
			MinBytes   int           `yaml:"min_bytes"`
			MaxBytes   int           `yaml:"max_bytes"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
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
	Gateway struct {
		APIKey         string        `yaml:"api_key"`
		WebSocketURL   string        `yaml:"websocket_url"`
		BackfillURL    string        `yaml:"backfill_url"`
		Patients       []string      `yaml:"patients"`
		ReconnectDelay time.Duration `yaml:"reconnect_delay"`
		PingInterval   time.Duration `yaml:"ping_interval"`
		Timeout        time.Duration `yaml:"timeout"`
	} `yaml:"gateway"`
	Monitor struct {
		Drift          drift.Config  `yaml:"drift"`
		ScreenAlpha    float64       `yaml:"screen_alpha"`
		BaselineWindow int           `yaml:"baseline_window"` // accepted samples screened against
		MinBaseline    int           `yaml:"min_baseline"`    // below this the screen is skipped
		Blanking       float64       `yaml:"blanking"`
		Quantize       string        `yaml:"quantize"`
		ReportTTL      time.Duration `yaml:"report_ttl"` // drift report cache
		MaxSessionRate int           `yaml:"max_session_rate"`
		Redis          struct {
			Enabled  bool   `yaml:"enabled"`
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
	} `yaml:"monitor"`
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

	if v := os.Getenv("GATEWAY_API_KEY"); v != "" {
		c.Gateway.APIKey = v
	}
	if v := os.Getenv("PATIENTS"); v != "" {
		c.Gateway.Patients = strings.Split(v, ",")
	}
	if v := os.Getenv("BACKEND"); v != "" {
		c.Backend.Type = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
	if v := os.Getenv("KAFKA_ALARM_TOPIC"); v != "" {
		c.Kafka.AlarmTopic = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Monitor.Redis.Addr = v
	}

	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Backend.Type == "" {
		return fmt.Errorf("backend.type is required")
	}
	if c.Backend.Type != "kafka" && c.Backend.Type != "clickhouse" {
		return fmt.Errorf("backend.type must be 'kafka' or 'clickhouse', got '%s'", c.Backend.Type)
	}
	if len(c.Gateway.Patients) == 0 {
		return fmt.Errorf("gateway.patients cannot be empty")
	}
	if q := c.Monitor.Quantize; q != "" && q != "round" && q != "floor" {
		return fmt.Errorf("monitor.quantize must be 'round' or 'floor', got '%s'", q)
	}
	if a := c.Monitor.ScreenAlpha; a < 0 || a >= 1 {
		return fmt.Errorf("monitor.screen_alpha must be in [0, 1), got %v", a)
	}
	return nil
}

// ScreenAlpha returns the configured screen significance level or the default.
func (c *Config) ScreenAlpha() float64 {
	if c.Monitor.ScreenAlpha > 0 {
		return c.Monitor.ScreenAlpha
	}
	return 0.01
}

// BaselineWindow returns the configured baseline window or the default.
func (c *Config) BaselineWindow() int {
	if c.Monitor.BaselineWindow > 0 {
		return c.Monitor.BaselineWindow
	}
	return 30
}

// MinBaseline returns the minimum reference points required to screen.
func (c *Config) MinBaseline() int {
	if c.Monitor.MinBaseline >= 2 {
		return c.Monitor.MinBaseline
	}
	return 5
}

// Blanking returns the configured refractory interval or the default.
func (c *Config) Blanking() float64 {
	if c.Monitor.Blanking > 0 {
		return c.Monitor.Blanking
	}
	return 0.1
}

// Quantize returns the configured quantization mode or the default.
func (c *Config) Quantize() string {
	if c.Monitor.Quantize != "" {
		return c.Monitor.Quantize
	}
	return "round"
}
