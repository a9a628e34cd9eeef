// Package config loads server configuration from an optional YAML file with
// environment-variable overrides. Environment always wins, so deployments
// can keep a checked-in file and override secrets per host.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config aggregates application configuration values.
type Config struct {
	HTTP    HTTPConfig    `yaml:"http"`
	Storage StorageConfig `yaml:"storage"`
	Kafka   KafkaConfig   `yaml:"kafka"`
	Logging LoggingConfig `yaml:"logging"`

	// AdminToken gates every mutating endpoint. Empty disables the gate,
	// which is only acceptable in local development.
	AdminToken string `yaml:"admin_token"`
}

type HTTPConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig selects the ledger store backend.
// Driver is one of "memory", "sqlite", "postgres".
type StorageConfig struct {
	Driver   string `yaml:"driver"`
	DSN      string `yaml:"dsn"`       // postgres connection string
	FilePath string `yaml:"file_path"` // sqlite database file
}

type KafkaConfig struct {
	Enabled bool     `yaml:"enabled"`
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text|json
}

const (
	defaultHost          = "0.0.0.0"
	defaultPort          = 8080
	defaultDriver        = "memory"
	defaultSQLitePath    = "saco.db"
	defaultKafkaTopic    = "transaction.recorded"
	defaultLoggingLevel  = "info"
	defaultLoggingFormat = "text"
)

// Load builds the configuration. When path is non-empty the YAML file is
// read first; environment variables then override field by field.
func Load(path string) (Config, error) {
	cfg := Config{
		HTTP:    HTTPConfig{Host: defaultHost, Port: defaultPort},
		Storage: StorageConfig{Driver: defaultDriver, FilePath: defaultSQLitePath},
		Kafka:   KafkaConfig{Topic: defaultKafkaTopic},
		Logging: LoggingConfig{Level: defaultLoggingLevel, Format: defaultLoggingFormat},
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnv(&cfg)

	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.HTTP.Host, "SACO_HTTP_HOST")
	setInt(&cfg.HTTP.Port, "SACO_HTTP_PORT")
	setString(&cfg.Storage.Driver, "SACO_STORAGE_DRIVER")
	setString(&cfg.Storage.DSN, "SACO_POSTGRES_DSN")
	setString(&cfg.Storage.FilePath, "SACO_SQLITE_PATH")
	setBool(&cfg.Kafka.Enabled, "SACO_KAFKA_ENABLED")
	setString(&cfg.Kafka.Topic, "SACO_KAFKA_TOPIC")
	setString(&cfg.AdminToken, "SACO_ADMIN_TOKEN")
	setString(&cfg.Logging.Level, "SACO_LOG_LEVEL")
	setString(&cfg.Logging.Format, "SACO_LOG_FORMAT")

	if v := os.Getenv("SACO_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = splitCSV(v)
	}
}

func validate(cfg Config) error {
	switch cfg.Storage.Driver {
	case "memory":
	case "sqlite":
		if cfg.Storage.FilePath == "" {
			return fmt.Errorf("sqlite driver requires a file path")
		}
	case "postgres":
		if cfg.Storage.DSN == "" {
			return fmt.Errorf("postgres driver requires SACO_POSTGRES_DSN")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}

	if cfg.Kafka.Enabled && len(cfg.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka enabled but no brokers configured")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
