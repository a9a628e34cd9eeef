package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.HTTP.Port != 8080 {
		t.Fatalf("port=%d want 8080", cfg.HTTP.Port)
	}
	if cfg.Storage.Driver != "memory" {
		t.Fatalf("driver=%q want memory", cfg.Storage.Driver)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "text" {
		t.Fatalf("unexpected logging defaults: %+v", cfg.Logging)
	}
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "saco.yaml")
	data := []byte(`
http:
  port: 9090
storage:
  driver: sqlite
  file_path: /var/lib/saco/ledger.db
kafka:
  enabled: true
  brokers: [localhost:9092]
admin_token: secret
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.HTTP.Port != 9090 {
		t.Fatalf("port=%d want 9090", cfg.HTTP.Port)
	}
	if cfg.Storage.Driver != "sqlite" || cfg.Storage.FilePath != "/var/lib/saco/ledger.db" {
		t.Fatalf("unexpected storage config: %+v", cfg.Storage)
	}
	if !cfg.Kafka.Enabled || len(cfg.Kafka.Brokers) != 1 {
		t.Fatalf("unexpected kafka config: %+v", cfg.Kafka)
	}
	if cfg.AdminToken != "secret" {
		t.Fatalf("admin token not read from file")
	}
}

func TestEnvironmentOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "saco.yaml")
	if err := os.WriteFile(path, []byte("http:\n  port: 9090\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("SACO_HTTP_PORT", "7070")
	t.Setenv("SACO_KAFKA_BROKERS", "a:9092, b:9092")
	t.Setenv("SACO_KAFKA_ENABLED", "true")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.HTTP.Port != 7070 {
		t.Fatalf("port=%d: environment must win over the file", cfg.HTTP.Port)
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[1] != "b:9092" {
		t.Fatalf("broker list not parsed from CSV: %+v", cfg.Kafka.Brokers)
	}
}

func TestLoadRejectsBadDriver(t *testing.T) {
	t.Setenv("SACO_STORAGE_DRIVER", "oracle")
	if _, err := Load(""); err == nil {
		t.Fatal("expected an error for an unknown driver")
	}
}

func TestPostgresDriverRequiresDSN(t *testing.T) {
	t.Setenv("SACO_STORAGE_DRIVER", "postgres")
	if _, err := Load(""); err == nil {
		t.Fatal("expected an error when the DSN is missing")
	}
}
