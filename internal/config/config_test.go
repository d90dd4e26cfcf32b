package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadReadsYAML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
server:
  port: "9090"
  allowedOrigins: ["http://localhost:3000"]
redis:
  addr: localhost:6379
  ttl: 5m
quiz:
  ttl: 2m
  datasetDir: ./datasets
  defaultLimit: 20
results:
  driver: sqlite
sqlite:
  path: /tmp/results.db
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "9090" || len(cfg.Server.AllowedOrigins) != 1 {
		t.Fatalf("unexpected server section: %+v", cfg.Server)
	}
	if cfg.Quiz.DatasetDir != "./datasets" || cfg.Quiz.DefaultLimit != 20 {
		t.Fatalf("unexpected quiz section: %+v", cfg.Quiz)
	}
	if cfg.Results.Driver != ResultsSQLite || cfg.SQLite.Path != "/tmp/results.db" {
		t.Fatalf("unexpected results config: %+v %+v", cfg.Results, cfg.SQLite)
	}
	if cfg.AMQP.Exchange != "quiz.events" {
		t.Fatalf("expected default exchange, got %q", cfg.AMQP.Exchange)
	}
	if got := TTLDuration(cfg.Redis.TTL, time.Minute); got != 5*time.Minute {
		t.Fatalf("expected 5m redis ttl, got %v", got)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Results.Driver != ResultsMemory {
		t.Fatalf("expected memory results driver, got %q", cfg.Results.Driver)
	}
	if cfg.SQLite.Path == "" {
		t.Fatalf("expected default sqlite path")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "7070")
	t.Setenv("POSTGRES_URL", "postgres://quiz@localhost/quiz")
	t.Setenv("DATASET_DIR", "/data")
	t.Setenv("REDIS_DB", "3")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "7070" || cfg.Quiz.DatasetDir != "/data" || cfg.Redis.DB != 3 {
		t.Fatalf("env overrides not applied: %+v", cfg)
	}
	if cfg.Results.Driver != ResultsPostgres {
		t.Fatalf("expected postgres driver when a postgres url is set, got %q", cfg.Results.Driver)
	}
}

func TestLoadRejectsBadYAML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server: [unclosed"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected yaml error")
	}
}

func TestTTLDuration(t *testing.T) {
	if got := TTLDuration("", time.Minute); got != time.Minute {
		t.Fatalf("empty: got %v", got)
	}
	if got := TTLDuration("bogus", time.Minute); got != time.Minute {
		t.Fatalf("invalid: got %v", got)
	}
	if got := TTLDuration("90s", time.Minute); got != 90*time.Second {
		t.Fatalf("valid: got %v", got)
	}
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"PORT", "REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB", "POSTGRES_URL",
		"AMQP_URL", "RESULTS_DRIVER", "DATASET_DIR", "SQLITE_PATH"} {
		t.Setenv(key, "")
	}
}
