package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Result store drivers.
const (
	ResultsMemory   = "memory"
	ResultsRedis    = "redis"
	ResultsPostgres = "postgres"
	ResultsSQLite   = "sqlite"
)

type Config struct {
	Server struct {
		Port           string   `yaml:"port"`
		AllowedOrigins []string `yaml:"allowedOrigins"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	SQLite struct {
		Path string `yaml:"path"`
	} `yaml:"sqlite"`
	AMQP struct {
		URL      string `yaml:"url"`
		Exchange string `yaml:"exchange"`
	} `yaml:"amqp"`
	Quiz struct {
		TTL          string `yaml:"ttl"`
		DatasetDir   string `yaml:"datasetDir"`
		DefaultLimit int    `yaml:"defaultLimit"`
	} `yaml:"quiz"`
	Results struct {
		Driver string `yaml:"driver"`
	} `yaml:"results"`
}

// Load reads YAML config from path, then applies .env and environment overrides.
// A missing file yields defaults.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return cfg, err
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}

	// .env is optional; real environment variables win over it.
	_ = godotenv.Load()
	applyEnv(&cfg)
	applyDefaults(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.Server.Port, "PORT")
	setString(&cfg.Redis.Addr, "REDIS_ADDR")
	setString(&cfg.Redis.Password, "REDIS_PASSWORD")
	setString(&cfg.Postgres.URL, "POSTGRES_URL")
	setString(&cfg.AMQP.URL, "AMQP_URL")
	setString(&cfg.Results.Driver, "RESULTS_DRIVER")
	setString(&cfg.Quiz.DatasetDir, "DATASET_DIR")
	setString(&cfg.SQLite.Path, "SQLITE_PATH")
	if raw := os.Getenv("REDIS_DB"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			cfg.Redis.DB = n
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.AMQP.Exchange == "" {
		cfg.AMQP.Exchange = "quiz.events"
	}
	if cfg.SQLite.Path == "" {
		cfg.SQLite.Path = "quiz-results.db"
	}
	if cfg.Results.Driver == "" {
		switch {
		case cfg.Postgres.URL != "":
			cfg.Results.Driver = ResultsPostgres
		case cfg.Redis.Addr != "":
			cfg.Results.Driver = ResultsRedis
		default:
			cfg.Results.Driver = ResultsMemory
		}
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
