// Package config handles loading and parsing application configuration.
// It looks for the YAML file in two places (in priority order):
//  1. An environment variable:  CONFIG_PATH=/path/to/config.yaml
//  2. A command-line flag:      --config=/path/to/config.yaml
//
// A .env file in the working directory, when present, is loaded into the
// environment first, so its values can both point at the YAML file and
// override individual keys.
package config

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config is the root configuration structure.
// Every field maps to a key in the YAML file AND can be overridden
// by the corresponding environment variable (env:"...").
type Config struct {
	// Env controls log format and verbosity: "dev", "staging", "prod".
	Env string `yaml:"env" env:"ENV" env-default:"dev"`

	Storage    Storage    `yaml:"storage"`
	HTTPServer HTTPServer `yaml:"http_server"`
	Auth       Auth       `yaml:"auth"`
	Blob       Blob       `yaml:"blob"`
	Redis      Redis      `yaml:"redis"`
	Roster     Roster     `yaml:"roster"`
}

// Storage selects the record store.
type Storage struct {
	// Driver is "sqlite", "postgres" or "memory".
	Driver      string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"sqlite"`
	SQLitePath  string `yaml:"sqlite_path" env:"STORAGE_PATH" env-default:"storage/storage.db"`
	PostgresURL string `yaml:"postgres_url" env:"DATABASE_URL"`
}

// HTTPServer holds settings specific to the HTTP server.
type HTTPServer struct {
	Addr         string        `yaml:"address" env:"HTTP_SERVER_ADDR" env-default:"localhost:8082"`
	ReadTimeout  time.Duration `yaml:"read_timeout" env:"HTTP_READ_TIMEOUT" env-default:"10s"`
	WriteTimeout time.Duration `yaml:"write_timeout" env:"HTTP_WRITE_TIMEOUT" env-default:"30s"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" env:"HTTP_IDLE_TIMEOUT" env-default:"60s"`
	// MaxUploadBytes caps request bodies of create, update and import.
	MaxUploadBytes int64    `yaml:"max_upload_bytes" env:"HTTP_MAX_UPLOAD_BYTES" env-default:"10485760"`
	CORSOrigins    []string `yaml:"cors_origins" env:"HTTP_CORS_ORIGINS" env-separator:","`
}

// Auth configures bearer-token verification.
type Auth struct {
	JWTSecret string `yaml:"jwt_secret" env:"JWT_SECRET" env-required:"true"`
}

// Blob configures photo storage. An empty Endpoint disables photo uploads.
type Blob struct {
	Endpoint  string `yaml:"endpoint" env:"BLOB_ENDPOINT"`
	AccessKey string `yaml:"access_key" env:"BLOB_ACCESS_KEY"`
	SecretKey string `yaml:"secret_key" env:"BLOB_SECRET_KEY"`
	Bucket    string `yaml:"bucket" env:"BLOB_BUCKET" env-default:"student-photos"`
	Region    string `yaml:"region" env:"BLOB_REGION"`
	UseSSL    bool   `yaml:"use_ssl" env:"BLOB_USE_SSL" env-default:"false"`
	PublicURL string `yaml:"public_url" env:"BLOB_PUBLIC_URL"`
}

// Redis configures the notification feed. An empty Addr keeps
// notifications in process memory.
type Redis struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
	Channel  string `yaml:"channel" env:"REDIS_CHANNEL" env-default:"student-roster:notifications"`
}

// Roster holds form policy.
type Roster struct {
	// Courses offered on the form; empty means the built-in list.
	Courses []string `yaml:"courses" env:"ROSTER_COURSES" env-separator:";"`
}

// Load reads the YAML file at path, applying .env and environment
// overrides, and checks cross-field constraints.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", path)
	}

	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("cannot read config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Storage.Driver {
	case "sqlite", "memory":
	case "postgres":
		if c.Storage.PostgresURL == "" {
			return errors.New("config: storage.postgres_url is required for the postgres driver")
		}
	default:
		return fmt.Errorf("config: unknown storage.driver %q", c.Storage.Driver)
	}
	if c.HTTPServer.MaxUploadBytes <= 0 {
		return errors.New("config: http_server.max_upload_bytes must be positive")
	}
	return nil
}

// MustLoad reads, validates, and returns the application config.
//
// Functions prefixed with "Must" are allowed to exit on failure: if this
// returns, the config is valid.
func MustLoad() *Config {
	// A missing .env is normal outside local development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("cannot load .env: %s", err)
	}

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		flags := flag.String("config", "", "Path to the configuration YAML file")
		flag.Parse()
		configPath = *flags
	}

	if configPath == "" {
		log.Fatal("config path is not set: use --config flag or CONFIG_PATH env var")
	}

	cfg, err := Load(configPath)
	if err != nil {
		log.Fatal(err)
	}
	return cfg
}
