package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	DBUser     string
	DBPass     string
	DBHost     string
	DBPort     string
	DBName     string
	SSLMode    string
	RedisHost  string
	RedisPort  string
	NatsHost   string
	NatsPort   string
	ApiPort    string
	ApiEnabled string
}

// New loads and validates configuration from environment variables.
// Postgres and redis are required. NATS is optional: without it, settlement
// events are simply not published and the history worker does not start.
// The HTTP server is optional the same way: if PAYSTREAM_API_ENABLED !=
// "true", ApiAddr() returns an error and the server won't be started.
func New() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DBUser:     os.Getenv("PAYSTREAM_POSTGRES_USER"),
		DBPass:     os.Getenv("PAYSTREAM_POSTGRES_PASSWORD"),
		DBHost:     os.Getenv("PAYSTREAM_POSTGRES_HOST"),
		DBPort:     os.Getenv("PAYSTREAM_POSTGRES_PORT"),
		DBName:     os.Getenv("PAYSTREAM_POSTGRES_DB"),
		SSLMode:    os.Getenv("PAYSTREAM_POSTGRES_SSLMODE"),
		RedisHost:  os.Getenv("PAYSTREAM_REDIS_HOST"),
		RedisPort:  os.Getenv("PAYSTREAM_REDIS_PORT"),
		NatsHost:   os.Getenv("PAYSTREAM_NATS_HOST"),
		NatsPort:   os.Getenv("PAYSTREAM_NATS_PORT"),
		ApiPort:    os.Getenv("PAYSTREAM_API_PORT"),
		ApiEnabled: os.Getenv("PAYSTREAM_API_ENABLED"),
	}

	// Required: database
	if cfg.DBUser == "" || cfg.DBHost == "" || cfg.DBName == "" || cfg.SSLMode == "" {
		return nil, fmt.Errorf("missing required env for database: PAYSTREAM_POSTGRES_USER/HOST/DB/SSLMODE")
	}

	// Required: redis (employee directory cache)
	if cfg.RedisHost == "" || cfg.RedisPort == "" {
		return nil, fmt.Errorf("missing required env for redis: PAYSTREAM_REDIS_HOST/PORT")
	}

	// Optional: NATS — both must be set or both empty
	if (cfg.NatsHost == "") != (cfg.NatsPort == "") {
		return nil, fmt.Errorf("PAYSTREAM_NATS_HOST and PAYSTREAM_NATS_PORT must be set together")
	}

	return cfg, nil
}

func (c *Config) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPass, c.DBHost, c.DBPort, c.DBName, c.SSLMode)
}

func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%s", c.RedisHost, c.RedisPort)
}

func (c *Config) NatsAddr() string {
	return fmt.Sprintf("nats://%s:%s", c.NatsHost, c.NatsPort)
}

// EventsEnabled reports whether a NATS broker is configured.
func (c *Config) EventsEnabled() bool {
	return c.NatsHost != "" && c.NatsPort != ""
}

// ApiAddr returns the HTTP listen address if the API is enabled.
// Returns an error if PAYSTREAM_API_ENABLED != "true" — callers should skip
// starting the HTTP server.
func (c *Config) ApiAddr() (string, error) {
	if c.ApiEnabled == "true" {
		if c.ApiPort == "" {
			return "", fmt.Errorf("PAYSTREAM_API_PORT is required when PAYSTREAM_API_ENABLED=true")
		}
		return ":" + c.ApiPort, nil
	}
	return "", fmt.Errorf("HTTP API is disabled (PAYSTREAM_API_ENABLED != true)")
}
