// Package config loads the process configuration for cmd/dataflow from
// environment variables, in the style of the teacher's cmd/server/config
// (env-var loader with typed defaults), generalized to the components a
// dataflow scheduler process actually wires: the HTTP control plane, the
// Postgres graph/run store, the Redis snapshot cache, the NATS event
// publisher, and the cron replan schedule.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds every setting cmd/dataflow needs to construct its
// dependencies. Every field has a workable default so `dataflow serve`
// runs against a local docker-compose stack with no flags.
type Config struct {
	HTTP     HTTPConfig
	Database DatabaseConfig
	Redis    RedisConfig
	NATS     NATSConfig
	Schedule ScheduleConfig
	Auth     AuthConfig
}

// HTTPConfig configures the control-plane listener.
type HTTPConfig struct {
	Host string
	Port int
}

// Addr returns the host:port the HTTP server should bind.
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DatabaseConfig configures the Postgres connection pool backing
// internal/infrastructure/persistence/postgres.
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// RedisConfig configures the RuntimeGraph snapshot cache.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	// SnapshotTTL bounds how long a RuntimeGraph snapshot stays in Redis;
	// once it expires, the next load reads the snapshot from Postgres.
	SnapshotTTL time.Duration
}

// NATSConfig configures the event publisher.
type NATSConfig struct {
	URL string
}

// ScheduleConfig configures the cron-driven periodic replan loop.
type ScheduleConfig struct {
	// Spec is a robfig/cron expression; empty disables scheduled replanning
	// (a graph still runs on demand via POST /graphs/{id}/runs).
	Spec string
}

// AuthConfig configures the JWT bearer-token middleware.
type AuthConfig struct {
	JWTSecret string
}

// Load reads Config from the environment, applying the same defaults a
// developer running the stack locally would expect.
func Load() (*Config, error) {
	return &Config{
		HTTP: HTTPConfig{
			Host: getEnv("DATAFLOW_HTTP_HOST", "0.0.0.0"),
			Port: getEnvInt("DATAFLOW_HTTP_PORT", 8080),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DATAFLOW_DB_HOST", "localhost"),
			Port:     getEnvInt("DATAFLOW_DB_PORT", 5432),
			User:     getEnv("DATAFLOW_DB_USER", "dataflow"),
			Password: getEnv("DATAFLOW_DB_PASSWORD", "dataflow"),
			Database: getEnv("DATAFLOW_DB_NAME", "dataflow"),
			SSLMode:  getEnv("DATAFLOW_DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:        getEnv("DATAFLOW_REDIS_ADDR", "localhost:6379"),
			Password:    getEnv("DATAFLOW_REDIS_PASSWORD", ""),
			DB:          getEnvInt("DATAFLOW_REDIS_DB", 0),
			SnapshotTTL: getEnvDuration("DATAFLOW_REDIS_SNAPSHOT_TTL", 10*time.Minute),
		},
		NATS: NATSConfig{
			URL: getEnv("DATAFLOW_NATS_URL", "nats://localhost:4222"),
		},
		Schedule: ScheduleConfig{
			Spec: getEnv("DATAFLOW_SCHEDULE_SPEC", ""),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("DATAFLOW_JWT_SECRET", "dev-secret-change-me"),
		},
	}, nil
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultValue
}

// getEnvDuration is used by callers that parse a duration-shaped setting
// (cache TTLs, poll intervals); kept here so every env accessor lives in
// one place.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}
