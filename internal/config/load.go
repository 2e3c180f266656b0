//
//
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v2"
)

// DefaultFile is read when present and TEMPLOG_CONFIG is unset.
const DefaultFile = "config/default.yaml"

// Load merges Defaults() + optional YAML file + TEMPLOG_* env overrides, then validates.
func Load() (*Config, error) {
	cfg := Defaults()

	// Explicit file must exist; the default file is optional
	if path := os.Getenv("TEMPLOG_CONFIG"); path != "" {
		if err := loadFromFile(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
	} else if _, err := os.Stat(DefaultFile); err == nil {
		if err := loadFromFile(cfg, DefaultFile); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", DefaultFile, err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile decodes a YAML file on top of cfg.
func loadFromFile(cfg *Config, filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variables to the config.
// PORT and NODE_ENV are honoured for compatibility with PaaS deployments.
func applyEnvOverrides(cfg *Config) error {
	if val := os.Getenv("PORT"); val != "" {
		port, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", val, err)
		}
		cfg.Server.Port = port
	}
	if val := os.Getenv("NODE_ENV"); val != "" {
		cfg.Server.Environment = val
	}

	// Server
	cfg.Server.Host = GetEnvVar("TEMPLOG_HOST", cfg.Server.Host)
	cfg.Server.Port = GetEnvInt("TEMPLOG_PORT", cfg.Server.Port)
	cfg.Server.Environment = GetEnvVar("TEMPLOG_ENV", cfg.Server.Environment)
	cfg.Server.StaticDir = GetEnvVar("TEMPLOG_STATIC_DIR", cfg.Server.StaticDir)
	if val := os.Getenv("TEMPLOG_CORS_ORIGINS"); val != "" {
		cfg.Server.CORSOrigins = splitList(val)
	}
	cfg.Server.RateLimit.RequestsPerSecond = GetEnvFloat("TEMPLOG_RATE_LIMIT_RPS", cfg.Server.RateLimit.RequestsPerSecond)
	cfg.Server.RateLimit.Burst = GetEnvInt("TEMPLOG_RATE_LIMIT_BURST", cfg.Server.RateLimit.Burst)

	// Sampling
	cfg.Sampling.TickInterval = GetEnvDuration("TEMPLOG_TICK_INTERVAL", cfg.Sampling.TickInterval)
	cfg.Sampling.Seed = GetEnvFloat("TEMPLOG_SEED_TEMPERATURE", cfg.Sampling.Seed)

	// History
	cfg.History.Capacity = GetEnvInt("TEMPLOG_HISTORY_CAPACITY", cfg.History.Capacity)
	cfg.History.BootstrapSize = GetEnvInt("TEMPLOG_BOOTSTRAP_SIZE", cfg.History.BootstrapSize)
	cfg.History.DefaultLimit = GetEnvInt("TEMPLOG_HISTORY_DEFAULT_LIMIT", cfg.History.DefaultLimit)

	// Telemetry
	cfg.Telemetry.ViewerQueueSize = GetEnvInt("TEMPLOG_VIEWER_QUEUE_SIZE", cfg.Telemetry.ViewerQueueSize)
	cfg.Telemetry.WriteTimeout = GetEnvDuration("TEMPLOG_WRITE_TIMEOUT", cfg.Telemetry.WriteTimeout)
	cfg.Telemetry.SSEHeartbeat = GetEnvDuration("TEMPLOG_SSE_HEARTBEAT", cfg.Telemetry.SSEHeartbeat)

	// Client
	cfg.Client.ServerURL = GetEnvVar("TEMPLOG_SERVER_URL", cfg.Client.ServerURL)
	cfg.Client.ReconnectDelay = GetEnvDuration("TEMPLOG_RECONNECT_DELAY", cfg.Client.ReconnectDelay)
	cfg.Client.AlertThreshold = GetEnvFloat("TEMPLOG_ALERT_THRESHOLD", cfg.Client.AlertThreshold)

	// Logging
	cfg.Logging.Level = GetEnvVar("TEMPLOG_LOG_LEVEL", cfg.Logging.Level)
	cfg.Logging.File = GetEnvVar("TEMPLOG_LOG_FILE", cfg.Logging.File)

	// Sinks
	cfg.Sinks.MQTT.Enabled = GetEnvBool("TEMPLOG_MQTT_ENABLED", cfg.Sinks.MQTT.Enabled)
	cfg.Sinks.MQTT.Broker = GetEnvVar("TEMPLOG_MQTT_BROKER", cfg.Sinks.MQTT.Broker)
	cfg.Sinks.MQTT.Topic = GetEnvVar("TEMPLOG_MQTT_TOPIC", cfg.Sinks.MQTT.Topic)
	cfg.Sinks.Kafka.Enabled = GetEnvBool("TEMPLOG_KAFKA_ENABLED", cfg.Sinks.Kafka.Enabled)
	if val := os.Getenv("TEMPLOG_KAFKA_BROKERS"); val != "" {
		cfg.Sinks.Kafka.Brokers = splitList(val)
	}
	cfg.Sinks.Kafka.Topic = GetEnvVar("TEMPLOG_KAFKA_TOPIC", cfg.Sinks.Kafka.Topic)

	return nil
}

// GetEnvVar returns the value of an environment variable with a default.
func GetEnvVar(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetEnvDuration returns the value of an environment variable as a duration with a default.
func GetEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// GetEnvFloat returns the value of an environment variable as a float64 with a default.
func GetEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

// GetEnvInt returns the value of an environment variable as an int with a default.
func GetEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// GetEnvBool returns the value of an environment variable as a bool with a default.
func GetEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func splitList(val string) []string {
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func joinHostPort(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}
