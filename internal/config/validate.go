//
//
package config

import (
	"fmt"
	"strings"
)

var validLogLevels = []string{"debug", "info", "warn", "error"}

// Validate enforces configuration invariants.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config cannot be nil")
	}

	if err := validateServer(&cfg.Server); err != nil {
		return fmt.Errorf("server validation failed: %w", err)
	}
	if err := validateSampling(&cfg.Sampling); err != nil {
		return fmt.Errorf("sampling validation failed: %w", err)
	}
	if err := validateHistory(&cfg.History); err != nil {
		return fmt.Errorf("history validation failed: %w", err)
	}
	if err := validateTelemetry(&cfg.Telemetry); err != nil {
		return fmt.Errorf("telemetry validation failed: %w", err)
	}
	if err := validateClient(&cfg.Client); err != nil {
		return fmt.Errorf("client validation failed: %w", err)
	}
	if err := validateLogging(&cfg.Logging); err != nil {
		return fmt.Errorf("logging validation failed: %w", err)
	}
	if err := validateSinks(&cfg.Sinks); err != nil {
		return fmt.Errorf("sinks validation failed: %w", err)
	}

	return nil
}

func validateServer(s *ServerConfig) error {
	if s.Port < 0 || s.Port > 65535 {
		return fmt.Errorf("port %d is outside [0, 65535]", s.Port)
	}
	if s.ReadTimeout < 0 || s.WriteTimeout < 0 || s.IdleTimeout < 0 {
		return fmt.Errorf("timeouts must be non-negative")
	}
	if s.RateLimit.RequestsPerSecond < 0 {
		return fmt.Errorf("rate limit must be non-negative, got %v", s.RateLimit.RequestsPerSecond)
	}
	if s.RateLimit.RequestsPerSecond > 0 && s.RateLimit.Burst <= 0 {
		return fmt.Errorf("rate limit burst must be positive, got %d", s.RateLimit.Burst)
	}
	return nil
}

func validateSampling(s *SamplingConfig) error {
	if s.TickInterval <= 0 {
		return fmt.Errorf("tick interval must be positive, got %v", s.TickInterval)
	}
	if s.Min >= s.Max {
		return fmt.Errorf("min %.1f must be below max %.1f", s.Min, s.Max)
	}
	if s.Seed < s.Min || s.Seed > s.Max {
		return fmt.Errorf("seed %.1f is outside [%.1f, %.1f]", s.Seed, s.Min, s.Max)
	}
	if s.TrendPeriod <= 0 {
		return fmt.Errorf("trend period must be positive, got %v", s.TrendPeriod)
	}
	return nil
}

func validateHistory(h *HistoryConfig) error {
	if h.Capacity <= 0 {
		return fmt.Errorf("capacity must be positive, got %d", h.Capacity)
	}
	if h.BootstrapSize <= 0 || h.BootstrapSize > h.Capacity {
		return fmt.Errorf("bootstrap size %d is outside [1, %d]", h.BootstrapSize, h.Capacity)
	}
	if h.DefaultLimit <= 0 || h.DefaultLimit > h.Capacity {
		return fmt.Errorf("default limit %d is outside [1, %d]", h.DefaultLimit, h.Capacity)
	}
	return nil
}

func validateTelemetry(t *TelemetryConfig) error {
	if t.ViewerQueueSize <= 0 {
		return fmt.Errorf("viewer queue size must be positive, got %d", t.ViewerQueueSize)
	}
	if t.WriteTimeout <= 0 {
		return fmt.Errorf("write timeout must be positive, got %v", t.WriteTimeout)
	}
	if t.SSEHeartbeat <= 0 {
		return fmt.Errorf("sse heartbeat must be positive, got %v", t.SSEHeartbeat)
	}
	if t.WSPingInterval <= 0 {
		return fmt.Errorf("websocket ping interval must be positive, got %v", t.WSPingInterval)
	}
	return nil
}

func validateClient(c *ClientConfig) error {
	if c.ReconnectDelay <= 0 {
		return fmt.Errorf("reconnect delay must be positive, got %v", c.ReconnectDelay)
	}
	if c.ChartWindow <= 0 {
		return fmt.Errorf("chart window must be positive, got %d", c.ChartWindow)
	}
	if c.AlertKeep <= 0 {
		return fmt.Errorf("alert keep must be positive, got %d", c.AlertKeep)
	}
	return nil
}

func validateLogging(l *LoggingConfig) error {
	level := strings.ToLower(l.Level)
	for _, valid := range validLogLevels {
		if level == valid {
			return nil
		}
	}
	return fmt.Errorf("invalid level %q, must be one of: %v", l.Level, validLogLevels)
}

func validateSinks(s *SinksConfig) error {
	if !s.MQTT.Enabled && !s.Kafka.Enabled {
		return nil
	}
	if s.QueueSize <= 0 {
		return fmt.Errorf("queue size must be positive, got %d", s.QueueSize)
	}
	if s.MQTT.Enabled {
		if s.MQTT.Broker == "" || s.MQTT.Topic == "" {
			return fmt.Errorf("mqtt sink requires broker and topic")
		}
		if s.MQTT.QoS > 2 {
			return fmt.Errorf("mqtt qos %d is outside [0, 2]", s.MQTT.QoS)
		}
	}
	if s.Kafka.Enabled && (len(s.Kafka.Brokers) == 0 || s.Kafka.Topic == "") {
		return fmt.Errorf("kafka sink requires brokers and topic")
	}
	return nil
}
