//
//
package config

import "time"

// Config is the complete runtime configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Sampling  SamplingConfig  `yaml:"sampling"`
	History   HistoryConfig   `yaml:"history"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Client    ClientConfig    `yaml:"client"`
	Logging   LoggingConfig   `yaml:"logging"`
	Sinks     SinksConfig     `yaml:"sinks"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	Environment  string        `yaml:"environment"`
	StaticDir    string        `yaml:"staticDir"`
	ReadTimeout  time.Duration `yaml:"readTimeout"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`
	IdleTimeout  time.Duration `yaml:"idleTimeout"`
	CORSOrigins  []string      `yaml:"corsOrigins"`
	RateLimit    RateLimit     `yaml:"rateLimit"`
}

// RateLimit throttles REST requests per client address.
type RateLimit struct {
	RequestsPerSecond float64 `yaml:"requestsPerSecond"`
	Burst             int     `yaml:"burst"`
}

// SamplingConfig drives the synthetic reading generator.
type SamplingConfig struct {
	TickInterval   time.Duration `yaml:"tickInterval"`
	Seed           float64       `yaml:"seed"`
	Min            float64       `yaml:"min"`
	Max            float64       `yaml:"max"`
	TrendPeriod    time.Duration `yaml:"trendPeriod"`
	TrendAmplitude float64       `yaml:"trendAmplitude"`
	TrendWeight    float64       `yaml:"trendWeight"`
}

// HistoryConfig sizes the in-memory reading buffer and its views.
type HistoryConfig struct {
	Capacity      int `yaml:"capacity"`
	BootstrapSize int `yaml:"bootstrapSize"`
	DefaultLimit  int `yaml:"defaultLimit"`
}

// TelemetryConfig tunes viewer delivery.
type TelemetryConfig struct {
	ViewerQueueSize   int           `yaml:"viewerQueueSize"`
	WriteTimeout      time.Duration `yaml:"writeTimeout"`
	SSEHeartbeat      time.Duration `yaml:"sseHeartbeat"`
	WSPingInterval    time.Duration `yaml:"wsPingInterval"`
	WSMaxMessageBytes int64         `yaml:"wsMaxMessageBytes"`
}

// ClientConfig is consumed by the terminal dashboard.
type ClientConfig struct {
	ServerURL      string        `yaml:"serverUrl"`
	ReconnectDelay time.Duration `yaml:"reconnectDelay"`
	AlertThreshold float64       `yaml:"alertThreshold"`
	ChartWindow    int           `yaml:"chartWindow"`
	AlertKeep      int           `yaml:"alertKeep"`
}

// LoggingConfig selects log level and the optional rotated log file.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"maxSizeMb"`
	MaxBackups int    `yaml:"maxBackups"`
	MaxAgeDays int    `yaml:"maxAgeDays"`
	Compress   bool   `yaml:"compress"`
}

// SinksConfig lists the optional reading mirrors.
type SinksConfig struct {
	QueueSize int         `yaml:"queueSize"`
	MQTT      MQTTConfig  `yaml:"mqtt"`
	Kafka     KafkaConfig `yaml:"kafka"`
}

// MQTTConfig configures the MQTT mirror.
type MQTTConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Broker   string        `yaml:"broker"`
	ClientID string        `yaml:"clientId"`
	Topic    string        `yaml:"topic"`
	QoS      byte          `yaml:"qos"`
	Timeout  time.Duration `yaml:"timeout"`
}

// KafkaConfig configures the Kafka mirror.
type KafkaConfig struct {
	Enabled bool          `yaml:"enabled"`
	Brokers []string      `yaml:"brokers"`
	Topic   string        `yaml:"topic"`
	Key     string        `yaml:"key"`
	Timeout time.Duration `yaml:"timeout"`
}

// Defaults returns the baseline configuration.
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         3001,
			Environment:  "development",
			StaticDir:    "dist",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  120 * time.Second,
			CORSOrigins:  nil, // reflect any origin
			RateLimit: RateLimit{
				RequestsPerSecond: 20,
				Burst:             40,
			},
		},
		Sampling: SamplingConfig{
			TickInterval:   5 * time.Second,
			Seed:           28.5,
			Min:            20.0,
			Max:            45.0,
			TrendPeriod:    60 * time.Second,
			TrendAmplitude: 3,
			TrendWeight:    0.1,
		},
		History: HistoryConfig{
			Capacity:      100,
			BootstrapSize: 20,
			DefaultLimit:  50,
		},
		Telemetry: TelemetryConfig{
			ViewerQueueSize:   64,
			WriteTimeout:      10 * time.Second,
			SSEHeartbeat:      15 * time.Second,
			WSPingInterval:    30 * time.Second,
			WSMaxMessageBytes: 4096,
		},
		Client: ClientConfig{
			ServerURL:      "ws://localhost:3001/ws",
			ReconnectDelay: 3 * time.Second,
			AlertThreshold: 35,
			ChartWindow:    50,
			AlertKeep:      5,
		},
		Logging: LoggingConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 7,
		},
		Sinks: SinksConfig{
			QueueSize: 128,
			MQTT: MQTTConfig{
				Broker:   "tcp://localhost:1883",
				ClientID: "templogger",
				Topic:    "templog/readings",
				Timeout:  5 * time.Second,
			},
			Kafka: KafkaConfig{
				Brokers: []string{"localhost:9092"},
				Topic:   "templog.readings",
				Key:     "templogger",
				Timeout: 5 * time.Second,
			},
		},
	}
}

// Addr returns the listen address for the HTTP server.
func (s ServerConfig) Addr() string {
	return joinHostPort(s.Host, s.Port)
}

// IsProduction reports whether static UI serving is enabled.
func (s ServerConfig) IsProduction() bool {
	return s.Environment == "production"
}
