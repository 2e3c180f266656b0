//
//
package sink

import (
	"time"

	"go.uber.org/zap"

	"github.com/Bulbulsingh11/smart-temperature-logger/internal/config"
)

// FromConfig creates the enabled sinks. A sink that cannot be created is
// logged and skipped; the service runs without it.
func FromConfig(cfg config.SinksConfig, log *zap.Logger) []Sink {
	if log == nil {
		log = zap.NewNop()
	}

	var sinks []Sink
	if cfg.MQTT.Enabled {
		m, err := NewMQTT(cfg.MQTT)
		if err != nil {
			log.Warn("mqtt sink disabled", zap.Error(err))
		} else {
			log.Info("mqtt sink enabled",
				zap.String("broker", cfg.MQTT.Broker),
				zap.String("topic", cfg.MQTT.Topic))
			sinks = append(sinks, m)
		}
	}
	if cfg.Kafka.Enabled {
		log.Info("kafka sink enabled",
			zap.Strings("brokers", cfg.Kafka.Brokers),
			zap.String("topic", cfg.Kafka.Topic))
		sinks = append(sinks, NewKafka(cfg.Kafka))
	}
	return sinks
}

// WriteTimeout bounds a single write to any configured sink.
func WriteTimeout(cfg config.SinksConfig) time.Duration {
	return max(cfg.MQTT.Timeout, cfg.Kafka.Timeout)
}
