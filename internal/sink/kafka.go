//
//
package sink

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"github.com/Bulbulsingh11/smart-temperature-logger/internal/config"
	"github.com/Bulbulsingh11/smart-temperature-logger/internal/reading"
)

type kafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Kafka appends each reading as a JSON record to one topic.
type Kafka struct {
	writer kafkaWriter
	key    []byte
}

// NewKafka creates a writer for the configured brokers. No connection is made
// until the first write.
func NewKafka(cfg config.KafkaConfig) *Kafka {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		WriteTimeout:           cfg.Timeout,
		AllowAutoTopicCreation: true,
	}
	return newKafkaWithWriter(w, cfg)
}

func newKafkaWithWriter(w kafkaWriter, cfg config.KafkaConfig) *Kafka {
	return &Kafka{writer: w, key: []byte(cfg.Key)}
}

// Name returns "kafka".
func (k *Kafka) Name() string { return "kafka" }

// Write sends r keyed by the station key so readings keep their order.
func (k *Kafka) Write(ctx context.Context, r reading.Reading) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal reading: %w", err)
	}

	msg := kafka.Message{
		Key:   k.key,
		Value: payload,
		Time:  r.Timestamp,
		Headers: []kafka.Header{
			{Key: "content-type", Value: []byte("application/json")},
		},
	}
	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka write: %w", err)
	}
	return nil
}

// Close flushes pending writes and releases the writer.
func (k *Kafka) Close() error {
	return k.writer.Close()
}
