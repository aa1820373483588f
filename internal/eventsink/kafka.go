// Package eventsink publishes completed-gesture selection events for
// downstream consumers (dashboards, audit). The sink is optional; the
// engine works identically without one.
package eventsink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/IBM/sarama"

	"github.com/anystubbs/zone-picker/internal/selector"
)

// KafkaConfig configures the Kafka sink.
type KafkaConfig struct {
	Brokers  []string
	Topic    string
	ClientID string
}

// KafkaSink emits one JSON record per gesture, keyed by category so a
// partition sees a category's events in order.
type KafkaSink struct {
	log   *slog.Logger
	topic string
	prod  sarama.SyncProducer
}

func NewKafka(cfg KafkaConfig, log *slog.Logger) (*KafkaSink, error) {
	if log == nil {
		log = slog.Default()
	}
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka sink: at least one broker is required")
	}
	if cfg.Topic == "" {
		return nil, errors.New("kafka sink: topic is required")
	}

	sc := sarama.NewConfig()
	sc.Version = sarama.V2_5_0_0
	if cfg.ClientID != "" {
		sc.ClientID = cfg.ClientID
	}
	sc.Producer.Return.Successes = true
	sc.Producer.RequiredAcks = sarama.WaitForLocal

	prod, err := sarama.NewSyncProducer(cfg.Brokers, sc)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return &KafkaSink{log: log, topic: cfg.Topic, prod: prod}, nil
}

// Publish implements selector.EventSink.
func (k *KafkaSink) Publish(ctx context.Context, ev selector.GestureEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode gesture event: %w", err)
	}
	msg := &sarama.ProducerMessage{
		Topic: k.topic,
		Key:   sarama.StringEncoder(ev.Category),
		Value: sarama.ByteEncoder(payload),
	}
	partition, offset, err := k.prod.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("send gesture event: %w", err)
	}
	k.log.Debug("gesture event published",
		"kind", ev.Kind, "partition", partition, "offset", offset)
	return nil
}

func (k *KafkaSink) Close() error {
	return k.prod.Close()
}
