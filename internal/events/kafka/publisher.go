package kafka

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	"github.com/Oliverkirui/saco/internal/interfaces"
)

// Publisher writes ledger events to a single Kafka topic fixed at
// construction.
type Publisher struct {
	writer *kafka.Writer
}

func NewPublisher(brokers []string, topic string) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.LeastBytes{},
		},
	}
}

// Publish writes the event to the writer's topic. eventKind names the
// ledger event and travels in the message headers; it does not select a
// Kafka topic.
func (p *Publisher) Publish(eventKind string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return p.writer.WriteMessages(
		context.Background(),
		kafka.Message{
			Headers: []kafka.Header{{Key: "event", Value: []byte(eventKind)}},
			Value:   data,
		},
	)
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

var _ interfaces.EventPublisher = (*Publisher)(nil)
