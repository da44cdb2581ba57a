package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"github.com/ManboyFxx/odelivery/internal/domain"
)

// KafkaGateway publishes notification jobs to a Kafka topic. Messages are
// keyed by tenant id so one tenant's notifications stay on one partition.
type KafkaGateway struct {
	writer *kafka.Writer
}

// NewKafkaGateway builds a gateway writing to topic on the given brokers.
func NewKafkaGateway(brokers []string, topic string) *KafkaGateway {
	return &KafkaGateway{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
		},
	}
}

func (g *KafkaGateway) Send(ctx context.Context, order *domain.Order, templateKey string) error {
	payload, err := json.Marshal(NewJob(order, templateKey))
	if err != nil {
		return fmt.Errorf("marshal notification job: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(order.TenantID),
		Value: payload,
	}
	if err := g.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write notification job: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying writer.
func (g *KafkaGateway) Close() error {
	return g.writer.Close()
}
