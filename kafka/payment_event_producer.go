package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"tokensale-service/models"

	"github.com/segmentio/kafka-go"
)

// Producer publishes payment lifecycle events for downstream services.
type Producer struct {
	writer *kafka.Writer
	topic  string
}

func NewProducer(brokers []string, topic string) (*Producer, error) {
	if len(brokers) == 0 || topic == "" {
		return nil, fmt.Errorf("kafka brokers and topic are required")
	}
	writer := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	}

	return &Producer{
		writer: writer,
		topic:  topic,
	}, nil
}

// SendPaymentEvent publishes one event, keyed by payment id so events for the
// same payment stay ordered within a partition.
func (p *Producer) SendPaymentEvent(event models.PaymentEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	key := event.PaymentID
	if key == "" {
		key = event.Address
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: data,
	})
}

func (p *Producer) Close() error {
	return p.writer.Close()
}
