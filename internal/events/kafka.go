package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// KafkaPublisher writes envelopes to a single topic, partitioned by order id.
type KafkaPublisher struct {
	w        *kafka.Writer
	producer string
}

func NewKafkaPublisher(brokers []string, topic, producer string) *KafkaPublisher {
	return &KafkaPublisher{
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			WriteTimeout: 5 * time.Second,
		},
		producer: producer,
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, eventType string, orderID uint, payload any) error {
	value, err := NewEnvelope(p.producer, eventType, orderID, payload)
	if err != nil {
		return err
	}
	key := []byte(strconv.FormatUint(uint64(orderID), 10))
	return p.w.WriteMessages(ctx, kafka.Message{
		Key:   key,
		Value: value,
		Time:  time.Now(),
		Headers: []kafka.Header{
			{Key: "x-event-type", Value: []byte(eventType)},
			{Key: "x-event-version", Value: []byte("1")},
		},
	})
}

func (p *KafkaPublisher) Close() error {
	return p.w.Close()
}

// NewEnvelope marshals payload into a versioned envelope.
func NewEnvelope(producer, eventType string, orderID uint, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return json.Marshal(Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      producer,
		CorrelationID: strconv.FormatUint(uint64(orderID), 10),
		Payload:       raw,
	})
}
