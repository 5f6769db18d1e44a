package kafka

import (
	"context"
	"log"

	kafkago "github.com/segmentio/kafka-go"
)

// EventMirror copies transaction events onto a Kafka topic for downstream
// analytics. Mirroring is best-effort; the queue publish is the durable
// path.
type EventMirror struct {
	writer *kafkago.Writer
	topic  string
}

func NewEventMirror(brokers []string, topic string) *EventMirror {
	w := &kafkago.Writer{
		Addr:     kafkago.TCP(brokers...),
		Topic:    topic,
		Balancer: &kafkago.LeastBytes{},
	}
	log.Printf("[PaymentService][EventMirror] initialized topic=%s brokers=%v", topic, brokers)
	return &EventMirror{writer: w, topic: topic}
}

func (m *EventMirror) Mirror(key string, payload []byte) error {
	msg := kafkago.Message{
		Key:   []byte(key),
		Value: payload,
	}
	return m.writer.WriteMessages(context.Background(), msg)
}

func (m *EventMirror) Close() error {
	log.Printf("[PaymentService][EventMirror] closing writer topic=%s", m.topic)
	return m.writer.Close()
}
