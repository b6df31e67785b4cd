package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/segmentio/kafka-go"
)

// Relay forwards domain events to an external broker.
type Relay interface {
	Forward(ctx context.Context, event Event) error
	Close() error
}

// Attach subscribes relay to every event type published on d.
func Attach(d Dispatcher, relay Relay) {
	for _, eventType := range AllTypes {
		d.Subscribe(eventType, relay.Forward)
	}
}

// AMQPRelay publishes events as persistent JSON messages to a durable queue.
type AMQPRelay struct {
	mu    sync.Mutex
	conn  *amqp.Connection
	ch    *amqp.Channel
	queue string
}

// NewAMQPRelay dials the broker and declares the queue.
func NewAMQPRelay(url, queue string) (*AMQPRelay, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("amqp channel: %w", err)
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("amqp queue declare: %w", err)
	}
	return &AMQPRelay{conn: conn, ch: ch, queue: queue}, nil
}

// Forward publishes event on the default exchange with the queue as routing key.
func (r *AMQPRelay) Forward(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("amqp marshal event: %w", err)
	}
	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.ID,
		Type:         string(event.Type),
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.ch.PublishWithContext(ctx, "", r.queue, false, false, msg); err != nil {
		return fmt.Errorf("amqp publish: %w", err)
	}
	return nil
}

// Close releases the channel and connection.
func (r *AMQPRelay) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	_ = r.ch.Close()
	return r.conn.Close()
}

// KafkaRelay writes events to a topic keyed by subject id, so events for one order stay ordered.
type KafkaRelay struct {
	writer *kafka.Writer
}

// NewKafkaRelay builds a writer for topic.
func NewKafkaRelay(brokers []string, topic string) *KafkaRelay {
	return &KafkaRelay{writer: &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}}
}

// Forward writes event as one JSON message.
func (r *KafkaRelay) Forward(ctx context.Context, event Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("kafka marshal event: %w", err)
	}
	err = r.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.SubjectID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(event.Type)},
		},
	})
	if err != nil {
		return fmt.Errorf("kafka write: %w", err)
	}
	return nil
}

// Close flushes pending writes.
func (r *KafkaRelay) Close() error {
	return r.writer.Close()
}
