// Package stream publishes audit entries to Kafka for downstream SIEM and
// analytics consumers.
package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	audit "trustline/pkg/platform/audit"
)

// Producer is the subset of *kgo.Client the sink uses.
type Producer interface {
	Produce(ctx context.Context, r *kgo.Record, promise func(*kgo.Record, error))
}

// Message is the wire form of an entry on the audit topic.
type Message struct {
	ID        string          `json:"id"`
	ActorID   string          `json:"actor_id,omitempty"`
	Kind      string          `json:"kind"`
	Category  string          `json:"category"`
	Outcome   string          `json:"outcome"`
	Subject   string          `json:"subject,omitempty"`
	Payload   json.RawMessage `json:"payload"`
	RequestID string          `json:"request_id,omitempty"`
	IP        string          `json:"ip,omitempty"`
	Device    string          `json:"device,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	ExpiresAt time.Time       `json:"expires_at"`
}

// KafkaSink produces asynchronously; delivery errors are logged by the
// promise and never reach the caller.
type KafkaSink struct {
	producer Producer
	topic    string
	logger   *slog.Logger
}

func NewKafkaSink(producer Producer, topic string, logger *slog.Logger) *KafkaSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &KafkaSink{producer: producer, topic: topic, logger: logger}
}

// Publish keys records by actor so one actor's entries stay ordered.
func (s *KafkaSink) Publish(ctx context.Context, entry audit.Entry) error {
	value, err := Encode(entry)
	if err != nil {
		return err
	}
	record := &kgo.Record{
		Topic: s.topic,
		Key:   []byte(entry.ActorID),
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: "kind", Value: []byte(entry.Kind)},
			{Key: "category", Value: []byte(entry.Category)},
		},
	}
	s.producer.Produce(context.WithoutCancel(ctx), record, func(r *kgo.Record, err error) {
		if err != nil {
			s.logger.Warn("audit stream delivery failed",
				"topic", r.Topic,
				"kind", entry.Kind,
				"error", err,
			)
		}
	})
	return nil
}

func Encode(entry audit.Entry) ([]byte, error) {
	msg, err := ToMessage(entry)
	if err != nil {
		return nil, err
	}
	return json.Marshal(msg)
}

// ToMessage converts entry to its wire form. The admin activity endpoint
// serves the same shape.
func ToMessage(entry audit.Entry) (Message, error) {
	payload, err := audit.EncodePayload(entry.Payload)
	if err != nil {
		return Message{}, fmt.Errorf("encode audit payload: %w", err)
	}
	return Message{
		ID:        entry.ID.String(),
		ActorID:   entry.ActorID,
		Kind:      string(entry.Kind),
		Category:  string(entry.Category),
		Outcome:   string(entry.Outcome),
		Subject:   entry.Subject,
		Payload:   payload,
		RequestID: entry.RequestID,
		IP:        entry.IP,
		Device:    entry.Device,
		Timestamp: entry.Timestamp,
		ExpiresAt: entry.ExpiresAt,
	}, nil
}

// Decode turns a topic record back into an Entry.
func Decode(value []byte) (audit.Entry, error) {
	var msg Message
	if err := json.Unmarshal(value, &msg); err != nil {
		return audit.Entry{}, fmt.Errorf("decode audit message: %w", err)
	}
	category := audit.Category(msg.Category)
	payload, err := audit.DecodePayload(category, msg.Payload)
	if err != nil {
		return audit.Entry{}, err
	}
	entry := audit.Entry{
		ActorID:   msg.ActorID,
		Kind:      audit.Kind(msg.Kind),
		Category:  category,
		Outcome:   audit.Outcome(msg.Outcome),
		Subject:   msg.Subject,
		Payload:   payload,
		RequestID: msg.RequestID,
		IP:        msg.IP,
		Device:    msg.Device,
		Timestamp: msg.Timestamp,
		ExpiresAt: msg.ExpiresAt,
	}
	if err := entry.ID.UnmarshalText([]byte(msg.ID)); err != nil {
		return audit.Entry{}, fmt.Errorf("decode audit id: %w", err)
	}
	return entry, nil
}
