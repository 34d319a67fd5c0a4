package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/arklim/platform-operator-auth/internal/core/domain"
	"github.com/arklim/platform-operator-auth/internal/core/port"
	"github.com/arklim/platform-operator-auth/internal/infra/config"
)

const schemaVersion = "1.0"

// EventPublisher implements port.EventPublisher using Kafka. It feeds the
// security event stream consumed by the SIEM pipeline.
type EventPublisher struct {
	producer *Producer
	logger   *zap.Logger
	appCfg   config.AppSettings
}

// NewEventPublisher constructs a Kafka-backed event publisher.
func NewEventPublisher(producer *Producer, appCfg config.AppSettings, logger *zap.Logger) *EventPublisher {
	return &EventPublisher{producer: producer, appCfg: appCfg, logger: logger}
}

type eventEnvelope struct {
	EventID   string            `json:"event_id"`
	EventType string            `json:"event_type"`
	ActorID   string            `json:"actor_id,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
	Version   string            `json:"version"`
	Payload   any               `json:"payload"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

func (p *EventPublisher) publish(ctx context.Context, eventID, eventType, actorID string, ts time.Time, payload any) error {
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	id := eventID
	if id == "" {
		id = uuid.NewString()
	}

	envelope := eventEnvelope{
		EventID:   id,
		EventType: eventType,
		ActorID:   actorID,
		Timestamp: ts.UTC(),
		Version:   schemaVersion,
		Payload:   payload,
		Metadata: map[string]string{
			"service":     p.appCfg.Name,
			"environment": p.appCfg.Env,
		},
	}

	bytes, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal event envelope: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic: p.producer.TopicName(eventType),
		Value: sarama.ByteEncoder(bytes),
	}

	select {
	case p.producer.Producer().Input() <- message:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PublishAuditRecorded publishes operator_auth.audit.recorded events.
func (p *EventPublisher) PublishAuditRecorded(ctx context.Context, event domain.AuditRecordedEvent) error {
	payload := struct {
		ActorID    string         `json:"actor_id"`
		Kind       string         `json:"kind"`
		Detail     map[string]any `json:"detail,omitempty"`
		IP         string         `json:"ip,omitempty"`
		UserAgent  *string        `json:"user_agent,omitempty"`
		RecordedAt time.Time      `json:"recorded_at"`
	}{
		ActorID:    event.ActorID,
		Kind:       string(event.Kind),
		Detail:     event.Detail,
		IP:         event.IP,
		UserAgent:  event.UserAgent,
		RecordedAt: event.RecordedAt.UTC(),
	}

	return p.publish(ctx, event.EventID, "audit.recorded", event.ActorID, event.RecordedAt, payload)
}

// PublishSessionRevoked publishes operator_auth.session.revoked events.
func (p *EventPublisher) PublishSessionRevoked(ctx context.Context, event domain.SessionRevokedEvent) error {
	payload := struct {
		SessionID  string    `json:"session_id"`
		OperatorID string    `json:"operator_id"`
		Reason     string    `json:"reason"`
		RevokedAt  time.Time `json:"revoked_at"`
	}{
		SessionID:  event.SessionID,
		OperatorID: event.OperatorID,
		Reason:     event.Reason,
		RevokedAt:  event.RevokedAt.UTC(),
	}

	return p.publish(ctx, event.EventID, "session.revoked", event.OperatorID, event.RevokedAt, payload)
}

// PublishOperatorLocked publishes operator_auth.operator.locked events.
func (p *EventPublisher) PublishOperatorLocked(ctx context.Context, event domain.OperatorLockedEvent) error {
	payload := struct {
		OperatorID  string    `json:"operator_id"`
		Attempts    int       `json:"attempts"`
		LockedUntil time.Time `json:"locked_until"`
		IP          string    `json:"ip,omitempty"`
		LockedAt    time.Time `json:"locked_at"`
	}{
		OperatorID:  event.OperatorID,
		Attempts:    event.Attempts,
		LockedUntil: event.LockedUntil.UTC(),
		IP:          event.IP,
		LockedAt:    event.LockedAt.UTC(),
	}

	return p.publish(ctx, event.EventID, "operator.locked", event.OperatorID, event.LockedAt, payload)
}

var _ port.EventPublisher = (*EventPublisher)(nil)
