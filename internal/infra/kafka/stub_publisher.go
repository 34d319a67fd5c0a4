package kafka

import (
	"context"

	"go.uber.org/zap"

	"github.com/arklim/platform-operator-auth/internal/core/domain"
	"github.com/arklim/platform-operator-auth/internal/core/port"
)

// StubPublisher is used when no Kafka brokers are configured. Events are
// logged at debug level so local development still shows the stream.
type StubPublisher struct {
	logger *zap.Logger
}

// NewStubPublisher constructs a no-op event publisher.
func NewStubPublisher(logger *zap.Logger) *StubPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StubPublisher{logger: logger}
}

func (s *StubPublisher) PublishAuditRecorded(_ context.Context, event domain.AuditRecordedEvent) error {
	s.logger.Debug("stub publish audit.recorded",
		zap.String("actor_id", event.ActorID),
		zap.String("kind", string(event.Kind)),
	)
	return nil
}

func (s *StubPublisher) PublishSessionRevoked(_ context.Context, event domain.SessionRevokedEvent) error {
	s.logger.Debug("stub publish session.revoked",
		zap.String("session_id", event.SessionID),
		zap.String("operator_id", event.OperatorID),
	)
	return nil
}

func (s *StubPublisher) PublishOperatorLocked(_ context.Context, event domain.OperatorLockedEvent) error {
	s.logger.Debug("stub publish operator.locked",
		zap.String("operator_id", event.OperatorID),
	)
	return nil
}

var _ port.EventPublisher = (*StubPublisher)(nil)
