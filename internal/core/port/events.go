package port

import (
	"context"

	"github.com/arklim/platform-operator-auth/internal/core/domain"
)

// EventPublisher publishes domain events to the message bus.
type EventPublisher interface {
	PublishAuditRecorded(ctx context.Context, event domain.AuditRecordedEvent) error
	PublishSessionRevoked(ctx context.Context, event domain.SessionRevokedEvent) error
	PublishOperatorLocked(ctx context.Context, event domain.OperatorLockedEvent) error
}
