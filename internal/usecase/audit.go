package usecase

import (
	"context"
	"fmt"
	"time"

	uuid "github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/arklim/platform-operator-auth/internal/core/domain"
	"github.com/arklim/platform-operator-auth/internal/core/port"
	"github.com/arklim/platform-operator-auth/internal/infra/telemetry"
)

// AuditService appends security events to the audit trail and exports them
// to the event stream. A failed write never aborts the calling operation;
// it is logged at error level and counted so monitoring can page on it.
type AuditService struct {
	entries   port.AuditRepository
	publisher port.EventPublisher
	metrics   *telemetry.AuthMetrics
	logger    *zap.Logger
	now       func() time.Time
}

// NewAuditService constructs an AuditService instance.
func NewAuditService(entries port.AuditRepository, publisher port.EventPublisher, metrics *telemetry.AuthMetrics, logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = telemetry.Nop()
	}
	return &AuditService{
		entries:   entries,
		publisher: publisher,
		metrics:   metrics,
		logger:    logger,
		now:       time.Now,
	}
}

// WithClock allows injection of a custom clock (primarily for testing).
func (s *AuditService) WithClock(now func() time.Time) *AuditService {
	if now != nil {
		s.now = now
	}
	return s
}

// Record appends one audit entry. Missing ID and timestamp are filled in.
func (s *AuditService) Record(ctx context.Context, entry domain.AuditEntry) {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.now().UTC()
	}
	if entry.ActorID == "" {
		entry.ActorID = domain.AuditActorSystem
	}

	if err := s.entries.Append(ctx, entry); err != nil {
		s.metrics.AuditWriteFailures.Inc()
		s.logger.Error("append audit entry",
			zap.String("kind", string(entry.Kind)),
			zap.String("actor_id", entry.ActorID),
			zap.Error(err),
		)
	}

	if s.publisher == nil {
		return
	}

	event := domain.AuditRecordedEvent{
		EventID:    entry.ID,
		ActorID:    entry.ActorID,
		Kind:       entry.Kind,
		Detail:     entry.Detail,
		IP:         entry.IP,
		UserAgent:  entry.UserAgent,
		RecordedAt: entry.CreatedAt,
	}
	if err := s.publisher.PublishAuditRecorded(ctx, event); err != nil {
		s.metrics.AuditExportErrors.Inc()
		s.logger.Error("export audit entry",
			zap.String("kind", string(entry.Kind)),
			zap.Error(err),
		)
	}
}

// History returns the most recent audit entries for an actor.
func (s *AuditService) History(ctx context.Context, actorID string, limit int) ([]domain.AuditEntry, error) {
	if actorID == "" {
		return nil, fmt.Errorf("actor id is required")
	}
	if limit <= 0 {
		limit = 50
	}

	entries, err := s.entries.ListByActor(ctx, actorID, limit)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}

	return entries, nil
}
