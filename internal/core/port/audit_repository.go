package port

import (
	"context"

	"github.com/arklim/platform-operator-auth/internal/core/domain"
)

// AuditRepository exposes append-only persistence for audit entries.
type AuditRepository interface {
	Append(ctx context.Context, entry domain.AuditEntry) error
	ListByActor(ctx context.Context, actorID string, limit int) ([]domain.AuditEntry, error)
}
