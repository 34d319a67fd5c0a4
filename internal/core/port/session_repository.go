package port

import (
	"context"
	"time"

	"github.com/arklim/platform-operator-auth/internal/core/domain"
)

// SessionRepository exposes persistence behavior for session records.
type SessionRepository interface {
	Create(ctx context.Context, session domain.Session) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*domain.Session, error)
	Touch(ctx context.Context, id string, at time.Time) error
	Revoke(ctx context.Context, id string) error

	// RevokeAllForOperator deactivates every session owned by the operator in
	// a single statement and returns the number of sessions affected.
	RevokeAllForOperator(ctx context.Context, operatorID string) (int, error)

	ListActiveByOperator(ctx context.Context, operatorID string) ([]domain.Session, error)
}
