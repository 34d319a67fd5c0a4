package port

import (
	"context"
	"time"

	"github.com/arklim/platform-operator-auth/internal/core/domain"
)

// LoginFailure carries the result of an atomic failure-counter increment.
type LoginFailure struct {
	Attempts    int
	LockedUntil *time.Time
}

// OperatorRepository exposes persistence behavior for operator accounts.
type OperatorRepository interface {
	Create(ctx context.Context, operator domain.Operator) error
	GetByID(ctx context.Context, id string) (*domain.Operator, error)
	GetByEmail(ctx context.Context, email string) (*domain.Operator, error)

	// RecordLoginFailure increments the consecutive-failure counter and, when
	// the counter reaches maxAttempts, stamps lockedUntil in the same
	// statement. The increment-and-compare must be atomic per account.
	RecordLoginFailure(ctx context.Context, id string, maxAttempts int, lockedUntil time.Time) (LoginFailure, error)

	// ResetLoginFailures zeroes the counter and clears any lockout.
	ResetLoginFailures(ctx context.Context, id string) error

	SetLastLogin(ctx context.Context, id string, at time.Time) error
	SaveMFASecret(ctx context.Context, id string, secret string) error
	EnableMFA(ctx context.Context, id string) error
	SetActive(ctx context.Context, id string, active bool) error

	// HasActiveSuperAdmin reports whether an active SUPER_ADMIN account exists.
	HasActiveSuperAdmin(ctx context.Context) (bool, error)
}
