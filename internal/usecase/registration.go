package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	uuid "github.com/google/uuid"

	"github.com/arklim/platform-operator-auth/internal/core/domain"
	"github.com/arklim/platform-operator-auth/internal/core/port"
	"github.com/arklim/platform-operator-auth/internal/infra/security"
	"github.com/arklim/platform-operator-auth/internal/repository"
)

// ErrEmailTaken indicates the email is already registered to an operator.
var ErrEmailTaken = errors.New("email already registered")

// CreateOperatorInput carries the fields for bootstrap operator creation.
type CreateOperatorInput struct {
	Email       string
	Password    string
	DisplayName string
	Role        domain.OperatorRole
	Department  *string

	// ActorID identifies who performed the creation for the audit trail.
	ActorID   string
	IP        string
	UserAgent *string
}

// RegistrationService creates operator accounts. Accounts are never created
// by self-service; the only entry point is this bootstrap operation.
type RegistrationService struct {
	operators port.OperatorRepository
	audit     *AuditService
	validator *security.PasswordValidator
	now       func() time.Time
}

// NewRegistrationService constructs a RegistrationService instance.
func NewRegistrationService(operators port.OperatorRepository, audit *AuditService, validator *security.PasswordValidator) (*RegistrationService, error) {
	if operators == nil {
		return nil, fmt.Errorf("operator repository is required")
	}
	if audit == nil {
		return nil, fmt.Errorf("audit service is required")
	}
	if validator == nil {
		validator = security.DefaultPasswordValidator()
	}

	return &RegistrationService{
		operators: operators,
		audit:     audit,
		validator: validator,
		now:       time.Now,
	}, nil
}

// WithClock allows injection of a custom clock (primarily for testing).
func (s *RegistrationService) WithClock(now func() time.Time) *RegistrationService {
	if now != nil {
		s.now = now
	}
	return s
}

// CreateOperator provisions a new operator account. At most one active
// SUPER_ADMIN may exist; the check happens before the insert so a second
// bootstrap attempt fails with ErrSuperAdminExists.
func (s *RegistrationService) CreateOperator(ctx context.Context, input CreateOperatorInput) (*domain.OperatorView, error) {
	email := domain.NormalizeEmail(input.Email)
	if email == "" {
		return nil, fmt.Errorf("email is required")
	}
	if input.DisplayName == "" {
		return nil, fmt.Errorf("display name is required")
	}
	if !input.Role.Valid() {
		return nil, fmt.Errorf("unknown role %q", input.Role)
	}

	if err := s.validator.Validate(input.Password); err != nil {
		return nil, err
	}

	if input.Role == domain.RoleSuperAdmin {
		exists, err := s.operators.HasActiveSuperAdmin(ctx)
		if err != nil {
			return nil, fmt.Errorf("check super admin: %w", err)
		}
		if exists {
			return nil, ErrSuperAdminExists
		}
	}

	hash, err := security.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	operator := domain.Operator{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		DisplayName:  input.DisplayName,
		Role:         input.Role,
		Department:   input.Department,
		IsActive:     true,
		CreatedAt:    s.now().UTC(),
	}

	if err := s.operators.Create(ctx, operator); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create operator: %w", err)
	}

	s.audit.Record(ctx, domain.AuditEntry{
		ActorID: input.ActorID,
		Kind:    domain.AuditOperatorCreated,
		Detail: map[string]any{
			"operator_id": operator.ID,
			"role":        string(operator.Role),
		},
		IP:        input.IP,
		UserAgent: input.UserAgent,
	})

	view := operator.View()
	return &view, nil
}

// Deactivate flips an operator's active flag off. Deactivation is a flag
// flip, never a physical delete.
func (s *RegistrationService) Deactivate(ctx context.Context, operatorID, actorID, ip string, userAgent *string) error {
	if operatorID == "" {
		return fmt.Errorf("operator id is required")
	}

	if err := s.operators.SetActive(ctx, operatorID, false); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return repository.ErrNotFound
		}
		return fmt.Errorf("deactivate operator: %w", err)
	}

	s.audit.Record(ctx, domain.AuditEntry{
		ActorID:   actorID,
		Kind:      domain.AuditOperatorDisabled,
		Detail:    map[string]any{"operator_id": operatorID},
		IP:        ip,
		UserAgent: userAgent,
	})

	return nil
}
