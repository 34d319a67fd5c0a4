package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/arklim/platform-operator-auth/internal/core/domain"
	"github.com/arklim/platform-operator-auth/internal/core/port"
	"github.com/arklim/platform-operator-auth/internal/infra/config"
	"github.com/arklim/platform-operator-auth/internal/infra/security"
	"github.com/arklim/platform-operator-auth/internal/infra/telemetry"
	"github.com/arklim/platform-operator-auth/internal/repository"
)

// MFAEnrollment carries the artifacts handed to the operator during setup.
// The URI embeds the shared secret; neither is ever persisted to the audit
// trail or logs.
type MFAEnrollment struct {
	Secret        string
	EnrollmentURI string
}

// MFAService handles TOTP provisioning for operator accounts.
type MFAService struct {
	cfg       *config.AppConfig
	operators port.OperatorRepository
	audit     *AuditService
	metrics   *telemetry.AuthMetrics
	now       func() time.Time
}

// NewMFAService constructs an MFAService instance.
func NewMFAService(cfg *config.AppConfig, operators port.OperatorRepository, audit *AuditService, metrics *telemetry.AuthMetrics) (*MFAService, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if operators == nil {
		return nil, fmt.Errorf("operator repository is required")
	}
	if audit == nil {
		return nil, fmt.Errorf("audit service is required")
	}
	if metrics == nil {
		metrics = telemetry.Nop()
	}

	return &MFAService{
		cfg:       cfg,
		operators: operators,
		audit:     audit,
		metrics:   metrics,
		now:       time.Now,
	}, nil
}

// WithClock allows injection of a custom clock (primarily for testing).
func (s *MFAService) WithClock(now func() time.Time) *MFAService {
	if now != nil {
		s.now = now
	}
	return s
}

// SetupMFA provisions a fresh TOTP secret for the operator. The secret is
// persisted in a pending state; mfa_enabled stays false until EnableMFA
// verifies a code. Calling setup again overwrites the pending secret.
func (s *MFAService) SetupMFA(ctx context.Context, operatorID, ip string, userAgent *string) (*MFAEnrollment, error) {
	operator, err := s.operators.GetByID(ctx, operatorID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("lookup operator: %w", err)
	}
	if !operator.IsActive {
		return nil, ErrAccountInactive
	}

	enrollment, err := security.GenerateTOTP(s.cfg.Auth.MFAIssuer, operator.Email)
	if err != nil {
		return nil, fmt.Errorf("generate totp secret: %w", err)
	}

	if err := s.operators.SaveMFASecret(ctx, operator.ID, enrollment.Secret); err != nil {
		return nil, fmt.Errorf("save mfa secret: %w", err)
	}

	s.audit.Record(ctx, domain.AuditEntry{
		ActorID:   operator.ID,
		Kind:      domain.AuditMFASetup,
		IP:        ip,
		UserAgent: userAgent,
	})

	return &MFAEnrollment{Secret: enrollment.Secret, EnrollmentURI: enrollment.URI}, nil
}

// EnableMFA verifies a code against the pending secret and flips
// mfa_enabled. On a failed code the pending secret stays intact so the
// operator can retry.
func (s *MFAService) EnableMFA(ctx context.Context, operatorID, code, ip string, userAgent *string) error {
	operator, err := s.operators.GetByID(ctx, operatorID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return repository.ErrNotFound
		}
		return fmt.Errorf("lookup operator: %w", err)
	}
	if !operator.IsActive {
		return ErrAccountInactive
	}
	if operator.MFASecret == nil || *operator.MFASecret == "" {
		return ErrMFANotConfigured
	}

	if !security.VerifyTOTP(*operator.MFASecret, code, s.now().UTC()) {
		s.metrics.MFAVerifications.WithLabelValues("failure").Inc()
		s.audit.Record(ctx, domain.AuditEntry{
			ActorID:   operator.ID,
			Kind:      domain.AuditMFAFailure,
			Detail:    map[string]any{"stage": "enable"},
			IP:        ip,
			UserAgent: userAgent,
		})
		return ErrMFAInvalidToken
	}

	if err := s.operators.EnableMFA(ctx, operator.ID); err != nil {
		return fmt.Errorf("enable mfa: %w", err)
	}

	s.metrics.MFAVerifications.WithLabelValues("success").Inc()
	s.audit.Record(ctx, domain.AuditEntry{
		ActorID:   operator.ID,
		Kind:      domain.AuditMFAEnabled,
		IP:        ip,
		UserAgent: userAgent,
	})

	return nil
}
