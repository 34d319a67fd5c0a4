package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	uuid "github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/arklim/platform-operator-auth/internal/core/domain"
	"github.com/arklim/platform-operator-auth/internal/core/port"
	"github.com/arklim/platform-operator-auth/internal/infra/config"
	"github.com/arklim/platform-operator-auth/internal/infra/logger"
	"github.com/arklim/platform-operator-auth/internal/infra/security"
	"github.com/arklim/platform-operator-auth/internal/infra/telemetry"
	"github.com/arklim/platform-operator-auth/internal/repository"
)

var (
	// ErrInvalidCredentials indicates the email or password is incorrect.
	// Unknown email and wrong password are deliberately indistinguishable.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountInactive indicates the account has been deactivated.
	ErrAccountInactive = errors.New("account is not active")
	// ErrAccountLocked indicates the account is inside a lockout window.
	ErrAccountLocked = errors.New("account locked")
	// ErrMFARequired indicates password verification succeeded and a TOTP
	// code must be presented before a session is issued.
	ErrMFARequired = errors.New("mfa verification required")
	// ErrMFAInvalidToken indicates the submitted TOTP code did not verify.
	ErrMFAInvalidToken = errors.New("invalid mfa token")
	// ErrMFANotConfigured indicates MFA verification was requested before setup.
	ErrMFANotConfigured = errors.New("mfa is not configured")
	// ErrSuperAdminExists indicates an active SUPER_ADMIN account already exists.
	ErrSuperAdminExists = errors.New("super admin already exists")
	// ErrSessionInvalid indicates the token is expired, revoked, or malformed.
	// The cases are deliberately merged to avoid token state enumeration.
	ErrSessionInvalid = errors.New("session invalid")
)

// LoginInput carries the credentials and request context for a login attempt.
type LoginInput struct {
	Email     string
	Password  string
	IP        string
	UserAgent *string
}

// MFAVerifyInput carries a submitted TOTP code for the second login step.
type MFAVerifyInput struct {
	OperatorID string
	Code       string
	IP         string
	UserAgent  *string
}

// LoginResult is the outcome of a successful login step. When RequiresMFA is
// set no session exists yet and Token is empty.
type LoginResult struct {
	RequiresMFA bool
	Operator    domain.OperatorView
	Token       string
	Session     *domain.SessionSummary
}

// ValidatedSession is returned when a bearer token resolves to a usable session.
type ValidatedSession struct {
	Operator domain.OperatorView
	Session  domain.SessionSummary
}

// AuthService coordinates the login, session validation, and logout protocols.
// It holds no per-attempt state; every decision is derived from the stores.
type AuthService struct {
	cfg       *config.AppConfig
	operators port.OperatorRepository
	sessions  port.SessionRepository
	audit     *AuditService
	publisher port.EventPublisher
	codec     *security.TokenCodec
	metrics   *telemetry.AuthMetrics
	logger    *zap.Logger
	now       func() time.Time
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(
	cfg *config.AppConfig,
	operators port.OperatorRepository,
	sessions port.SessionRepository,
	audit *AuditService,
	publisher port.EventPublisher,
	codec *security.TokenCodec,
	metrics *telemetry.AuthMetrics,
	log *zap.Logger,
) (*AuthService, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if operators == nil || sessions == nil {
		return nil, fmt.Errorf("operator and session repositories are required")
	}
	if audit == nil {
		return nil, fmt.Errorf("audit service is required")
	}
	if codec == nil {
		return nil, fmt.Errorf("token codec is required")
	}
	if metrics == nil {
		metrics = telemetry.Nop()
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &AuthService{
		cfg:       cfg,
		operators: operators,
		sessions:  sessions,
		audit:     audit,
		publisher: publisher,
		codec:     codec,
		metrics:   metrics,
		logger:    log,
		now:       time.Now,
	}, nil
}

// WithClock allows injection of a custom clock (primarily for testing).
func (s *AuthService) WithClock(now func() time.Time) *AuthService {
	if now != nil {
		s.now = now
	}
	return s
}

// Login verifies credentials and either issues a session or reports that an
// MFA code is required. The lockout check runs before password verification
// so a locked account never reaches the verifier.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	if input.Email == "" || input.Password == "" {
		return nil, ErrInvalidCredentials
	}

	now := s.now().UTC()

	operator, err := s.operators.GetByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.metrics.LoginAttempts.WithLabelValues("invalid_credentials").Inc()
			s.audit.Record(ctx, domain.AuditEntry{
				ActorID:   domain.AuditActorSystem,
				Kind:      domain.AuditLoginFailure,
				Detail:    map[string]any{"reason": "unknown_email", "email": logger.MaskEmail(input.Email)},
				IP:        input.IP,
				UserAgent: input.UserAgent,
			})
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup operator: %w", err)
	}

	if !operator.IsActive {
		s.metrics.LoginAttempts.WithLabelValues("inactive").Inc()
		s.audit.Record(ctx, domain.AuditEntry{
			ActorID:   operator.ID,
			Kind:      domain.AuditOperatorInactive,
			IP:        input.IP,
			UserAgent: input.UserAgent,
		})
		return nil, ErrAccountInactive
	}

	if operator.IsLocked(now) {
		s.metrics.LoginAttempts.WithLabelValues("locked").Inc()
		s.audit.Record(ctx, domain.AuditEntry{
			ActorID:   operator.ID,
			Kind:      domain.AuditLoginLocked,
			Detail:    map[string]any{"locked_until": operator.LockedUntil.UTC().Format(time.RFC3339)},
			IP:        input.IP,
			UserAgent: input.UserAgent,
		})
		return nil, ErrAccountLocked
	}

	ok, err := security.VerifyPassword(input.Password, operator.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return nil, s.handlePasswordFailure(ctx, operator, input, now)
	}

	if err := s.operators.ResetLoginFailures(ctx, operator.ID); err != nil {
		return nil, fmt.Errorf("reset login failures: %w", err)
	}

	s.audit.Record(ctx, domain.AuditEntry{
		ActorID:   operator.ID,
		Kind:      domain.AuditPasswordVerified,
		IP:        input.IP,
		UserAgent: input.UserAgent,
	})

	if operator.MFAEnabled {
		s.metrics.LoginAttempts.WithLabelValues("mfa_required").Inc()
		return &LoginResult{RequiresMFA: true, Operator: operator.View()}, nil
	}

	token, session, err := s.issueSession(ctx, *operator, input.IP, input.UserAgent, false, now)
	if err != nil {
		return nil, err
	}

	s.metrics.LoginAttempts.WithLabelValues("success").Inc()
	s.audit.Record(ctx, domain.AuditEntry{
		ActorID:   operator.ID,
		Kind:      domain.AuditLoginSuccess,
		Detail:    map[string]any{"session_id": session.ID},
		IP:        input.IP,
		UserAgent: input.UserAgent,
	})

	summary := session.Summary()
	return &LoginResult{Operator: operator.View(), Token: token, Session: &summary}, nil
}

func (s *AuthService) handlePasswordFailure(ctx context.Context, operator *domain.Operator, input LoginInput, now time.Time) error {
	s.metrics.LoginAttempts.WithLabelValues("invalid_credentials").Inc()

	failure, err := s.operators.RecordLoginFailure(ctx, operator.ID, s.cfg.Auth.MaxAttempts, now.Add(s.cfg.Auth.LockoutDuration))
	if err != nil {
		return fmt.Errorf("record login failure: %w", err)
	}

	s.audit.Record(ctx, domain.AuditEntry{
		ActorID:   operator.ID,
		Kind:      domain.AuditLoginFailure,
		Detail:    map[string]any{"reason": "wrong_password", "attempts": failure.Attempts},
		IP:        input.IP,
		UserAgent: input.UserAgent,
	})

	if failure.Attempts >= s.cfg.Auth.MaxAttempts && failure.LockedUntil != nil {
		s.metrics.AccountLockouts.Inc()
		s.audit.Record(ctx, domain.AuditEntry{
			ActorID: operator.ID,
			Kind:    domain.AuditAccountLockout,
			Detail: map[string]any{
				"attempts":     failure.Attempts,
				"locked_until": failure.LockedUntil.UTC().Format(time.RFC3339),
			},
			IP:        input.IP,
			UserAgent: input.UserAgent,
		})

		if s.publisher != nil {
			event := domain.OperatorLockedEvent{
				OperatorID:  operator.ID,
				Attempts:    failure.Attempts,
				LockedUntil: *failure.LockedUntil,
				IP:          input.IP,
				LockedAt:    now,
			}
			if err := s.publisher.PublishOperatorLocked(ctx, event); err != nil {
				s.logger.Warn("publish operator locked event", zap.Error(err))
			}
		}
	}

	return ErrInvalidCredentials
}

// VerifyMFA completes the second login step for an MFA-enabled account.
// TOTP failures are audited but never feed the password failure counter.
func (s *AuthService) VerifyMFA(ctx context.Context, input MFAVerifyInput) (*LoginResult, error) {
	if input.OperatorID == "" || input.Code == "" {
		return nil, ErrMFAInvalidToken
	}

	now := s.now().UTC()

	operator, err := s.operators.GetByID(ctx, input.OperatorID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup operator: %w", err)
	}

	if !operator.IsActive {
		return nil, ErrAccountInactive
	}
	if !operator.MFAEnabled || operator.MFASecret == nil {
		return nil, ErrMFANotConfigured
	}

	if !security.VerifyTOTP(*operator.MFASecret, input.Code, now) {
		s.metrics.MFAVerifications.WithLabelValues("failure").Inc()
		s.audit.Record(ctx, domain.AuditEntry{
			ActorID:   operator.ID,
			Kind:      domain.AuditMFAFailure,
			Detail:    map[string]any{"stage": "login"},
			IP:        input.IP,
			UserAgent: input.UserAgent,
		})
		return nil, ErrMFAInvalidToken
	}

	token, session, err := s.issueSession(ctx, *operator, input.IP, input.UserAgent, true, now)
	if err != nil {
		return nil, err
	}

	s.metrics.MFAVerifications.WithLabelValues("success").Inc()
	s.audit.Record(ctx, domain.AuditEntry{
		ActorID:   operator.ID,
		Kind:      domain.AuditMFALoginSuccess,
		Detail:    map[string]any{"session_id": session.ID},
		IP:        input.IP,
		UserAgent: input.UserAgent,
	})

	summary := session.Summary()
	return &LoginResult{Operator: operator.View(), Token: token, Session: &summary}, nil
}

func (s *AuthService) issueSession(ctx context.Context, operator domain.Operator, ip string, userAgent *string, mfaVerified bool, now time.Time) (string, domain.Session, error) {
	sessionID := uuid.NewString()
	expiresAt := now.Add(s.cfg.Auth.SessionTTL)

	token, err := s.codec.Sign(operator.ID, sessionID, now, expiresAt)
	if err != nil {
		return "", domain.Session{}, fmt.Errorf("sign session token: %w", err)
	}

	session := domain.Session{
		ID:           sessionID,
		OperatorID:   operator.ID,
		TokenHash:    security.HashToken(token),
		IP:           ip,
		UserAgent:    userAgent,
		IsActive:     true,
		MFAVerified:  mfaVerified,
		LastActivity: now,
		CreatedAt:    now,
		ExpiresAt:    expiresAt,
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return "", domain.Session{}, fmt.Errorf("create session: %w", err)
	}

	if err := s.operators.SetLastLogin(ctx, operator.ID, now); err != nil {
		return "", domain.Session{}, fmt.Errorf("set last login: %w", err)
	}

	return token, session, nil
}

// ValidateSession resolves a bearer token to its session record. The token
// is checked structurally first so forged or expired tokens never cost a
// store round trip; the session record then has the final word.
func (s *AuthService) ValidateSession(ctx context.Context, token, ip string, userAgent *string) (*ValidatedSession, error) {
	now := s.now().UTC()

	claims, err := s.codec.Verify(token)
	if err != nil {
		if errors.Is(err, security.ErrTokenInvalid) && token != "" {
			s.audit.Record(ctx, domain.AuditEntry{
				ActorID:   domain.AuditActorSystem,
				Kind:      domain.AuditSessionForged,
				Detail:    map[string]any{"reason": "signature_or_structure"},
				IP:        ip,
				UserAgent: userAgent,
			})
		}
		return nil, ErrSessionInvalid
	}

	session, err := s.sessions.GetByTokenHash(ctx, security.HashToken(token))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionInvalid
		}
		return nil, fmt.Errorf("lookup session: %w", err)
	}

	if session.ID != claims.SessionID || session.OperatorID != claims.OperatorID {
		return nil, ErrSessionInvalid
	}
	if !session.Usable(now) {
		return nil, ErrSessionInvalid
	}

	operator, err := s.operators.GetByID(ctx, session.OperatorID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionInvalid
		}
		return nil, fmt.Errorf("lookup operator: %w", err)
	}
	if !operator.IsActive {
		return nil, ErrSessionInvalid
	}

	if err := s.sessions.Touch(ctx, session.ID, now); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("touch session: %w", err)
	}

	session.LastActivity = now
	return &ValidatedSession{Operator: operator.View(), Session: session.Summary()}, nil
}

// Logout revokes the session behind the supplied bearer token. Revoking an
// already-revoked session is not an error.
func (s *AuthService) Logout(ctx context.Context, token, ip string, userAgent *string) error {
	claims, err := s.codec.Verify(token)
	if err != nil {
		if errors.Is(err, security.ErrTokenInvalid) && token != "" {
			s.audit.Record(ctx, domain.AuditEntry{
				ActorID:   domain.AuditActorSystem,
				Kind:      domain.AuditSessionForged,
				Detail:    map[string]any{"reason": "signature_or_structure"},
				IP:        ip,
				UserAgent: userAgent,
			})
		}
		return ErrSessionInvalid
	}

	session, err := s.sessions.GetByTokenHash(ctx, security.HashToken(token))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrSessionInvalid
		}
		return fmt.Errorf("lookup session: %w", err)
	}
	if session.ID != claims.SessionID {
		return ErrSessionInvalid
	}

	if err := s.sessions.Revoke(ctx, session.ID); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("revoke session: %w", err)
	}

	now := s.now().UTC()
	s.metrics.SessionsRevoked.WithLabelValues("logout").Inc()
	s.audit.Record(ctx, domain.AuditEntry{
		ActorID:   session.OperatorID,
		Kind:      domain.AuditSessionRevoked,
		Detail:    map[string]any{"session_id": session.ID, "reason": "logout"},
		IP:        ip,
		UserAgent: userAgent,
	})

	if s.publisher != nil {
		event := domain.SessionRevokedEvent{
			SessionID:  session.ID,
			OperatorID: session.OperatorID,
			Reason:     "logout",
			RevokedAt:  now,
		}
		if err := s.publisher.PublishSessionRevoked(ctx, event); err != nil {
			s.logger.Warn("publish session revoked event", zap.Error(err))
		}
	}

	return nil
}

// EmergencyLogoutAll revokes every active session owned by the target
// operator in a single statement and returns how many were revoked.
func (s *AuthService) EmergencyLogoutAll(ctx context.Context, targetOperatorID, actorID, ip string, userAgent *string) (int, error) {
	if targetOperatorID == "" {
		return 0, fmt.Errorf("operator id is required")
	}

	if _, err := s.operators.GetByID(ctx, targetOperatorID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, repository.ErrNotFound
		}
		return 0, fmt.Errorf("lookup operator: %w", err)
	}

	count, err := s.sessions.RevokeAllForOperator(ctx, targetOperatorID)
	if err != nil {
		return 0, fmt.Errorf("revoke sessions for operator: %w", err)
	}

	now := s.now().UTC()
	s.metrics.SessionsRevoked.WithLabelValues("emergency").Add(float64(count))
	s.audit.Record(ctx, domain.AuditEntry{
		ActorID: actorID,
		Kind:    domain.AuditEmergencyLogout,
		Detail: map[string]any{
			"target_operator_id": targetOperatorID,
			"sessions_revoked":   count,
		},
		IP:        ip,
		UserAgent: userAgent,
	})

	if s.publisher != nil && count > 0 {
		event := domain.SessionRevokedEvent{
			OperatorID: targetOperatorID,
			Reason:     "emergency_logout",
			RevokedAt:  now,
		}
		if err := s.publisher.PublishSessionRevoked(ctx, event); err != nil {
			s.logger.Warn("publish session revoked event", zap.Error(err))
		}
	}

	return count, nil
}

// Sessions lists the usable sessions owned by an operator.
func (s *AuthService) Sessions(ctx context.Context, operatorID string) ([]domain.SessionSummary, error) {
	if operatorID == "" {
		return nil, fmt.Errorf("operator id is required")
	}

	sessions, err := s.sessions.ListActiveByOperator(ctx, operatorID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	summaries := make([]domain.SessionSummary, 0, len(sessions))
	for _, session := range sessions {
		summaries = append(summaries, session.Summary())
	}
	return summaries, nil
}
