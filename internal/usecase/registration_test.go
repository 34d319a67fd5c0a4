package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/arklim/platform-operator-auth/internal/core/domain"
	"github.com/arklim/platform-operator-auth/internal/infra/security"
	"github.com/arklim/platform-operator-auth/internal/repository"
)

type registrationFixture struct {
	service   *RegistrationService
	operators *stubOperatorRepo
	audit     *stubAuditRepo
}

func newRegistrationFixture(t *testing.T, operators ...domain.Operator) *registrationFixture {
	t.Helper()

	operatorRepo := newStubOperatorRepo(operators...)
	auditRepo := &stubAuditRepo{}
	auditService := NewAuditService(auditRepo, nil, nil, zap.NewNop()).
		WithClock(func() time.Time { return testNow })

	service, err := NewRegistrationService(operatorRepo, auditService, nil)
	if err != nil {
		t.Fatalf("new registration service: %v", err)
	}
	service.WithClock(func() time.Time { return testNow })

	return &registrationFixture{service: service, operators: operatorRepo, audit: auditRepo}
}

func validCreateInput() CreateOperatorInput {
	return CreateOperatorInput{
		Email:       "Bob@Example.com",
		Password:    "glacier-mosaic-Trumpet-41!",
		DisplayName: "Bob",
		Role:        domain.RoleSupport,
		ActorID:     "admin-9",
		IP:          "192.0.2.1",
	}
}

func TestCreateOperatorNormalizesEmail(t *testing.T) {
	fixture := newRegistrationFixture(t)

	view, err := fixture.service.CreateOperator(context.Background(), validCreateInput())
	if err != nil {
		t.Fatalf("create operator: %v", err)
	}
	if view.Email != "bob@example.com" {
		t.Fatalf("email must be normalized, got %q", view.Email)
	}
	if !view.IsActive {
		t.Fatal("new operators start active")
	}
	if view.MFAEnabled {
		t.Fatal("new operators start without mfa")
	}

	stored := fixture.operators.get(view.ID)
	ok, err := security.VerifyPassword("glacier-mosaic-Trumpet-41!", stored.PasswordHash)
	if err != nil || !ok {
		t.Fatalf("stored hash does not verify: ok=%v err=%v", ok, err)
	}

	entry, found := fixture.audit.lastEntry()
	if !found || entry.Kind != domain.AuditOperatorCreated {
		t.Fatal("missing operator created audit entry")
	}
	if entry.ActorID != "admin-9" {
		t.Fatalf("creation must be attributed to the acting admin, got %q", entry.ActorID)
	}
}

func TestCreateOperatorRejectsWeakPassword(t *testing.T) {
	fixture := newRegistrationFixture(t)

	input := validCreateInput()
	input.Password = "password123"

	_, err := fixture.service.CreateOperator(context.Background(), input)
	if err == nil {
		t.Fatal("expected weak password rejection")
	}

	var validationErr *security.PasswordValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected PasswordValidationError, got %v", err)
	}
	if len(fixture.audit.kinds()) != 0 {
		t.Fatal("a rejected creation must not be audited as created")
	}
}

func TestCreateOperatorRejectsUnknownRole(t *testing.T) {
	fixture := newRegistrationFixture(t)

	input := validCreateInput()
	input.Role = domain.OperatorRole("INTERN")

	if _, err := fixture.service.CreateOperator(context.Background(), input); err == nil {
		t.Fatal("expected unknown role rejection")
	}
}

func TestCreateOperatorDuplicateEmail(t *testing.T) {
	fixture := newRegistrationFixture(t)

	if _, err := fixture.service.CreateOperator(context.Background(), validCreateInput()); err != nil {
		t.Fatalf("first create: %v", err)
	}

	input := validCreateInput()
	input.Email = "BOB@example.com"
	if _, err := fixture.service.CreateOperator(context.Background(), input); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestCreateOperatorSecondSuperAdminRejected(t *testing.T) {
	existing := testOperator(t, "correct horse battery staple 9!")
	existing.Role = domain.RoleSuperAdmin
	fixture := newRegistrationFixture(t, existing)

	input := validCreateInput()
	input.Role = domain.RoleSuperAdmin

	if _, err := fixture.service.CreateOperator(context.Background(), input); !errors.Is(err, ErrSuperAdminExists) {
		t.Fatalf("expected ErrSuperAdminExists, got %v", err)
	}
}

func TestCreateOperatorSuperAdminAfterDeactivation(t *testing.T) {
	existing := testOperator(t, "correct horse battery staple 9!")
	existing.Role = domain.RoleSuperAdmin
	existing.IsActive = false
	fixture := newRegistrationFixture(t, existing)

	input := validCreateInput()
	input.Email = "root@example.com"
	input.Role = domain.RoleSuperAdmin

	// Only ACTIVE super admins block a new bootstrap.
	if _, err := fixture.service.CreateOperator(context.Background(), input); err != nil {
		t.Fatalf("create super admin: %v", err)
	}
}

func TestDeactivateOperator(t *testing.T) {
	fixture := newRegistrationFixture(t, testOperator(t, "correct horse battery staple 9!"))

	if err := fixture.service.Deactivate(context.Background(), "op-1", "admin-9", "192.0.2.1", nil); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	operator := fixture.operators.get("op-1")
	if operator.IsActive {
		t.Fatal("operator must be inactive after deactivation")
	}
	if fixture.audit.countKind(domain.AuditOperatorDisabled) != 1 {
		t.Fatal("missing deactivation audit entry")
	}
}

func TestDeactivateUnknownOperator(t *testing.T) {
	fixture := newRegistrationFixture(t)

	if err := fixture.service.Deactivate(context.Background(), "missing", "admin-9", "192.0.2.1", nil); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
