package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v2"

	"github.com/arklim/platform-operator-auth/internal/core/domain"
	"github.com/arklim/platform-operator-auth/internal/repository"
)

func TestSessionRepository_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewSessionRepository(mock)

	now := time.Now().UTC()
	userAgent := "Mozilla/5.0"
	session := domain.Session{
		ID:           "sess-1",
		OperatorID:   "op-1",
		TokenHash:    "deadbeef",
		IP:           "198.51.100.7",
		UserAgent:    &userAgent,
		IsActive:     true,
		MFAVerified:  true,
		LastActivity: now,
		CreatedAt:    now,
		ExpiresAt:    now.Add(30 * time.Minute),
	}

	mock.ExpectExec(`INSERT INTO admin\.sessions`).
		WithArgs(
			session.ID,
			session.OperatorID,
			session.TokenHash,
			session.IP,
			session.UserAgent,
			session.IsActive,
			session.MFAVerified,
			session.LastActivity,
			session.CreatedAt,
			session.ExpiresAt,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	if err := repo.Create(context.Background(), session); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSessionRepository_GetByTokenHash(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewSessionRepository(mock)

	now := time.Now().UTC()
	rows := pgxmock.NewRows(sessionColumns).AddRow(
		"sess-1", "op-1", "deadbeef", "198.51.100.7", nil,
		true, false, now, now, now.Add(30*time.Minute),
	)

	mock.ExpectQuery(`SELECT .*FROM admin\.sessions`).
		WithArgs("deadbeef").
		WillReturnRows(rows)

	session, err := repo.GetByTokenHash(context.Background(), "deadbeef")
	if err != nil {
		t.Fatalf("GetByTokenHash returned error: %v", err)
	}
	if session.ID != "sess-1" || session.OperatorID != "op-1" {
		t.Fatalf("unexpected session %+v", session)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSessionRepository_GetByTokenHashNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewSessionRepository(mock)

	mock.ExpectQuery(`SELECT .*FROM admin\.sessions`).
		WithArgs("unknown").
		WillReturnRows(pgxmock.NewRows(sessionColumns))

	if _, err := repo.GetByTokenHash(context.Background(), "unknown"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSessionRepository_TouchNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewSessionRepository(mock)

	at := time.Now().UTC()
	mock.ExpectExec(`UPDATE admin\.sessions`).
		WithArgs(at, "missing").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	if err := repo.Touch(context.Background(), "missing", at); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSessionRepository_RevokeAllForOperator(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewSessionRepository(mock)

	mock.ExpectExec(`UPDATE admin\.sessions`).
		WithArgs(false, "op-1", true).
		WillReturnResult(pgxmock.NewResult("UPDATE", 3))

	count, err := repo.RevokeAllForOperator(context.Background(), "op-1")
	if err != nil {
		t.Fatalf("RevokeAllForOperator returned error: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 revoked sessions, got %d", count)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSessionRepository_ListActiveByOperator(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewSessionRepository(mock)

	now := time.Now().UTC()
	rows := pgxmock.NewRows(sessionColumns).AddRow(
		"sess-2", "op-1", "hash-2", "198.51.100.7", nil,
		true, false, now, now, now.Add(time.Hour),
	).AddRow(
		"sess-1", "op-1", "hash-1", "198.51.100.7", nil,
		true, true, now.Add(-time.Minute), now.Add(-time.Hour), now.Add(time.Hour),
	)

	mock.ExpectQuery(`SELECT .*FROM admin\.sessions`).
		WithArgs("op-1", true, pgxmock.AnyArg()).
		WillReturnRows(rows)

	sessions, err := repo.ListActiveByOperator(context.Background(), "op-1")
	if err != nil {
		t.Fatalf("ListActiveByOperator returned error: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(sessions))
	}
	if sessions[0].ID != "sess-2" {
		t.Fatalf("expected newest activity first, got %s", sessions[0].ID)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
