package postgres

import (
	"context"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v2"

	"github.com/arklim/platform-operator-auth/internal/core/domain"
)

func TestAuditRepository_Append(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewAuditRepository(mock)

	now := time.Now().UTC()
	entry := domain.AuditEntry{
		ID:        "audit-1",
		ActorID:   "op-1",
		Kind:      domain.AuditLoginSuccess,
		Detail:    map[string]any{"session_id": "sess-1"},
		IP:        "198.51.100.7",
		CreatedAt: now,
	}

	mock.ExpectExec(`INSERT INTO admin\.audit_log`).
		WithArgs(
			entry.ID,
			entry.ActorID,
			entry.Kind,
			[]byte(`{"session_id":"sess-1"}`),
			entry.IP,
			nil,
			entry.CreatedAt,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	if err := repo.Append(context.Background(), entry); err != nil {
		t.Fatalf("Append returned error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAuditRepository_AppendNilDetail(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewAuditRepository(mock)

	now := time.Now().UTC()
	entry := domain.AuditEntry{
		ID:        "audit-2",
		ActorID:   domain.AuditActorSystem,
		Kind:      domain.AuditSessionForged,
		IP:        "203.0.113.9",
		CreatedAt: now,
	}

	mock.ExpectExec(`INSERT INTO admin\.audit_log`).
		WithArgs(
			entry.ID,
			entry.ActorID,
			entry.Kind,
			nil,
			entry.IP,
			nil,
			entry.CreatedAt,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	if err := repo.Append(context.Background(), entry); err != nil {
		t.Fatalf("Append returned error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAuditRepository_ListByActor(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewAuditRepository(mock)

	now := time.Now().UTC()
	rows := pgxmock.NewRows([]string{
		"id", "actor_id", "kind", "detail", "ip", "user_agent", "created_at",
	}).AddRow(
		"audit-2", "op-1", domain.AuditLoginSuccess, []byte(`{"session_id":"sess-1"}`), "198.51.100.7", nil, now,
	).AddRow(
		"audit-1", "op-1", domain.AuditPasswordVerified, []byte(nil), "198.51.100.7", nil, now.Add(-time.Second),
	)

	mock.ExpectQuery(`SELECT .*FROM admin\.audit_log`).
		WithArgs("op-1").
		WillReturnRows(rows)

	entries, err := repo.ListByActor(context.Background(), "op-1", 50)
	if err != nil {
		t.Fatalf("ListByActor returned error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Detail["session_id"] != "sess-1" {
		t.Fatalf("expected detail to round-trip, got %v", entries[0].Detail)
	}
	if entries[1].Detail != nil {
		t.Fatalf("expected nil detail, got %v", entries[1].Detail)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
