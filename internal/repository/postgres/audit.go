package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arklim/platform-operator-auth/internal/core/domain"
	"github.com/arklim/platform-operator-auth/internal/core/port"
)

// AuditRepository implements port.AuditRepository backed by PostgreSQL. The
// audit_log table is append-only; no update or delete statements exist here.
type AuditRepository struct {
	pool    *pgxpool.Pool
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewAuditRepository constructs a repository backed by any executor that satisfies pgExecutor.
func NewAuditRepository(exec pgExecutor) *AuditRepository {
	repo := &AuditRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
	if pool, ok := exec.(*pgxpool.Pool); ok {
		repo.pool = pool
	}
	return repo
}

// Append persists one audit entry.
func (r *AuditRepository) Append(ctx context.Context, entry domain.AuditEntry) error {
	detail, err := marshalAuditDetail(entry.Detail)
	if err != nil {
		return err
	}

	stmt, args, err := r.builder.Insert("admin.audit_log").
		Columns(
			"id",
			"actor_id",
			"kind",
			"detail",
			"ip",
			"user_agent",
			"created_at",
		).
		Values(
			entry.ID,
			entry.ActorID,
			entry.Kind,
			detail,
			entry.IP,
			entry.UserAgent,
			entry.CreatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert audit entry sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}

	return nil
}

// ListByActor returns the most recent audit entries for an actor.
func (r *AuditRepository) ListByActor(ctx context.Context, actorID string, limit int) ([]domain.AuditEntry, error) {
	query := r.builder.Select(
		"id",
		"actor_id",
		"kind",
		"detail",
		"ip",
		"user_agent",
		"created_at",
	).
		From("admin.audit_log").
		Where(squirrel.Eq{"actor_id": actorID}).
		OrderBy("created_at DESC")

	if limit > 0 {
		query = query.Limit(uint64(limit))
	}

	stmt, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list audit entries sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	entries := make([]domain.AuditEntry, 0)
	for rows.Next() {
		var (
			entry  domain.AuditEntry
			detail []byte
		)

		if err := rows.Scan(
			&entry.ID,
			&entry.ActorID,
			&entry.Kind,
			&detail,
			&entry.IP,
			&entry.UserAgent,
			&entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}

		if len(detail) > 0 {
			if err := json.Unmarshal(detail, &entry.Detail); err != nil {
				return nil, fmt.Errorf("unmarshal audit detail: %w", err)
			}
		}

		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}

	return entries, nil
}

func marshalAuditDetail(detail map[string]any) ([]byte, error) {
	if detail == nil {
		return nil, nil
	}

	payload, err := json.Marshal(detail)
	if err != nil {
		return nil, fmt.Errorf("marshal audit detail: %w", err)
	}
	return payload, nil
}

var _ port.AuditRepository = (*AuditRepository)(nil)
