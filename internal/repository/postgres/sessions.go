package postgres

import (
	"context"
	"fmt"
	"time"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arklim/platform-operator-auth/internal/core/domain"
	"github.com/arklim/platform-operator-auth/internal/core/port"
	"github.com/arklim/platform-operator-auth/internal/repository"
)

// SessionRepository implements port.SessionRepository backed by PostgreSQL.
type SessionRepository struct {
	pool    *pgxpool.Pool
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewSessionRepository constructs a repository backed by any executor that satisfies pgExecutor.
func NewSessionRepository(exec pgExecutor) *SessionRepository {
	repo := &SessionRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
	if pool, ok := exec.(*pgxpool.Pool); ok {
		repo.pool = pool
	}
	return repo
}

// WithTx returns a repository instance that executes statements within the supplied transaction.
func (r *SessionRepository) WithTx(tx pgx.Tx) *SessionRepository {
	if tx == nil {
		return r
	}
	return &SessionRepository{
		pool:    r.pool,
		exec:    tx,
		builder: r.builder,
	}
}

var sessionColumns = []string{
	"id",
	"operator_id",
	"token_hash",
	"ip",
	"user_agent",
	"is_active",
	"mfa_verified",
	"last_activity",
	"created_at",
	"expires_at",
}

// Create persists a new session record.
func (r *SessionRepository) Create(ctx context.Context, session domain.Session) error {
	stmt, args, err := r.builder.Insert("admin.sessions").
		Columns(sessionColumns...).
		Values(
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
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert session sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}

	return nil
}

// GetByTokenHash retrieves the session owning the supplied token digest.
func (r *SessionRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*domain.Session, error) {
	stmt, args, err := r.builder.Select(sessionColumns...).
		From("admin.sessions").
		Where(squirrel.Eq{"token_hash": tokenHash}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select session by token hash sql: %w", err)
	}

	row := r.exec.QueryRow(ctx, stmt, args...)

	var session domain.Session
	if err := row.Scan(
		&session.ID,
		&session.OperatorID,
		&session.TokenHash,
		&session.IP,
		&session.UserAgent,
		&session.IsActive,
		&session.MFAVerified,
		&session.LastActivity,
		&session.CreatedAt,
		&session.ExpiresAt,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan session by token hash: %w", err)
	}

	return &session, nil
}

// Touch advances the session's last activity timestamp.
func (r *SessionRepository) Touch(ctx context.Context, id string, at time.Time) error {
	stmt, args, err := r.builder.Update("admin.sessions").
		Set("last_activity", at).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build touch session sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("touch session: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// Revoke deactivates a single session.
func (r *SessionRepository) Revoke(ctx context.Context, id string) error {
	stmt, args, err := r.builder.Update("admin.sessions").
		Set("is_active", false).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build revoke session sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// RevokeAllForOperator deactivates every active session for the operator in
// one statement and reports how many rows flipped.
func (r *SessionRepository) RevokeAllForOperator(ctx context.Context, operatorID string) (int, error) {
	stmt, args, err := r.builder.Update("admin.sessions").
		Set("is_active", false).
		Where(squirrel.Eq{"operator_id": operatorID}).
		Where(squirrel.Eq{"is_active": true}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build revoke all sessions sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return 0, fmt.Errorf("revoke sessions for operator: %w", err)
	}

	return int(ct.RowsAffected()), nil
}

// ListActiveByOperator returns usable sessions for the operator, newest activity first.
func (r *SessionRepository) ListActiveByOperator(ctx context.Context, operatorID string) ([]domain.Session, error) {
	now := time.Now().UTC()
	stmt, args, err := r.builder.Select(sessionColumns...).
		From("admin.sessions").
		Where(squirrel.Eq{"operator_id": operatorID}).
		Where(squirrel.Eq{"is_active": true}).
		Where(squirrel.Gt{"expires_at": now}).
		OrderBy("last_activity DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list sessions sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []domain.Session
	for rows.Next() {
		var session domain.Session
		if err := rows.Scan(
			&session.ID,
			&session.OperatorID,
			&session.TokenHash,
			&session.IP,
			&session.UserAgent,
			&session.IsActive,
			&session.MFAVerified,
			&session.LastActivity,
			&session.CreatedAt,
			&session.ExpiresAt,
		); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, session)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}

	return sessions, nil
}

var _ port.SessionRepository = (*SessionRepository)(nil)
