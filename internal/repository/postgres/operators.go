package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arklim/platform-operator-auth/internal/core/domain"
	"github.com/arklim/platform-operator-auth/internal/core/port"
	"github.com/arklim/platform-operator-auth/internal/repository"
)

const uniqueViolationCode = "23505"

// OperatorRepository implements port.OperatorRepository using PostgreSQL.
type OperatorRepository struct {
	pool    *pgxpool.Pool
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewOperatorRepository constructs a repository backed by any executor that satisfies pgExecutor.
func NewOperatorRepository(exec pgExecutor) *OperatorRepository {
	repo := &OperatorRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
	if pool, ok := exec.(*pgxpool.Pool); ok {
		repo.pool = pool
	}
	return repo
}

// WithTx returns a repository instance that executes statements within the supplied transaction.
func (r *OperatorRepository) WithTx(tx pgx.Tx) *OperatorRepository {
	if tx == nil {
		return r
	}
	return &OperatorRepository{
		pool:    r.pool,
		exec:    tx,
		builder: r.builder,
	}
}

var operatorColumns = []string{
	"id",
	"email",
	"password_hash",
	"display_name",
	"role",
	"department",
	"is_active",
	"mfa_enabled",
	"mfa_secret",
	"failed_login_attempts",
	"locked_until",
	"last_login_at",
	"created_at",
}

// Create inserts a new operator row.
func (r *OperatorRepository) Create(ctx context.Context, operator domain.Operator) error {
	stmt, args, err := r.builder.Insert("admin.operators").
		Columns(operatorColumns...).
		Values(
			operator.ID,
			operator.Email,
			operator.PasswordHash,
			operator.DisplayName,
			operator.Role,
			operator.Department,
			operator.IsActive,
			operator.MFAEnabled,
			operator.MFASecret,
			operator.FailedLoginAttempts,
			operator.LockedUntil,
			operator.LastLoginAt,
			operator.CreatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert operator sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return repository.ErrConflict
		}
		return fmt.Errorf("insert operator: %w", err)
	}

	return nil
}

// GetByID retrieves an operator by identifier.
func (r *OperatorRepository) GetByID(ctx context.Context, id string) (*domain.Operator, error) {
	stmt, args, err := r.builder.Select(operatorColumns...).
		From("admin.operators").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select operator sql: %w", err)
	}

	return r.scanOperator(r.exec.QueryRow(ctx, stmt, args...))
}

// GetByEmail retrieves an operator by normalized email.
func (r *OperatorRepository) GetByEmail(ctx context.Context, email string) (*domain.Operator, error) {
	stmt, args, err := r.builder.Select(operatorColumns...).
		From("admin.operators").
		Where(squirrel.Eq{"email": domain.NormalizeEmail(email)}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select operator by email sql: %w", err)
	}

	return r.scanOperator(r.exec.QueryRow(ctx, stmt, args...))
}

func (r *OperatorRepository) scanOperator(row pgx.Row) (*domain.Operator, error) {
	var operator domain.Operator
	if err := row.Scan(
		&operator.ID,
		&operator.Email,
		&operator.PasswordHash,
		&operator.DisplayName,
		&operator.Role,
		&operator.Department,
		&operator.IsActive,
		&operator.MFAEnabled,
		&operator.MFASecret,
		&operator.FailedLoginAttempts,
		&operator.LockedUntil,
		&operator.LastLoginAt,
		&operator.CreatedAt,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan operator: %w", err)
	}

	return &operator, nil
}

// RecordLoginFailure increments the consecutive-failure counter and stamps
// the lockout expiry when the counter reaches maxAttempts. Both happen in a
// single UPDATE so concurrent failures cannot skip the lockout threshold.
func (r *OperatorRepository) RecordLoginFailure(ctx context.Context, id string, maxAttempts int, lockedUntil time.Time) (port.LoginFailure, error) {
	const stmt = `
		UPDATE admin.operators
		   SET failed_login_attempts = failed_login_attempts + 1,
		       locked_until = CASE
		           WHEN failed_login_attempts + 1 >= $2 THEN $3
		           ELSE locked_until
		       END
		 WHERE id = $1
		RETURNING failed_login_attempts, locked_until
	`

	var result port.LoginFailure
	if err := r.exec.QueryRow(ctx, stmt, id, maxAttempts, lockedUntil).Scan(&result.Attempts, &result.LockedUntil); err != nil {
		if err == pgx.ErrNoRows {
			return port.LoginFailure{}, repository.ErrNotFound
		}
		return port.LoginFailure{}, fmt.Errorf("record login failure: %w", err)
	}

	return result, nil
}

// ResetLoginFailures zeroes the counter and clears any lockout.
func (r *OperatorRepository) ResetLoginFailures(ctx context.Context, id string) error {
	stmt, args, err := r.builder.Update("admin.operators").
		Set("failed_login_attempts", 0).
		Set("locked_until", nil).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build reset login failures sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("reset login failures: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// SetLastLogin stamps the most recent successful authentication.
func (r *OperatorRepository) SetLastLogin(ctx context.Context, id string, at time.Time) error {
	stmt, args, err := r.builder.Update("admin.operators").
		Set("last_login_at", at).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build set last login sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("set last login: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// SaveMFASecret stores a provisioned TOTP secret without enabling MFA.
func (r *OperatorRepository) SaveMFASecret(ctx context.Context, id string, secret string) error {
	stmt, args, err := r.builder.Update("admin.operators").
		Set("mfa_secret", secret).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build save mfa secret sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("save mfa secret: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// EnableMFA flips the mfa_enabled flag for an operator that already holds a secret.
func (r *OperatorRepository) EnableMFA(ctx context.Context, id string) error {
	stmt, args, err := r.builder.Update("admin.operators").
		Set("mfa_enabled", true).
		Where(squirrel.Eq{"id": id}).
		Where("mfa_secret IS NOT NULL").
		ToSql()
	if err != nil {
		return fmt.Errorf("build enable mfa sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("enable mfa: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// SetActive toggles an account between active and disabled.
func (r *OperatorRepository) SetActive(ctx context.Context, id string, active bool) error {
	stmt, args, err := r.builder.Update("admin.operators").
		Set("is_active", active).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build set active sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("set active: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// HasActiveSuperAdmin reports whether an active SUPER_ADMIN account exists.
func (r *OperatorRepository) HasActiveSuperAdmin(ctx context.Context) (bool, error) {
	stmt, args, err := r.builder.Select("COUNT(*)").
		From("admin.operators").
		Where(squirrel.Eq{"role": domain.RoleSuperAdmin}).
		Where(squirrel.Eq{"is_active": true}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build count super admins sql: %w", err)
	}

	var count int64
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(&count); err != nil {
		return false, fmt.Errorf("scan super admin count: %w", err)
	}

	return count > 0, nil
}

var _ port.OperatorRepository = (*OperatorRepository)(nil)
