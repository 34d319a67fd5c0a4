package postgres

import "github.com/jackc/pgx/v5/pgxpool"

// Repositories groups concrete PostgreSQL repository implementations.
type Repositories struct {
	Operators *OperatorRepository
	Sessions  *SessionRepository
	Audit     *AuditRepository
}

// NewRepositories wires all repositories backed by the provided pool.
func NewRepositories(pool *pgxpool.Pool) *Repositories {
	return &Repositories{
		Operators: NewOperatorRepository(pool),
		Sessions:  NewSessionRepository(pool),
		Audit:     NewAuditRepository(pool),
	}
}
