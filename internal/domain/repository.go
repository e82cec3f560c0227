// Package domain defines the core interfaces and types for Shrike.
package domain

import (
	"context"
	"time"
)

// Repository defines the interface for data persistence.
// All methods require tenantID for strict multi-tenancy isolation.
type Repository interface {
	// Message operations
	SaveMessage(ctx context.Context, tenantID string, msg *Message) error
	GetMessage(ctx context.Context, tenantID string, msgID string) (*Message, error)

	// Verdict history
	SaveVerdict(ctx context.Context, tenantID string, verdict *Verdict) error
	GetVerdict(ctx context.Context, tenantID string, verdictID string) (*Verdict, error)
	ListVerdictsBySender(ctx context.Context, tenantID string, sender string, since time.Time) ([]*Verdict, error)

	// Rule-set lifecycle. SaveRuleSet enforces version monotonicity and
	// returns ErrStaleVersion when the candidate is not newer than the
	// installed one. The previous version is retained for rollback.
	SaveRuleSet(ctx context.Context, tenantID string, rs *RuleSet) error
	GetCurrentRuleSet(ctx context.Context, tenantID string) (*RuleSet, error)
	RollbackRuleSet(ctx context.Context, tenantID string) (*RuleSet, error)

	// Health check
	Ping(ctx context.Context) error

	// Lifecycle
	Close() error
}

// RepositoryConfig holds configuration for repository initialization.
type RepositoryConfig struct {
	// Driver is the database driver: "sqlite" or "postgres"
	Driver string

	// SQLite specific
	SQLitePath string

	// PostgreSQL specific
	PostgresHost     string
	PostgresPort     int
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	// Connection pool settings
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}
