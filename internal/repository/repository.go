// Package repository provides data persistence implementations.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/opensource-finance/shrike/internal/domain"
	"github.com/opensource-finance/shrike/internal/rules"
)

var (
	ErrNotFound     = errors.New("record not found")
	ErrInvalidInput = errors.New("invalid input")

	// ErrStaleVersion is returned when a candidate rule set is not newer
	// than the installed one (anti-downgrade).
	ErrStaleVersion = errors.New("rule set version is not newer than installed version")
)

// SQLRepository implements domain.Repository using database/sql.
// Works with both SQLite and PostgreSQL drivers.
type SQLRepository struct {
	db     *sql.DB
	driver string
}

// New creates a new repository based on configuration.
func New(cfg domain.RepositoryConfig) (domain.Repository, error) {
	var db *sql.DB
	var err error

	switch cfg.Driver {
	case "sqlite":
		db, err = openSQLite(cfg)
	case "postgres":
		db, err = openPostgres(cfg)
	default:
		return nil, fmt.Errorf("unsupported driver: %s", cfg.Driver)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	repo := &SQLRepository{
		db:     db,
		driver: cfg.Driver,
	}

	// Run migrations
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return repo, nil
}

func (r *SQLRepository) migrate() error {
	for _, schema := range AllSchemas() {
		if _, err := r.db.Exec(schema); err != nil {
			return err
		}
	}
	return nil
}

// SaveMessage stores a message with tenant isolation.
func (r *SQLRepository) SaveMessage(ctx context.Context, tenantID string, msg *domain.Message) error {
	if tenantID == "" {
		return fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	metadata, _ := json.Marshal(msg.Metadata)

	query := `
		INSERT INTO messages (
			id, tenant_id, source, sender, text, received_at, created_at, metadata
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, r.rebind(query),
		msg.ID, tenantID, msg.Source, msg.Sender, msg.Text,
		msg.ReceivedAt, msg.CreatedAt, string(metadata),
	)
	return err
}

// GetMessage retrieves a message by ID with tenant isolation.
func (r *SQLRepository) GetMessage(ctx context.Context, tenantID string, msgID string) (*domain.Message, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	query := `
		SELECT id, tenant_id, source, sender, text, received_at, created_at, metadata
		FROM messages
		WHERE tenant_id = ? AND id = ?
	`

	var msg domain.Message
	var metadata string

	err := r.db.QueryRowContext(ctx, r.rebind(query), tenantID, msgID).Scan(
		&msg.ID, &msg.TenantID, &msg.Source, &msg.Sender, &msg.Text,
		&msg.ReceivedAt, &msg.CreatedAt, &metadata,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if metadata != "" {
		json.Unmarshal([]byte(metadata), &msg.Metadata)
	}

	return &msg, nil
}

// SaveVerdict stores a verdict with tenant isolation.
func (r *SQLRepository) SaveVerdict(ctx context.Context, tenantID string, verdict *domain.Verdict) error {
	if tenantID == "" {
		return fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	reasons, _ := json.Marshal(verdict.Reasons)
	metadata, _ := json.Marshal(verdict.Metadata)

	var paymentDoc string
	if verdict.Payment != nil {
		b, _ := json.Marshal(verdict.Payment)
		paymentDoc = string(b)
	}

	notified := 0
	if verdict.Notified {
		notified = 1
	}

	query := `
		INSERT INTO verdicts (
			id, tenant_id, message_id, sender, timestamp, score, level,
			reasons, primary_url, primary_domain, primary_brand, payment,
			notified, metadata
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, r.rebind(query),
		verdict.ID, tenantID, verdict.MessageID, verdict.Sender,
		verdict.Timestamp, verdict.Score, string(verdict.Level),
		string(reasons), verdict.PrimaryURL, verdict.PrimaryDomain,
		verdict.PrimaryBrand, paymentDoc, notified, string(metadata),
	)
	return err
}

// GetVerdict retrieves a verdict by ID with tenant isolation.
func (r *SQLRepository) GetVerdict(ctx context.Context, tenantID string, verdictID string) (*domain.Verdict, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	query := `
		SELECT id, tenant_id, message_id, sender, timestamp, score, level,
			   reasons, primary_url, primary_domain, primary_brand, payment,
			   notified, metadata
		FROM verdicts
		WHERE tenant_id = ? AND id = ?
	`

	row := r.db.QueryRowContext(ctx, r.rebind(query), tenantID, verdictID)
	verdict, err := scanVerdict(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return verdict, err
}

// ListVerdictsBySender retrieves recent verdicts for one sender, newest
// first, with tenant isolation.
func (r *SQLRepository) ListVerdictsBySender(ctx context.Context, tenantID string, sender string, since time.Time) ([]*domain.Verdict, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	query := `
		SELECT id, tenant_id, message_id, sender, timestamp, score, level,
			   reasons, primary_url, primary_domain, primary_brand, payment,
			   notified, metadata
		FROM verdicts
		WHERE tenant_id = ? AND sender = ? AND timestamp >= ?
		ORDER BY timestamp DESC
	`

	rows, err := r.db.QueryContext(ctx, r.rebind(query), tenantID, sender, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var verdicts []*domain.Verdict
	for rows.Next() {
		verdict, err := scanVerdict(rows.Scan)
		if err != nil {
			return nil, err
		}
		verdicts = append(verdicts, verdict)
	}

	return verdicts, rows.Err()
}

// scanVerdict reads one verdict row through any Scan-shaped function.
func scanVerdict(scan func(dest ...any) error) (*domain.Verdict, error) {
	var verdict domain.Verdict
	var level, reasons, paymentDoc, metadata string
	var notified int

	err := scan(
		&verdict.ID, &verdict.TenantID, &verdict.MessageID, &verdict.Sender,
		&verdict.Timestamp, &verdict.Score, &level,
		&reasons, &verdict.PrimaryURL, &verdict.PrimaryDomain,
		&verdict.PrimaryBrand, &paymentDoc, &notified, &metadata,
	)
	if err != nil {
		return nil, err
	}

	verdict.Level = domain.RiskLevel(level)
	verdict.Notified = notified == 1
	json.Unmarshal([]byte(reasons), &verdict.Reasons)
	json.Unmarshal([]byte(metadata), &verdict.Metadata)
	if paymentDoc != "" {
		var payment domain.PaymentReference
		if json.Unmarshal([]byte(paymentDoc), &payment) == nil {
			verdict.Payment = &payment
		}
	}

	return &verdict, nil
}

// SaveRuleSet installs a new rule-set version with tenant isolation.
// Versions must be strictly increasing; anything else is ErrStaleVersion.
func (r *SQLRepository) SaveRuleSet(ctx context.Context, tenantID string, rs *domain.RuleSet) error {
	if tenantID == "" {
		return fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}
	if rs == nil {
		return fmt.Errorf("%w: rule set is required", ErrInvalidInput)
	}

	current, err := r.GetCurrentRuleSet(ctx, tenantID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	if current != nil && rs.Version <= current.Version {
		return fmt.Errorf("%w: have %d, got %d", ErrStaleVersion, current.Version, rs.Version)
	}

	document, err := json.Marshal(rs)
	if err != nil {
		return fmt.Errorf("failed to encode rule set: %w", err)
	}

	query := `
		INSERT INTO rulesets (tenant_id, version, published_at, document, installed_at)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err = r.db.ExecContext(ctx, r.rebind(query),
		tenantID, rs.Version, rs.PublishedAt, string(document), time.Now().UTC(),
	)
	return err
}

// GetCurrentRuleSet retrieves the highest installed rule-set version.
func (r *SQLRepository) GetCurrentRuleSet(ctx context.Context, tenantID string) (*domain.RuleSet, error) {
	return r.getRuleSetAt(ctx, tenantID, 0)
}

// RollbackRuleSet removes the active version and returns the one below it.
func (r *SQLRepository) RollbackRuleSet(ctx context.Context, tenantID string) (*domain.RuleSet, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	current, err := r.GetCurrentRuleSet(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	previous, err := r.getRuleSetAt(ctx, tenantID, 1)
	if err != nil {
		return nil, err
	}

	query := `DELETE FROM rulesets WHERE tenant_id = ? AND version = ?`
	if _, err := r.db.ExecContext(ctx, r.rebind(query), tenantID, current.Version); err != nil {
		return nil, err
	}

	return previous, nil
}

// getRuleSetAt returns the rule set `offset` versions below the newest.
func (r *SQLRepository) getRuleSetAt(ctx context.Context, tenantID string, offset int) (*domain.RuleSet, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	query := `
		SELECT document FROM rulesets
		WHERE tenant_id = ?
		ORDER BY version DESC
		LIMIT 1 OFFSET ?
	`

	var document string
	err := r.db.QueryRowContext(ctx, r.rebind(query), tenantID, offset).Scan(&document)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return rules.Parse([]byte(document))
}

// Ping checks database connectivity.
func (r *SQLRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close closes the database connection.
func (r *SQLRepository) Close() error {
	return r.db.Close()
}

func (r *SQLRepository) rebind(query string) string {
	if r.driver != "postgres" {
		return query
	}

	// Convert ? to $1, $2, etc.
	var result []byte
	n := 1
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			result = append(result, '$')
			result = append(result, fmt.Sprintf("%d", n)...)
			n++
		} else {
			result = append(result, query[i])
		}
	}
	return string(result)
}
