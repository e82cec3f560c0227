package repository

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/opensource-finance/shrike/internal/domain"
)

func TestSQLiteRepository(t *testing.T) {
	// Create temp database file
	tmpFile, err := os.CreateTemp("", "shrike-test-*.db")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	tmpPath := tmpFile.Name()
	tmpFile.Close()
	defer os.Remove(tmpPath)

	cfg := domain.RepositoryConfig{
		Driver:     "sqlite",
		SQLitePath: tmpPath,
	}

	repo, err := New(cfg)
	if err != nil {
		t.Fatalf("failed to create repository: %v", err)
	}
	defer repo.Close()

	ctx := context.Background()
	tenantID := "tenant-001"

	t.Run("Ping", func(t *testing.T) {
		if err := repo.Ping(ctx); err != nil {
			t.Errorf("Ping failed: %v", err)
		}
	})

	t.Run("SaveAndGetMessage", func(t *testing.T) {
		msg := &domain.Message{
			ID:         "msg-001",
			Source:     "api",
			Sender:     "+351912345678",
			Text:       "URGENTE: confirme os seus dados em https://bit.ly/x",
			ReceivedAt: time.Now().UTC(),
			CreatedAt:  time.Now().UTC(),
			Metadata:   map[string]any{"channel": "sms"},
		}

		if err := repo.SaveMessage(ctx, tenantID, msg); err != nil {
			t.Fatalf("SaveMessage failed: %v", err)
		}

		retrieved, err := repo.GetMessage(ctx, tenantID, msg.ID)
		if err != nil {
			t.Fatalf("GetMessage failed: %v", err)
		}

		if retrieved.ID != msg.ID {
			t.Errorf("expected ID %s, got %s", msg.ID, retrieved.ID)
		}
		if retrieved.Text != msg.Text {
			t.Errorf("expected Text %q, got %q", msg.Text, retrieved.Text)
		}
		if retrieved.TenantID != tenantID {
			t.Errorf("expected TenantID %s, got %s", tenantID, retrieved.TenantID)
		}
		if retrieved.Metadata["channel"] != "sms" {
			t.Errorf("metadata lost: %v", retrieved.Metadata)
		}
	})

	t.Run("SaveAndGetVerdict", func(t *testing.T) {
		verdict := &domain.Verdict{
			ID:            "verdict-001",
			MessageID:     "msg-001",
			Sender:        "+351912345678",
			Timestamp:     time.Now().UTC(),
			Score:         75,
			Level:         domain.LevelHigh,
			Reasons:       []string{"keyword_urgency", "url_shortener"},
			PrimaryURL:    "https://bit.ly/x",
			PrimaryDomain: "bit.ly",
			Payment: &domain.PaymentReference{
				EntityCode:        "10611",
				ReferenceCode:     "123456789",
				EntityDetected:    true,
				ReferenceDetected: true,
			},
			Notified: true,
			Metadata: domain.VerdictMetadata{TraceID: "trace-001", RuleSetVersion: 1},
		}

		if err := repo.SaveVerdict(ctx, tenantID, verdict); err != nil {
			t.Fatalf("SaveVerdict failed: %v", err)
		}

		retrieved, err := repo.GetVerdict(ctx, tenantID, verdict.ID)
		if err != nil {
			t.Fatalf("GetVerdict failed: %v", err)
		}

		if retrieved.Score != verdict.Score {
			t.Errorf("expected Score %d, got %d", verdict.Score, retrieved.Score)
		}
		if retrieved.Level != verdict.Level {
			t.Errorf("expected Level %s, got %s", verdict.Level, retrieved.Level)
		}
		if len(retrieved.Reasons) != 2 || retrieved.Reasons[0] != "keyword_urgency" {
			t.Errorf("reasons lost: %v", retrieved.Reasons)
		}
		if !retrieved.Notified {
			t.Error("notified flag lost")
		}
		if retrieved.Payment == nil || retrieved.Payment.EntityCode != "10611" {
			t.Errorf("payment reference lost: %+v", retrieved.Payment)
		}
		if retrieved.Metadata.TraceID != "trace-001" {
			t.Errorf("metadata lost: %+v", retrieved.Metadata)
		}
	})

	t.Run("VerdictWithoutPayment", func(t *testing.T) {
		verdict := &domain.Verdict{
			ID:        "verdict-002",
			MessageID: "msg-001",
			Sender:    "+351912345678",
			Timestamp: time.Now().UTC(),
			Score:     0,
			Level:     domain.LevelLow,
		}

		if err := repo.SaveVerdict(ctx, tenantID, verdict); err != nil {
			t.Fatalf("SaveVerdict failed: %v", err)
		}

		retrieved, err := repo.GetVerdict(ctx, tenantID, verdict.ID)
		if err != nil {
			t.Fatalf("GetVerdict failed: %v", err)
		}
		if retrieved.Payment != nil {
			t.Errorf("expected nil payment, got %+v", retrieved.Payment)
		}
	})

	t.Run("TenantIsolation", func(t *testing.T) {
		otherTenant := "tenant-002"

		if _, err := repo.GetMessage(ctx, otherTenant, "msg-001"); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound for different tenant, got: %v", err)
		}
		if _, err := repo.GetVerdict(ctx, otherTenant, "verdict-001"); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound for different tenant, got: %v", err)
		}
	})

	t.Run("RequiresTenantID", func(t *testing.T) {
		if err := repo.SaveMessage(ctx, "", &domain.Message{ID: "msg-test"}); err == nil {
			t.Error("expected error for empty tenantID")
		}
		if _, err := repo.GetMessage(ctx, "", "msg-001"); err == nil {
			t.Error("expected error for empty tenantID")
		}
	})

	t.Run("ListVerdictsBySender", func(t *testing.T) {
		verdict := &domain.Verdict{
			ID:        "verdict-003",
			MessageID: "msg-002",
			Sender:    "+351912345678",
			Timestamp: time.Now().UTC(),
			Score:     40,
			Level:     domain.LevelMedium,
		}
		if err := repo.SaveVerdict(ctx, tenantID, verdict); err != nil {
			t.Fatalf("SaveVerdict failed: %v", err)
		}

		since := time.Now().Add(-1 * time.Hour)
		verdicts, err := repo.ListVerdictsBySender(ctx, tenantID, "+351912345678", since)
		if err != nil {
			t.Fatalf("ListVerdictsBySender failed: %v", err)
		}

		if len(verdicts) != 3 {
			t.Errorf("expected 3 verdicts, got %d", len(verdicts))
		}

		verdicts, err = repo.ListVerdictsBySender(ctx, tenantID, "+351999999999", since)
		if err != nil {
			t.Fatalf("ListVerdictsBySender failed: %v", err)
		}
		if len(verdicts) != 0 {
			t.Errorf("expected no verdicts for unknown sender, got %d", len(verdicts))
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		if _, err := repo.GetMessage(ctx, tenantID, "nonexistent"); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got: %v", err)
		}
		if _, err := repo.GetVerdict(ctx, tenantID, "nonexistent"); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got: %v", err)
		}
	})
}

func TestRuleSetVersioning(t *testing.T) {
	tmpFile, err := os.CreateTemp("", "shrike-ruleset-test-*.db")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	tmpPath := tmpFile.Name()
	tmpFile.Close()
	defer os.Remove(tmpPath)

	repo, err := New(domain.RepositoryConfig{Driver: "sqlite", SQLitePath: tmpPath})
	if err != nil {
		t.Fatalf("failed to create repository: %v", err)
	}
	defer repo.Close()

	ctx := context.Background()
	tenantID := "*"

	t.Run("EmptyStoreHasNoCurrent", func(t *testing.T) {
		if _, err := repo.GetCurrentRuleSet(ctx, tenantID); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got: %v", err)
		}
	})

	t.Run("InstallAndFetch", func(t *testing.T) {
		rs := domain.DefaultRuleSet()
		if err := repo.SaveRuleSet(ctx, tenantID, rs); err != nil {
			t.Fatalf("SaveRuleSet failed: %v", err)
		}

		current, err := repo.GetCurrentRuleSet(ctx, tenantID)
		if err != nil {
			t.Fatalf("GetCurrentRuleSet failed: %v", err)
		}
		if current.Version != rs.Version {
			t.Errorf("expected version %d, got %d", rs.Version, current.Version)
		}
	})

	t.Run("NewerVersionBecomesCurrent", func(t *testing.T) {
		rs := domain.DefaultRuleSet()
		rs.Version = 2
		rs.KeywordWeights.Urgency = 12

		if err := repo.SaveRuleSet(ctx, tenantID, rs); err != nil {
			t.Fatalf("SaveRuleSet failed: %v", err)
		}

		current, err := repo.GetCurrentRuleSet(ctx, tenantID)
		if err != nil {
			t.Fatalf("GetCurrentRuleSet failed: %v", err)
		}
		if current.Version != 2 {
			t.Errorf("expected version 2, got %d", current.Version)
		}
		if current.KeywordWeights.Urgency != 12 {
			t.Errorf("document not round-tripped: %+v", current.KeywordWeights)
		}
	})

	t.Run("StaleVersionRejected", func(t *testing.T) {
		rs := domain.DefaultRuleSet()
		rs.Version = 2 // same as installed

		if err := repo.SaveRuleSet(ctx, tenantID, rs); !errors.Is(err, ErrStaleVersion) {
			t.Errorf("expected ErrStaleVersion, got: %v", err)
		}

		rs.Version = 1 // older than installed
		if err := repo.SaveRuleSet(ctx, tenantID, rs); !errors.Is(err, ErrStaleVersion) {
			t.Errorf("expected ErrStaleVersion, got: %v", err)
		}
	})

	t.Run("RollbackRestoresPrevious", func(t *testing.T) {
		previous, err := repo.RollbackRuleSet(ctx, tenantID)
		if err != nil {
			t.Fatalf("RollbackRuleSet failed: %v", err)
		}
		if previous.Version != 1 {
			t.Errorf("expected rollback to version 1, got %d", previous.Version)
		}

		current, err := repo.GetCurrentRuleSet(ctx, tenantID)
		if err != nil {
			t.Fatalf("GetCurrentRuleSet failed: %v", err)
		}
		if current.Version != 1 {
			t.Errorf("expected current version 1 after rollback, got %d", current.Version)
		}
	})

	t.Run("RollbackWithoutPreviousFails", func(t *testing.T) {
		if _, err := repo.RollbackRuleSet(ctx, tenantID); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound when no previous version exists, got: %v", err)
		}
	})

	t.Run("TenantScopedRuleSets", func(t *testing.T) {
		rs := domain.DefaultRuleSet()
		rs.Version = 5
		if err := repo.SaveRuleSet(ctx, "tenant-a", rs); err != nil {
			t.Fatalf("SaveRuleSet failed: %v", err)
		}

		current, err := repo.GetCurrentRuleSet(ctx, tenantID)
		if err != nil {
			t.Fatalf("GetCurrentRuleSet failed: %v", err)
		}
		if current.Version != 1 {
			t.Errorf("tenant-a install leaked into %q scope: version %d", tenantID, current.Version)
		}
	})
}

func TestUnsupportedDriver(t *testing.T) {
	cfg := domain.RepositoryConfig{
		Driver: "mysql",
	}

	_, err := New(cfg)
	if err == nil {
		t.Error("expected error for unsupported driver")
	}
}

func TestRebind(t *testing.T) {
	repo := &SQLRepository{driver: "postgres"}

	tests := []struct {
		input    string
		expected string
	}{
		{"SELECT * FROM t WHERE id = ?", "SELECT * FROM t WHERE id = $1"},
		{"INSERT INTO t (a, b) VALUES (?, ?)", "INSERT INTO t (a, b) VALUES ($1, $2)"},
		{"SELECT * FROM t", "SELECT * FROM t"},
	}

	for _, tt := range tests {
		result := repo.rebind(tt.input)
		if result != tt.expected {
			t.Errorf("rebind(%q) = %q, want %q", tt.input, result, tt.expected)
		}
	}
}
