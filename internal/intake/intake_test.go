package intake

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/opensource-finance/shrike/internal/bus"
	"github.com/opensource-finance/shrike/internal/cache"
	"github.com/opensource-finance/shrike/internal/dedupe"
	"github.com/opensource-finance/shrike/internal/domain"
	"github.com/opensource-finance/shrike/internal/repository"
	"github.com/opensource-finance/shrike/internal/rules"
)

func newTestHandles(t *testing.T) *rules.HandleRef {
	t.Helper()
	handles, err := rules.NewHandleRef(domain.DefaultRuleSet())
	if err != nil {
		t.Fatalf("failed to build rule handle: %v", err)
	}
	return handles
}

func newTestRepo(t *testing.T) domain.Repository {
	t.Helper()
	tmpFile, err := os.CreateTemp("", "intake-test-*.db")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	tmpPath := tmpFile.Name()
	tmpFile.Close()
	t.Cleanup(func() { os.Remove(tmpPath) })

	repo, err := repository.New(domain.RepositoryConfig{
		Driver:     "sqlite",
		SQLitePath: tmpPath,
	})
	if err != nil {
		t.Fatalf("failed to create repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestProcessorPipeline(t *testing.T) {
	handles := newTestHandles(t)
	repo := newTestRepo(t)

	lruCache := cache.NewLRUCache(100)
	defer lruCache.Close()
	dedupeSvc := dedupe.NewService(lruCache, 15*time.Second)

	channelBus := bus.NewChannelBus(100)
	defer channelBus.Close()

	proc := NewProcessor(handles, repo, dedupeSvc, channelBus)

	ctx := context.Background()
	tenantID := "tenant-001"

	t.Run("BenignMessage", func(t *testing.T) {
		msg := &domain.Message{
			Sender: "+351910000001",
			Text:   "ok, see you at eight",
		}

		verdict, err := proc.Process(ctx, tenantID, msg)
		if err != nil {
			t.Fatalf("process failed: %v", err)
		}

		if verdict.Score != 0 {
			t.Errorf("expected score 0, got %d", verdict.Score)
		}
		if verdict.Level != domain.LevelLow {
			t.Errorf("expected LOW, got %s", verdict.Level)
		}
		if len(verdict.Reasons) != 0 {
			t.Errorf("expected no reasons, got %v", verdict.Reasons)
		}
		if verdict.Notified {
			t.Error("LOW verdict should not notify")
		}
		if msg.ID == "" {
			t.Error("message should get an ID")
		}
	})

	t.Run("PhishingMessageNotifiesAndPersists", func(t *testing.T) {
		msg := &domain.Message{
			Sender: "+351910000002",
			Text:   "URGENTE: a sua conta sera bloqueada, confirme os seus dados em https://bit.ly/abc123",
		}

		verdict, err := proc.Process(ctx, tenantID, msg)
		if err != nil {
			t.Fatalf("process failed: %v", err)
		}

		if verdict.Level != domain.LevelHigh {
			t.Errorf("expected HIGH, got %s (score %d)", verdict.Level, verdict.Score)
		}
		if !verdict.Notified {
			t.Error("HIGH verdict should notify")
		}
		if verdict.PrimaryDomain != "bit.ly" {
			t.Errorf("expected primary domain bit.ly, got %q", verdict.PrimaryDomain)
		}
		if verdict.Metadata.RuleSetVersion != handles.Load().Version {
			t.Errorf("verdict should carry rule set version %d, got %d",
				handles.Load().Version, verdict.Metadata.RuleSetVersion)
		}
		if verdict.Metadata.EngineVersion == "" {
			t.Error("verdict should carry engine version")
		}

		// Round-trip through the repository.
		stored, err := repo.GetVerdict(ctx, tenantID, verdict.ID)
		if err != nil {
			t.Fatalf("failed to load verdict: %v", err)
		}
		if stored.Score != verdict.Score || stored.Level != verdict.Level {
			t.Errorf("stored verdict mismatch: %d/%s vs %d/%s",
				stored.Score, stored.Level, verdict.Score, verdict.Level)
		}

		storedMsg, err := repo.GetMessage(ctx, tenantID, msg.ID)
		if err != nil {
			t.Fatalf("failed to load message: %v", err)
		}
		if storedMsg.Text != msg.Text {
			t.Error("stored message text mismatch")
		}
	})

	t.Run("RepeatSuppressedByDedupe", func(t *testing.T) {
		text := "ALERTA: pagamento pendente, pague ja em https://tinyurl.com/xyz"

		first, err := proc.Process(ctx, tenantID, &domain.Message{Sender: "+351910000003", Text: text})
		if err != nil {
			t.Fatalf("process failed: %v", err)
		}
		repeat, err := proc.Process(ctx, tenantID, &domain.Message{Sender: "+351910000003", Text: text})
		if err != nil {
			t.Fatalf("process failed: %v", err)
		}

		if !first.Notified {
			t.Error("first occurrence should notify")
		}
		if repeat.Notified {
			t.Error("repeat within the window should be suppressed")
		}
	})

	t.Run("TruncatesOversizedText", func(t *testing.T) {
		msg := &domain.Message{
			Sender: "+351910000004",
			Text:   strings.Repeat("x", domain.MaxMessageLength+500),
		}

		if _, err := proc.Process(ctx, tenantID, msg); err != nil {
			t.Fatalf("process failed: %v", err)
		}
		if len(msg.Text) != domain.MaxMessageLength {
			t.Errorf("expected text truncated to %d, got %d", domain.MaxMessageLength, len(msg.Text))
		}
	})

	t.Run("TruncationKeepsRuneBoundary", func(t *testing.T) {
		msg := &domain.Message{
			Sender: "+351910000005",
			Text:   strings.Repeat("a", domain.MaxMessageLength-1) + "ção",
		}

		if _, err := proc.Process(ctx, tenantID, msg); err != nil {
			t.Fatalf("process failed: %v", err)
		}
		if !utf8.ValidString(msg.Text) {
			t.Error("truncated text is not valid UTF-8")
		}
		if n := utf8.RuneCountInString(msg.Text); n != domain.MaxMessageLength {
			t.Errorf("expected %d characters, got %d", domain.MaxMessageLength, n)
		}
	})

	t.Run("RequiresTenantID", func(t *testing.T) {
		_, err := proc.Process(ctx, "", &domain.Message{Text: "hi"})
		if err == nil {
			t.Error("expected error for empty tenantID")
		}
	})

	t.Run("RequiresMessage", func(t *testing.T) {
		_, err := proc.Process(ctx, tenantID, nil)
		if err == nil {
			t.Error("expected error for nil message")
		}
	})
}

func TestProcessorAlertEvents(t *testing.T) {
	handles := newTestHandles(t)

	channelBus := bus.NewChannelBus(100)
	defer channelBus.Close()

	proc := NewProcessor(handles, nil, nil, channelBus)

	ctx := context.Background()
	tenantID := "tenant-001"

	alerts := make(chan *domain.Event, 10)
	_, err := channelBus.Subscribe(ctx, tenantID, domain.TopicAlert, func(ctx context.Context, evt *domain.Event) error {
		alerts <- evt
		return nil
	})
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}
	time.Sleep(10 * time.Millisecond)

	_, err = proc.Process(ctx, tenantID, &domain.Message{
		Sender: "+351910000005",
		Text:   "urgente: confirme a sua palavra-passe em https://bit.ly/zz",
	})
	if err != nil {
		t.Fatalf("process failed: %v", err)
	}

	select {
	case evt := <-alerts:
		if evt.Topic != domain.TopicAlert {
			t.Errorf("expected alert topic, got %s", evt.Topic)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for alert event")
	}
}

func TestProcessorLibraryMode(t *testing.T) {
	// No repo, dedupe, or bus: pure scoring.
	proc := NewProcessor(newTestHandles(t), nil, nil, nil)

	verdict, err := proc.Process(context.Background(), "tenant-001", &domain.Message{
		Sender: "CTT",
		Text:   "encomenda retida, pague a taxa em https://ctt-entregas.top/pay",
	})
	if err != nil {
		t.Fatalf("process failed: %v", err)
	}
	if verdict.Level == domain.LevelLow {
		t.Errorf("expected elevated level, got %s (score %d)", verdict.Level, verdict.Score)
	}
}
