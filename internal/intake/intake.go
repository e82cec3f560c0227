// Package intake runs the message analysis pipeline: normalization,
// extraction, scoring, dedupe, persistence, and event publishing.
package intake

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/opensource-finance/shrike/internal/dedupe"
	"github.com/opensource-finance/shrike/internal/domain"
	"github.com/opensource-finance/shrike/internal/extract"
	"github.com/opensource-finance/shrike/internal/payment"
	"github.com/opensource-finance/shrike/internal/rules"
	"github.com/opensource-finance/shrike/internal/textnorm"
)

// Processor executes the full scoring pipeline for one message.
type Processor struct {
	handles *rules.HandleRef
	repo    domain.Repository
	dedupe  *dedupe.Service
	bus     domain.EventBus

	// NotifyMinLevel is the lowest level that produces an alert event.
	NotifyMinLevel domain.RiskLevel
}

// NewProcessor creates an intake processor. repo, dedupe, and bus may be
// nil in library use; the pipeline then skips persistence, suppression,
// or publishing respectively.
func NewProcessor(handles *rules.HandleRef, repo domain.Repository, dedupeSvc *dedupe.Service, bus domain.EventBus) *Processor {
	return &Processor{
		handles:        handles,
		repo:           repo,
		dedupe:         dedupeSvc,
		bus:            bus,
		NotifyMinLevel: domain.LevelMedium,
	}
}

// Process scores one message and produces its verdict. The message text
// is expected to be pre-truncated by the transport layer (ToMessage);
// Process re-applies the cap as a safety net for bus-delivered messages.
func (p *Processor) Process(ctx context.Context, tenantID string, msg *domain.Message) (*domain.Verdict, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("tenantID is required")
	}
	if msg == nil {
		return nil, fmt.Errorf("message is required")
	}

	start := time.Now()

	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	msg.TenantID = tenantID
	msg.Text = domain.TruncateText(msg.Text, domain.MaxMessageLength)

	normalized := textnorm.Normalize(msg.Text)
	urls := extract.URLs(msg.Text)
	payRef := payment.Detect(normalized)

	handle := p.handles.Load()
	analyzeStart := time.Now()
	result := handle.Engine.Analyze(msg.Text, normalized, urls, payRef)
	analyzeMs := time.Since(analyzeStart).Milliseconds()

	verdict := &domain.Verdict{
		ID:        uuid.New().String(),
		TenantID:  tenantID,
		MessageID: msg.ID,
		Sender:    msg.Sender,
		Timestamp: time.Now().UTC(),

		Score:         result.Score,
		Level:         result.Level,
		Reasons:       result.Reasons,
		PrimaryURL:    result.PrimaryURL,
		PrimaryDomain: result.PrimaryDomain,
		PrimaryBrand:  result.PrimaryBrand,
		Payment:       payRef,

		Metadata: domain.VerdictMetadata{
			TraceID:        traceIDFromContext(ctx),
			AnalyzeMs:      analyzeMs,
			RuleSetVersion: handle.Version,
			EngineVersion:  rules.EngineVersion,
		},
	}

	verdict.Notified = p.shouldNotify(ctx, tenantID, verdict, normalized)

	if p.repo != nil {
		if err := p.repo.SaveMessage(ctx, tenantID, msg); err != nil {
			return nil, fmt.Errorf("failed to save message: %w", err)
		}
		if err := p.repo.SaveVerdict(ctx, tenantID, verdict); err != nil {
			return nil, fmt.Errorf("failed to save verdict: %w", err)
		}
	}

	verdict.Metadata.TotalMs = time.Since(start).Milliseconds()

	p.publish(ctx, tenantID, verdict)

	return verdict, nil
}

// shouldNotify applies the severity threshold, then the dedupe window.
func (p *Processor) shouldNotify(ctx context.Context, tenantID string, verdict *domain.Verdict, normalized string) bool {
	if !verdict.Level.AtLeast(p.NotifyMinLevel) {
		return false
	}
	if p.dedupe == nil {
		return true
	}

	notify, err := p.dedupe.ShouldNotify(ctx, tenantID, verdict, normalized)
	if err != nil {
		// Fail open: a dedupe outage must not swallow alerts.
		slog.Warn("dedupe check failed, notifying anyway",
			"tenant_id", tenantID,
			"verdict_id", verdict.ID,
			"error", err,
		)
		return true
	}
	return notify
}

// publish emits the verdict event, plus an alert event when notified.
// Publish failures are logged, not returned: the verdict already exists.
func (p *Processor) publish(ctx context.Context, tenantID string, verdict *domain.Verdict) {
	if p.bus == nil {
		return
	}

	payload, err := json.Marshal(verdict)
	if err != nil {
		slog.Error("failed to marshal verdict event",
			"verdict_id", verdict.ID,
			"error", err,
		)
		return
	}

	if err := p.bus.Publish(ctx, tenantID, domain.TopicVerdict, payload); err != nil {
		slog.Warn("failed to publish verdict event",
			"verdict_id", verdict.ID,
			"error", err,
		)
	}

	if verdict.Notified {
		if err := p.bus.Publish(ctx, tenantID, domain.TopicAlert, payload); err != nil {
			slog.Warn("failed to publish alert event",
				"verdict_id", verdict.ID,
				"error", err,
			)
		}
	}
}

// traceIDFromContext extracts the OpenTelemetry trace ID, if a span is
// recording.
func traceIDFromContext(ctx context.Context) string {
	span := trace.SpanFromContext(ctx)
	if !span.SpanContext().HasTraceID() {
		return ""
	}
	return span.SpanContext().TraceID().String()
}
