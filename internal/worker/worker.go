// Package worker provides async message processing for the Pro tier.
package worker

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/opensource-finance/shrike/internal/domain"
	"github.com/opensource-finance/shrike/internal/intake"
)

// Worker consumes incoming-message events from the EventBus and runs the
// intake pipeline for each one.
type Worker struct {
	bus       domain.EventBus
	processor *intake.Processor

	subscriptions []domain.Subscription
	wg            sync.WaitGroup
	ctx           context.Context
	cancel        context.CancelFunc
}

// Config holds worker configuration.
type Config struct {
	// TenantIDs is the list of tenants to process (empty = all via wildcard if supported)
	TenantIDs []string
}

// NewWorker creates a new async worker.
func NewWorker(bus domain.EventBus, processor *intake.Processor) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		bus:       bus,
		processor: processor,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start begins processing messages for the given tenants.
func (w *Worker) Start(cfg Config) error {
	if len(cfg.TenantIDs) == 0 {
		return w.startGlobalWorker()
	}

	for _, tenantID := range cfg.TenantIDs {
		if err := w.startTenantWorker(tenantID); err != nil {
			slog.Error("failed to start worker for tenant",
				"tenant_id", tenantID,
				"error", err,
			)
			continue
		}
	}

	slog.Info("workers started",
		"tenant_count", len(cfg.TenantIDs),
	)

	return nil
}

// startGlobalWorker starts a worker that processes all tenants (for testing/dev).
func (w *Worker) startGlobalWorker() error {
	// Subscribe using a special "global" tenant ID
	// In production, you'd want to subscribe with wildcards or JetStream
	sub, err := w.bus.Subscribe(w.ctx, "_global", domain.TopicMessageReceived, w.handleEvent)
	if err != nil {
		return err
	}
	w.subscriptions = append(w.subscriptions, sub)

	slog.Info("global worker started")
	return nil
}

// startTenantWorker starts workers for a specific tenant.
func (w *Worker) startTenantWorker(tenantID string) error {
	sub, err := w.bus.Subscribe(w.ctx, tenantID, domain.TopicMessageReceived, func(ctx context.Context, evt *domain.Event) error {
		return w.processEvent(ctx, tenantID, evt)
	})
	if err != nil {
		return err
	}
	w.subscriptions = append(w.subscriptions, sub)

	slog.Info("tenant worker started",
		"tenant_id", tenantID,
		"topic", domain.TopicMessageReceived,
	)

	return nil
}

// handleEvent handles events from the global subscription.
func (w *Worker) handleEvent(ctx context.Context, evt *domain.Event) error {
	return w.processEvent(ctx, evt.TenantID, evt)
}

// IncomingMessage is the event payload for bus-delivered messages.
type IncomingMessage struct {
	MessageID string                 `json:"messageId,omitempty"`
	TenantID  string                 `json:"tenantId,omitempty"`
	Sender    string                 `json:"sender"`
	Text      string                 `json:"text"`
	Source    string                 `json:"source,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// processEvent scores one bus-delivered message through the pipeline.
func (w *Worker) processEvent(ctx context.Context, tenantID string, evt *domain.Event) error {
	start := time.Now()

	var incoming IncomingMessage
	if err := json.Unmarshal(evt.Payload, &incoming); err != nil {
		slog.Error("failed to parse incoming message event",
			"event_id", evt.ID,
			"error", err,
		)
		return err
	}

	// Use payload tenant if provided
	if incoming.TenantID != "" {
		tenantID = incoming.TenantID
	}

	source := incoming.Source
	if source == "" {
		source = "bus"
	}

	now := time.Now().UTC()
	msg := &domain.Message{
		ID:         incoming.MessageID,
		TenantID:   tenantID,
		Source:     source,
		Sender:     incoming.Sender,
		Text:       incoming.Text,
		ReceivedAt: now,
		CreatedAt:  now,
		Metadata:   incoming.Metadata,
	}

	verdict, err := w.processor.Process(ctx, tenantID, msg)
	if err != nil {
		slog.Error("message processing failed",
			"event_id", evt.ID,
			"tenant_id", tenantID,
			"error", err,
		)
		return err
	}

	slog.Info("message processed",
		"message_id", msg.ID,
		"tenant_id", tenantID,
		"level", verdict.Level,
		"score", verdict.Score,
		"notified", verdict.Notified,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return nil
}

// Stop gracefully stops all workers.
func (w *Worker) Stop() error {
	w.cancel()

	// Unsubscribe all
	for _, sub := range w.subscriptions {
		if err := sub.Unsubscribe(); err != nil {
			slog.Error("failed to unsubscribe",
				"topic", sub.Topic(),
				"error", err,
			)
		}
	}
	w.subscriptions = nil

	w.wg.Wait()

	slog.Info("workers stopped")
	return nil
}

// Stats returns worker statistics.
type Stats struct {
	SubscriptionCount int      `json:"subscriptionCount"`
	Topics            []string `json:"topics"`
}

// GetStats returns current worker statistics.
func (w *Worker) GetStats() Stats {
	topics := make([]string, len(w.subscriptions))
	for i, sub := range w.subscriptions {
		topics[i] = sub.Topic()
	}
	return Stats{
		SubscriptionCount: len(w.subscriptions),
		Topics:            topics,
	}
}
