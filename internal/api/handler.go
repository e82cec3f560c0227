package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/opensource-finance/shrike/internal/domain"
	"github.com/opensource-finance/shrike/internal/intake"
	"github.com/opensource-finance/shrike/internal/repository"
	"github.com/opensource-finance/shrike/internal/rules"
)

// GlobalTenantID is used for rule sets that apply to all tenants.
const GlobalTenantID = "*"

// Handler holds dependencies for API handlers.
type Handler struct {
	repo      domain.Repository
	cache     domain.Cache
	bus       domain.EventBus
	processor *intake.Processor
	handles   *rules.HandleRef
	version   string
}

// NewHandler creates a new API handler.
func NewHandler(repo domain.Repository, cache domain.Cache, bus domain.EventBus, processor *intake.Processor, handles *rules.HandleRef, version string) *Handler {
	return &Handler{
		repo:      repo,
		cache:     cache,
		bus:       bus,
		processor: processor,
		handles:   handles,
		version:   version,
	}
}

// Analyze handles POST /analyze requests: synchronous scoring of one
// message through the full intake pipeline.
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := GetTenantID(ctx)

	var req domain.MessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}

	if req.Sender == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "sender is required",
		})
		return
	}
	if req.Text == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "text is required",
		})
		return
	}

	msg := req.ToMessage()

	verdict, err := h.processor.Process(ctx, tenantID, msg)
	if err != nil {
		slog.Error("message analysis failed",
			"tenant_id", tenantID,
			"error", err,
		)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "analysis failed",
		})
		return
	}

	writeJSON(w, http.StatusOK, verdict.ToResponse())
}

// GetVerdict retrieves a verdict by ID.
func (h *Handler) GetVerdict(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := GetTenantID(ctx)
	verdictID := chi.URLParam(r, "id")

	if verdictID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "verdict id is required",
		})
		return
	}

	if h.repo == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "repository not available",
		})
		return
	}

	verdict, err := h.repo.GetVerdict(ctx, tenantID, verdictID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			slog.Error("failed to get verdict", "id", verdictID, "error", err)
		}
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error": "verdict not found",
		})
		return
	}

	writeJSON(w, http.StatusOK, verdict.ToResponse())
}

// GetMessage retrieves a stored message by ID.
func (h *Handler) GetMessage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := GetTenantID(ctx)
	msgID := chi.URLParam(r, "id")

	if msgID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "message id is required",
		})
		return
	}

	if h.repo == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "repository not available",
		})
		return
	}

	msg, err := h.repo.GetMessage(ctx, tenantID, msgID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			slog.Error("failed to get message", "id", msgID, "error", err)
		}
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error": "message not found",
		})
		return
	}

	writeJSON(w, http.StatusOK, msg)
}

// ListSenderHistory returns recent verdicts for one sender.
func (h *Handler) ListSenderHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := GetTenantID(ctx)
	sender := chi.URLParam(r, "sender")

	if sender == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "sender is required",
		})
		return
	}

	if h.repo == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "repository not available",
		})
		return
	}

	since := time.Now().Add(-30 * 24 * time.Hour)
	verdicts, err := h.repo.ListVerdictsBySender(ctx, tenantID, sender, since)
	if err != nil {
		slog.Error("failed to list verdicts", "sender", sender, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to list verdicts",
		})
		return
	}

	responses := make([]*domain.VerdictResponse, len(verdicts))
	for i, v := range verdicts {
		responses[i] = v.ToResponse()
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"verdicts": responses,
		"count":    len(responses),
	})
}

// GetRuleSet returns the rule set currently bound to the engine.
func (h *Handler) GetRuleSet(w http.ResponseWriter, r *http.Request) {
	handle := h.handles.Load()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ruleSet": handle.Engine.RuleSet(),
		"version": handle.Version,
	})
}

// PutRuleSet installs a new rule set version. The candidate must parse,
// validate, and carry a version strictly above the installed one. On
// success it is persisted, cached, and hot-swapped into the engine.
func (h *Handler) PutRuleSet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "failed to read request body",
		})
		return
	}

	rs, err := rules.Parse(body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid rule set: " + err.Error(),
		})
		return
	}

	current := h.handles.Load()
	if rs.Version <= current.Version {
		writeJSON(w, http.StatusConflict, map[string]interface{}{
			"error":            "rule set version must be above the installed version",
			"installedVersion": current.Version,
		})
		return
	}

	if h.repo != nil {
		if err := h.repo.SaveRuleSet(ctx, GlobalTenantID, rs); err != nil {
			if errors.Is(err, repository.ErrStaleVersion) {
				writeJSON(w, http.StatusConflict, map[string]string{
					"error": "rule set version must be above the installed version",
				})
				return
			}
			slog.Error("failed to save rule set", "version", rs.Version, "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{
				"error": "failed to save rule set",
			})
			return
		}
	}

	if err := h.handles.Swap(rs); err != nil {
		slog.Error("failed to swap rule set", "version", rs.Version, "error", err)
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "rule set rejected: " + err.Error(),
		})
		return
	}

	if h.cache != nil {
		if err := h.cache.SetRuleSet(ctx, GlobalTenantID, rs, 0); err != nil {
			slog.Warn("failed to cache rule set", "version", rs.Version, "error", err)
		}
	}

	h.publishRuleSetUpdate(ctx, rs.Version, "installed")

	slog.Info("rule set installed", "version", rs.Version)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "rule set installed",
		"version": rs.Version,
	})
}

// publishRuleSetUpdate emits a rule-set lifecycle event so workers and
// sibling instances learn the active version changed. Publish failures
// are logged, not surfaced: the swap already happened.
func (h *Handler) publishRuleSetUpdate(ctx context.Context, version int, action string) {
	if h.bus == nil {
		return
	}

	payload, err := json.Marshal(map[string]interface{}{
		"version": version,
		"action":  action,
	})
	if err != nil {
		return
	}

	if err := h.bus.Publish(ctx, GlobalTenantID, domain.TopicRuleSetUpdated, payload); err != nil {
		slog.Warn("failed to publish rule set event",
			"version", version,
			"action", action,
			"error", err,
		)
	}
}

// ReloadRuleSet re-reads the persisted rule set and swaps it into the
// engine. This enables recovery after repository-level edits.
func (h *Handler) ReloadRuleSet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.repo == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "repository not available",
		})
		return
	}

	rs, err := h.repo.GetCurrentRuleSet(ctx, GlobalTenantID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{
				"error": "no persisted rule set",
			})
			return
		}
		slog.Error("failed to load rule set", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to load rule set",
		})
		return
	}

	if err := h.handles.Swap(rs); err != nil {
		slog.Error("failed to swap rule set", "version", rs.Version, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "rule set rejected: " + err.Error(),
		})
		return
	}

	h.publishRuleSetUpdate(ctx, rs.Version, "reloaded")

	slog.Info("rule set reloaded", "version", rs.Version)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "rule set reloaded",
		"version": rs.Version,
	})
}

// RollbackRuleSet reverts to the previous persisted rule set version.
func (h *Handler) RollbackRuleSet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.repo == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "repository not available",
		})
		return
	}

	rs, err := h.repo.RollbackRuleSet(ctx, GlobalTenantID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeJSON(w, http.StatusConflict, map[string]string{
				"error": "no previous rule set version to roll back to",
			})
			return
		}
		slog.Error("failed to roll back rule set", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to roll back rule set",
		})
		return
	}

	if err := h.handles.Swap(rs); err != nil {
		slog.Error("failed to swap rolled-back rule set", "version", rs.Version, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "rolled-back rule set rejected: " + err.Error(),
		})
		return
	}

	if h.cache != nil {
		if err := h.cache.SetRuleSet(ctx, GlobalTenantID, rs, 0); err != nil {
			slog.Warn("failed to cache rolled-back rule set", "version", rs.Version, "error", err)
		}
	}

	h.publishRuleSetUpdate(ctx, rs.Version, "rolledBack")

	slog.Info("rule set rolled back", "version", rs.Version)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "rule set rolled back",
		"version": rs.Version,
	})
}

// Health returns server health status.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := "healthy"

	// Check repository health
	if h.repo != nil {
		if err := h.repo.Ping(r.Context()); err != nil {
			status = "degraded"
		}
	}

	// Check cache health
	if h.cache != nil {
		if err := h.cache.Ping(r.Context()); err != nil {
			status = "degraded"
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":  status,
		"version": h.version,
	})
}

// Ready returns whether the server is ready to accept traffic.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"ready": "true",
	})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
