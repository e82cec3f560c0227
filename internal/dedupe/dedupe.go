// Package dedupe suppresses repeated verdict notifications within a time window.
package dedupe

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/opensource-finance/shrike/internal/domain"
)

// maxTextKeyLen bounds the normalized-text portion of the event key so
// cache keys stay small for long messages.
const maxTextKeyLen = 180

// Service decides whether a verdict for a repeated message should be
// notified again. Repeats of the same event key inside the window are
// suppressed.
type Service struct {
	cache  domain.Cache
	window time.Duration
}

// NewService creates a new dedupe service. A non-positive window
// disables suppression entirely.
func NewService(cache domain.Cache, window time.Duration) *Service {
	return &Service{
		cache:  cache,
		window: window,
	}
}

// ShouldNotify reports whether this verdict is the first occurrence of
// its event key within the window. Cache failures fail open: a dedupe
// outage must never swallow alerts.
func (s *Service) ShouldNotify(ctx context.Context, tenantID string, verdict *domain.Verdict, normalizedText string) (bool, error) {
	if tenantID == "" {
		return false, fmt.Errorf("tenantID is required")
	}
	if s.window <= 0 || s.cache == nil {
		return true, nil
	}

	key := EventKey(verdict, normalizedText)
	count, err := s.cache.IncrementCounter(ctx, tenantID, key, s.window)
	if err != nil {
		return true, fmt.Errorf("failed to increment dedupe counter: %w", err)
	}

	return count <= 1, nil
}

// EventKey builds the suppression key for a verdict: risk level plus a
// prefix of the normalized text plus the primary URL and domain. Two
// messages that differ only in whitespace or casing collapse to the
// same key.
func EventKey(verdict *domain.Verdict, normalizedText string) string {
	text := domain.TruncateText(normalizedText, maxTextKeyLen)

	var b strings.Builder
	b.WriteString("dedupe:")
	b.WriteString(string(verdict.Level))
	b.WriteString("|")
	b.WriteString(text)
	b.WriteString("|")
	b.WriteString(verdict.PrimaryURL)
	b.WriteString("|")
	b.WriteString(verdict.PrimaryDomain)
	return b.String()
}
