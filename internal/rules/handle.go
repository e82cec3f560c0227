package rules

import (
	"sync/atomic"

	"github.com/opensource-finance/shrike/internal/domain"
)

// Handle pairs an engine with the rule-set version it was built from.
// The orchestration layer owns the handle and rebuilds it when the stored
// version changes; scoring callers always read a complete pair, never a
// partially updated one.
type Handle struct {
	Version int
	Engine  *Engine
}

// HandleRef publishes the current handle with atomic swap semantics.
// Readers on the hot path never block behind a rebuild.
type HandleRef struct {
	ptr atomic.Pointer[Handle]
}

// NewHandleRef builds the initial handle from a rule set.
func NewHandleRef(rs *domain.RuleSet) (*HandleRef, error) {
	ref := &HandleRef{}
	if err := ref.Swap(rs); err != nil {
		return nil, err
	}
	return ref, nil
}

// Load returns the current handle.
func (r *HandleRef) Load() *Handle {
	return r.ptr.Load()
}

// Swap rebuilds the engine from rs and publishes it atomically. It is a
// no-op when the version already matches the active handle. On build
// failure the previous handle stays active.
func (r *HandleRef) Swap(rs *domain.RuleSet) error {
	if current := r.ptr.Load(); current != nil && current.Version == rs.Version {
		return nil
	}

	engine, err := NewEngine(rs)
	if err != nil {
		return err
	}

	r.ptr.Store(&Handle{Version: rs.Version, Engine: engine})
	return nil
}
