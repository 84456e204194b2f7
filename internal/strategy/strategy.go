package strategy

import (
	"errors"
	"fmt"
	"sync"

	"github.com/liangjiangliang/okx-trading1-sub001/internal/series"
)

// Global error declarations.
var (
	ErrUnknownStrategy = errors.New("strategy identifier not registered")
	ErrEmptySeries     = errors.New("bar series is empty")
)

// SignalEvaluator is the capability contract the engine drives: given a bar
// index into the series the evaluator was built on, decide whether to enter
// or exit. Implementations are bound to one series at construction and are
// never shared across series.
type SignalEvaluator interface {
	ShouldEnter(index int) bool
	ShouldExit(index int) bool
}

// Builder constructs a SignalEvaluator bound to a series
type Builder func(s *series.Series) (SignalEvaluator, error)

// Registry maps strategy identifiers to evaluator constructors
type Registry struct {
	mu       sync.RWMutex
	builders map[string]Builder
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{builders: make(map[string]Builder)}
}

// Register binds an identifier to a builder, replacing any previous binding
func (r *Registry) Register(id string, b Builder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.builders[id] = b
}

// Identifiers returns all registered strategy identifiers
func (r *Registry) Identifiers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.builders))
	for id := range r.builders {
		ids = append(ids, id)
	}
	return ids
}

// New constructs the evaluator for id bound to s. Fails for an unknown
// identifier or an empty series.
func (r *Registry) New(s *series.Series, id string) (SignalEvaluator, error) {
	if s == nil || s.Len() == 0 {
		return nil, fmt.Errorf("create %q: %w", id, ErrEmptySeries)
	}

	r.mu.RLock()
	b, ok := r.builders[id]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("create %q: %w", id, ErrUnknownStrategy)
	}
	return b(s)
}

// Default returns a registry with the built-in evaluators registered
func Default() *Registry {
	r := NewRegistry()
	r.Register("sma_cross", func(s *series.Series) (SignalEvaluator, error) {
		return NewSMACross(s, 5, 20), nil
	})
	r.Register("bollinger", func(s *series.Series) (SignalEvaluator, error) {
		return NewBollinger(s, 20, 2.0), nil
	})
	return r
}
