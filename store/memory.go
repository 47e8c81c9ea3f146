// Package store holds published load cycles in memory.
package store

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/warp/reconcile-engine/metrics"
)

// =============================================================================
// CYCLES
// =============================================================================

// Cycle is one published bundle and where it came from.
type Cycle struct {
	ID       string
	Origin   string // upload, reload, scenario:<id>
	LoadedAt time.Time
	Bundle   metrics.Bundle
}

// NewCycle stamps a bundle with a fresh id and load time. This is the only
// place wall-clock time touches a cycle.
func NewCycle(origin string, b metrics.Bundle) Cycle {
	return Cycle{
		ID:       uuid.NewString(),
		Origin:   origin,
		LoadedAt: time.Now().UTC(),
		Bundle:   b,
	}
}

// Summary is the history entry kept for every published cycle.
type Summary struct {
	ID            string
	Origin        string
	LoadedAt      time.Time
	RuleSet       string
	Employees     int
	Unmatched     int
	QualityScore  int
	SelfCheckPass bool
}

func summarize(c Cycle) Summary {
	return Summary{
		ID:            c.ID,
		Origin:        c.Origin,
		LoadedAt:      c.LoadedAt,
		RuleSet:       c.Bundle.RuleSet,
		Employees:     len(c.Bundle.Employees),
		Unmatched:     len(c.Bundle.Unmatched),
		QualityScore:  c.Bundle.DataQuality.OverallScore,
		SelfCheckPass: c.Bundle.SelfCheck.Valid,
	}
}

// =============================================================================
// MEMORY STORE
// =============================================================================

// DefaultHistory is how many summaries a store keeps when not told otherwise.
const DefaultHistory = 20

// Memory holds the current cycle and a bounded history. Publishing swaps the
// whole cycle under the lock, so readers see either the old bundle or the new
// one and never a mix.
type Memory struct {
	mu      sync.RWMutex
	current *Cycle
	history []Summary
	limit   int
}

// NewMemory creates a store keeping up to limit summaries.
func NewMemory(limit int) *Memory {
	if limit <= 0 {
		limit = DefaultHistory
	}
	return &Memory{limit: limit}
}

// Publish makes c the current cycle.
func (m *Memory) Publish(c Cycle) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.current = &c
	m.history = append([]Summary{summarize(c)}, m.history...)
	if len(m.history) > m.limit {
		m.history = m.history[:m.limit]
	}
}

// Current returns the current cycle, false before the first publish.
func (m *Memory) Current() (Cycle, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.current == nil {
		return Cycle{}, false
	}
	return *m.current, true
}

// History returns summaries, newest first.
func (m *Memory) History() []Summary {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Summary, len(m.history))
	copy(out, m.history)
	return out
}

// Reset drops everything.
func (m *Memory) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.current = nil
	m.history = nil
}
