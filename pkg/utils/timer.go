package utils

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// Phase is one timed step of a measurement run.
type Phase struct {
	Name     string
	Started  time.Time
	Duration time.Duration
	done     bool
}

// Timer records named phases of a run. It is safe for concurrent use,
// though phases themselves are expected to run sequentially.
type Timer struct {
	mu      sync.RWMutex
	name    string
	started time.Time
	phases  []*Phase
	index   map[string]*Phase
	clock   Clock
	enabled bool
}

// TimerOption configures a Timer.
type TimerOption func(*Timer)

// WithClock substitutes the clock, for tests.
func WithClock(clock Clock) TimerOption {
	return func(t *Timer) {
		if clock != nil {
			t.clock = clock
		}
	}
}

// WithEnabled turns the timer into a no-op when false.
func WithEnabled(enabled bool) TimerOption {
	return func(t *Timer) { t.enabled = enabled }
}

// NewTimer creates a Timer named after the run it measures.
func NewTimer(name string, opts ...TimerOption) *Timer {
	t := &Timer{
		name:    name,
		index:   make(map[string]*Phase),
		clock:   NewRealClock(),
		enabled: true,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.started = t.clock.Now()
	return t
}

// PhaseHandle finishes a phase started with Start.
type PhaseHandle struct {
	timer *Timer
	name  string
}

// Stop records the phase duration. Repeated calls keep the first result.
func (h *PhaseHandle) Stop() time.Duration {
	return h.timer.stopPhase(h.name)
}

// Start begins timing a phase. The returned handle is defer-friendly.
func (t *Timer) Start(name string) *PhaseHandle {
	h := &PhaseHandle{timer: t, name: name}
	if !t.enabled {
		return h
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	p := &Phase{Name: name, Started: t.clock.Now()}
	t.phases = append(t.phases, p)
	t.index[name] = p
	return h
}

func (t *Timer) stopPhase(name string) time.Duration {
	if !t.enabled {
		return 0
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.index[name]
	if !ok {
		return 0
	}
	if !p.done {
		p.Duration = t.clock.Now().Sub(p.Started)
		p.done = true
	}
	return p.Duration
}

// Time runs fn as a named phase and returns its duration.
func (t *Timer) Time(name string, fn func()) time.Duration {
	h := t.Start(name)
	fn()
	return h.Stop()
}

// TimeErr runs fn as a named phase, passing its error through.
func (t *Timer) TimeErr(name string, fn func() error) (time.Duration, error) {
	h := t.Start(name)
	err := fn()
	return h.Stop(), err
}

// Duration returns the recorded duration of a phase, zero if unknown.
func (t *Timer) Duration(name string) time.Duration {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if p, ok := t.index[name]; ok {
		return p.Duration
	}
	return 0
}

// Total returns the elapsed time since the timer was created.
func (t *Timer) Total() time.Duration {
	return t.clock.Since(t.started)
}

// Phases returns copies of all phases in start order.
func (t *Timer) Phases() []Phase {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Phase, len(t.phases))
	for i, p := range t.phases {
		out[i] = *p
	}
	return out
}

// Slowest returns up to n phases ordered by descending duration.
func (t *Timer) Slowest(n int) []Phase {
	phases := t.Phases()
	sort.Slice(phases, func(i, j int) bool {
		return phases[i].Duration > phases[j].Duration
	})
	if n < len(phases) {
		phases = phases[:n]
	}
	return phases
}

// Summary renders a human-readable phase breakdown.
func (t *Timer) Summary() string {
	if !t.enabled {
		return ""
	}

	t.mu.RLock()
	defer t.mu.RUnlock()
	var sb strings.Builder
	fmt.Fprintf(&sb, "=== %s timing ===\n", t.name)
	for i, p := range t.phases {
		fmt.Fprintf(&sb, "%2d. %-18s %v\n", i+1, p.Name, p.Duration)
	}
	fmt.Fprintf(&sb, "total: %v\n", t.clock.Since(t.started))
	return sb.String()
}

// LogSummary writes the phase breakdown through a logger, one line per phase.
func (t *Timer) LogSummary(logger Logger) {
	if !t.enabled || logger == nil {
		return
	}
	for _, p := range t.Phases() {
		logger.Debug("phase %s took %v", p.Name, p.Duration)
	}
	logger.Info("%s finished in %v", t.name, t.Total())
}

// ToMap flattens the timing data for JSON output.
func (t *Timer) ToMap() map[string]interface{} {
	t.mu.RLock()
	defer t.mu.RUnlock()

	phases := make([]map[string]interface{}, 0, len(t.phases))
	for _, p := range t.phases {
		phases = append(phases, map[string]interface{}{
			"name": p.Name,
			"ms":   p.Duration.Milliseconds(),
		})
	}
	return map[string]interface{}{
		"name":     t.name,
		"total_ms": t.clock.Since(t.started).Milliseconds(),
		"phases":   phases,
	}
}

// NullTimer is a disabled timer; every method is a no-op.
var NullTimer = &Timer{enabled: false, index: make(map[string]*Phase), clock: NewRealClock()}
