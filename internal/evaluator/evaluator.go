package evaluator

import (
	"github.com/oshokin/smart-home/internal/audit"
	"github.com/oshokin/smart-home/internal/domain/house"
)

// unsetTime is the sentinel current time asking the evaluator to read its clock.
const unsetTime = -1

// Evaluator computes the corrected next state of a house.
// It holds no state between calls and is safe for concurrent use on different houses.
type Evaluator struct {
	// clock stamps audit entries and backs the current-time fallback.
	clock audit.Clock
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithClock injects the clock used for audit timestamps and the current-time fallback.
func WithClock(clock audit.Clock) Option {
	return func(e *Evaluator) {
		if clock != nil {
			e.clock = clock
		}
	}
}

// New creates an evaluator reading the system clock unless overridden.
func New(opts ...Option) *Evaluator {
	e := &Evaluator{
		clock: audit.SystemClock,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// pass carries the per-call context shared by the rules of one evaluation.
type pass struct {
	// log accumulates the audit trail.
	log *audit.Log
	// now is the current time of day as HHMM.
	now int
}

// Evaluate runs the rule pipeline over in and returns the corrected state and its audit trail.
// Policy rejections are reported in the log only; the call never fails.
func (e *Evaluator) Evaluate(in house.State) (house.State, *audit.Log) {
	p := &pass{
		log: audit.NewLog(e.clock),
	}
	p.now = e.currentTime(in, p.log)

	out := in
	for _, r := range pipeline {
		out = r.apply(out, p)
	}

	return out, p.log
}

// currentTime returns the provided HHMM time or derives it from the clock.
func (e *Evaluator) currentTime(in house.State, log *audit.Log) int {
	if t, ok := in.CurrentTime.Get(); ok && t != unsetTime {
		return t
	}

	log.Add("Current time not set, read from system")

	now := e.clock.Now()

	return now.Hour()*100 + now.Minute()
}

// ruleNames lists the pipeline stages in execution order.
func ruleNames() []string {
	names := make([]string, 0, len(pipeline))
	for _, r := range pipeline {
		names = append(names, r.name)
	}

	return names
}

// InNightWindow reports whether the HHMM time t falls inside the night window [start, end].
// A window with start after end wraps past midnight.
func InNightWindow(start, end, t int) bool {
	if start > end {
		return t >= start || t <= end
	}

	return t >= start && t <= end
}
