// SPDX-License-Identifier: MPL-2.0

package resolve

import (
	"context"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/loadseq/loadseq/internal/unit"
)

const (
	// Resolved means every unit was activated.
	Resolved Outcome = iota
	// Converged means a full pass made no progress while units remained.
	Converged
	// Exhausted means the attempt budget ran out mid-pass.
	Exhausted
	// Canceled means the context was canceled between attempts.
	Canceled
)

type (
	// Outcome tells why a resolution run stopped.
	Outcome int

	// Engine runs the trial-activation loop. An Engine holds no per-run state and
	// may be reused for several runs, but never concurrently with the same
	// Activator since activation mutates the activator's environment.
	Engine struct {
		activator   Activator
		logger      *log.Logger
		maxAttempts int
	}

	// Option configures an Engine.
	Option func(*Engine)

	// Result is the outcome of one resolution run. It is read-only once returned.
	Result struct {
		// Resolved lists units in the order they first activated.
		Resolved []unit.Unit
		// Unresolved lists the units left in the working set, in working order.
		Unresolved []unit.Unit
		// Records maps each unresolved unit to its first failure.
		Records map[unit.ID]*Record
		// Total is the number of units the run started with.
		Total int
		// Attempts is the number of activation attempts made.
		Attempts int
		// Budget is the attempt cap the run was held to.
		Budget int
		// Passes is the number of passes started.
		Passes int
		// Outcome tells why the loop stopped.
		Outcome Outcome
		// Elapsed is the wall time spent in the loop.
		Elapsed time.Duration
	}
)

// String returns a human-readable outcome name.
func (o Outcome) String() string {
	switch o {
	case Resolved:
		return "resolved"
	case Converged:
		return "converged"
	case Exhausted:
		return "exhausted"
	case Canceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Describe explains the outcome for diagnostics.
func (o Outcome) Describe() string {
	switch o {
	case Resolved:
		return "all units resolved"
	case Converged:
		return "no progress during a full pass; remaining units are stuck"
	case Exhausted:
		return "gave up after spending the attempt budget"
	case Canceled:
		return "resolution was canceled"
	default:
		return fmt.Sprintf("unknown outcome %d", int(o))
	}
}

// WithLogger sets the logger used for per-attempt debug output.
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithMaxAttempts overrides the default n²+1 attempt budget. Values <= 0 keep the
// default.
func WithMaxAttempts(n int) Option {
	return func(e *Engine) {
		e.maxAttempts = n
	}
}

// NewEngine creates an Engine activating units with a.
func NewEngine(a Activator, opts ...Option) *Engine {
	e := &Engine{
		activator: a,
		logger:    log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Budget returns the default attempt budget for n units: enough for a dependency
// chain that only lets one unit through per pass.
func Budget(n int) int {
	return n*n + 1
}

func (e *Engine) budget(n int) int {
	if e.maxAttempts > 0 {
		return e.maxAttempts
	}
	return Budget(n)
}

// Resolve activates the units of set until all are active, no progress is made,
// the budget is spent, or ctx is canceled. It never fails as a whole: per-unit
// failures are reported through Result.Records.
func (e *Engine) Resolve(ctx context.Context, set *unit.Set) *Result {
	start := time.Now()
	working := set.Units()

	res := &Result{
		Records: make(map[unit.ID]*Record),
		Total:   len(working),
		Budget:  e.budget(len(working)),
	}

	res.Outcome = Resolved
	for len(working) > 0 {
		before := len(working)
		res.Passes++

		var stopped bool
		working, stopped = e.pass(ctx, working, res)
		if stopped {
			break
		}
		e.logger.Debug("pass complete", "pass", res.Passes, "resolved", before-len(working), "remaining", len(working))

		if len(working) == before {
			res.Outcome = Converged
			break
		}
	}

	res.Unresolved = working
	res.Elapsed = time.Since(start)
	return res
}

// pass attempts each unit of working once, in order. Activated units are removed
// in place, so the position only advances past failures. It reports whether the
// run must stop early, in which case res.Outcome is already set.
func (e *Engine) pass(ctx context.Context, working []unit.Unit, res *Result) ([]unit.Unit, bool) {
	for i := 0; i < len(working); {
		if res.Attempts >= res.Budget {
			e.logger.Warn("attempt budget exhausted", "attempts", res.Attempts, "budget", res.Budget)
			res.Outcome = Exhausted
			return working, true
		}
		if ctx.Err() != nil {
			res.Outcome = Canceled
			return working, true
		}

		u := working[i]
		res.Attempts++

		if err := e.activate(ctx, u); err != nil {
			if _, seen := res.Records[u.ID()]; !seen {
				res.Records[u.ID()] = newRecord(u, err)
			}
			e.logger.Debug("activation failed", "unit", u.ID(), "recoverable", IsRecoverable(err), "err", err)
			i++
			continue
		}

		e.logger.Debug("activated", "unit", u.ID(), "attempt", res.Attempts)
		working = slices.Delete(working, i, i+1)
		res.Resolved = append(res.Resolved, u)
		delete(res.Records, u.ID())
	}
	return working, false
}

// activate shields the loop from panicking activators.
func (e *Engine) activate(ctx context.Context, u unit.Unit) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("activation panicked: %v", r)
		}
	}()
	return e.activator.Activate(ctx, u)
}

// Success reports whether every unit was activated.
func (r *Result) Success() bool {
	return r.Outcome == Resolved && len(r.Unresolved) == 0
}

// ResolvedIDs returns the identifiers of the resolved units in activation order.
func (r *Result) ResolvedIDs() []unit.ID {
	ids := make([]unit.ID, len(r.Resolved))
	for i, u := range r.Resolved {
		ids[i] = u.ID()
	}
	return ids
}

// Errors returns the records of the unresolved units in working-set order.
func (r *Result) Errors() []Record {
	out := make([]Record, 0, len(r.Records))
	for _, u := range r.Unresolved {
		if rec, ok := r.Records[u.ID()]; ok {
			out = append(out, *rec)
		}
	}
	return out
}
