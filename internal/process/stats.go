// SPDX-License-Identifier: MPL-2.0

package process

import (
	"time"

	"github.com/loadseq/loadseq/internal/resolve"
)

// Stats summarizes one run.
type Stats struct {
	// RunID uniquely identifies the run in logs.
	RunID string
	// Files is the number of units considered.
	Files int
	// Resolved is the number of units activated.
	Resolved int
	// Attempts is the number of activation attempts.
	Attempts int
	// Passes is the number of passes started.
	Passes int
	// Budget is the attempt cap.
	Budget int
	// Errors is the number of units left with a failure record.
	Errors int
	// Outcome is why resolution stopped.
	Outcome resolve.Outcome
	// Elapsed is the resolution wall time, plus formatting and output on success.
	Elapsed time.Duration
	// Output is the manifest file, or "" when written to a stream.
	Output string

	started time.Time
}

func (s *Stats) fill(res *resolve.Result) {
	s.Files = res.Total
	s.Resolved = len(res.Resolved)
	s.Attempts = res.Attempts
	s.Passes = res.Passes
	s.Budget = res.Budget
	s.Errors = len(res.Records)
	s.Outcome = res.Outcome
	s.Elapsed = res.Elapsed
	s.started = time.Now().Add(-res.Elapsed)
}
