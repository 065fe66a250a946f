// SPDX-License-Identifier: MPL-2.0

package resolve

import (
	"errors"
	"strings"

	"github.com/loadseq/loadseq/internal/unit"
)

// Record describes why a unit is not active. Only the first failure of a unit is
// kept; the record is dropped as soon as the unit activates.
type Record struct {
	// Unit is the identifier of the failing unit.
	Unit unit.ID
	// Message is the first line of the failure message.
	Message string
	// Location is the best-effort file:line of the failure.
	Location string
	// Recoverable is true when the failure was an unresolved reference.
	Recoverable bool
	// Err is the raw failure.
	Err error
}

func newRecord(u unit.Unit, err error) *Record {
	return &Record{
		Unit:        u.ID(),
		Message:     firstLine(err.Error()),
		Location:    location(u, err),
		Recoverable: IsRecoverable(err),
		Err:         err,
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

func location(u unit.Unit, err error) string {
	var loc Locator
	if errors.As(err, &loc) {
		file, line := loc.Location()
		if file == "" {
			file = u.Path()
		}
		return formatLocation(file, line)
	}
	return u.Path()
}
