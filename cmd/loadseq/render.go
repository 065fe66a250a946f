// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/loadseq/loadseq/internal/process"
	"github.com/loadseq/loadseq/internal/resolve"
)

// stdoutLabel names the manifest destination when it is standard output.
const stdoutLabel = "-"

// console writes run output with styles bound to its stream.
type console struct {
	w      io.Writer
	styles consoleStyles
}

// statusLine formats the summary of a run.
func statusLine(p *process.Process) string {
	st := p.Stats()
	label := p.OutputLabel()
	if label == "" {
		label = stdoutLabel
	}
	status := "Failure"
	if p.Success() {
		status = "Success"
	}
	return fmt.Sprintf("%s: %d files; %d iterations; %d errors (%.4f) [%s]",
		status, st.Files, st.Attempts, st.Errors, st.Elapsed.Seconds(), label)
}

// errorLine formats a failure record as "id:line: message".
func errorLine(r resolve.Record) string {
	msg := r.Message
	line := 0
	var ae *resolve.ActivationError
	if errors.As(r.Err, &ae) {
		line = ae.Line
		if ae.Err != nil {
			msg = firstLine(ae.Err.Error())
		}
	}
	if line <= 0 {
		return fmt.Sprintf("%s: %s", r.Unit, msg)
	}
	return fmt.Sprintf("%s:%s: %s", r.Unit, strconv.Itoa(line), msg)
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

func (c *console) status(p *process.Process) {
	style := c.styles.failure
	if p.Success() {
		style = c.styles.success
	}
	fmt.Fprintln(c.w, style.Render(statusLine(p)))
}

func (c *console) errors(records []resolve.Record) {
	for _, r := range records {
		fmt.Fprintln(c.w, c.styles.errLine.Render(errorLine(r)))
	}
}

func (c *console) note(format string, args ...any) {
	fmt.Fprintln(c.w, c.styles.muted.Render(fmt.Sprintf(format, args...)))
}
