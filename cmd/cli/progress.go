package main

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"fiddler/ports"
)

// Progress is reported every progressStep traces, and only for runs longer
// than progressThreshold.
const (
	progressThreshold = 50
	progressStep      = 5
)

// progressReporter prints generation progress. On a terminal it redraws one
// line; otherwise it writes a line per update.
type progressReporter struct {
	out    io.Writer
	tty    bool
	active bool
}

func newProgressReporter(out io.Writer, tty bool) *progressReporter {
	return &progressReporter{out: out, tty: tty}
}

// stderrProgress reports to stderr, detecting whether it is a terminal.
func stderrProgress() *progressReporter {
	return newProgressReporter(os.Stderr, term.IsTerminal(int(os.Stderr.Fd())))
}

// callback returns the progress func and cadence for a run of n traces, or
// nil when the run is too short to report on.
func (r *progressReporter) callback(n int) (ports.ProgressFunc, int) {
	if n <= progressThreshold {
		return nil, 0
	}
	return r.update, progressStep
}

func (r *progressReporter) update(done, total int) {
	r.active = true
	pct := 100 * done / total
	if r.tty {
		fmt.Fprintf(r.out, "\rGenerating traces %d/%d (%d%%)", done, total, pct)
		return
	}
	fmt.Fprintf(r.out, "generated %d/%d traces (%d%%)\n", done, total, pct)
}

// finish ends a redrawn progress line.
func (r *progressReporter) finish() {
	if r.tty && r.active {
		fmt.Fprintln(r.out)
	}
	r.active = false
}

// terminalWidth is the width of stdout, or fallback when it is not a terminal.
func terminalWidth(fallback int) int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return fallback
	}
	w, _, err := term.GetSize(fd)
	if err != nil || w <= 0 {
		return fallback
	}
	return w
}
