package main

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/benjaminschreck/go-mailmerge/pkg/mailmerge"
)

const barWidth = 30

// progressBar draws a single-line bar on a terminal:
//
//	[█████████░░░░░░░░░░░░░░░░░░░░░]  30% (5/17)
type progressBar struct {
	mu   sync.Mutex
	w    io.Writer
	last mailmerge.Progress
	done bool
	drew bool
}

func newProgressBar(w io.Writer) *progressBar {
	return &progressBar{w: w}
}

func (b *progressBar) Report(p mailmerge.Progress) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.done {
		return
	}
	b.last = p
	b.drew = true
	fmt.Fprintf(b.w, "\r%s", renderBar(p))
}

// Done ends the bar line. Further calls and reports are ignored.
func (b *progressBar) Done() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.done {
		return
	}
	b.done = true
	if b.drew {
		fmt.Fprintln(b.w)
	}
}

func renderBar(p mailmerge.Progress) string {
	pct := p.Percent()
	if pct > 100 {
		pct = 100
	}
	filled := pct * barWidth / 100
	return fmt.Sprintf("[%s%s] %3d%% (%d/%d)",
		strings.Repeat("█", filled), strings.Repeat("░", barWidth-filled), pct, p.Completed, p.Total)
}
