// Package ui draws the live progress line shown while media downloads run.
package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

const barWidth = 20

// Progress is a single self-overwriting status line
type Progress struct {
	mu      sync.Mutex
	w       io.Writer
	styles  Styles
	label   string
	total   int
	saved   int
	skipped int
	failed  int
	bytes   int64
	current string
	start   time.Time
	drawn   int
	now     func() time.Time
}

// NewProgress starts a progress line for total files
func NewProgress(w io.Writer, label string, total int) *Progress {
	return &Progress{
		w:      w,
		styles: NewStyles(w),
		label:  label,
		total:  total,
		start:  time.Now(),
		now:    time.Now,
	}
}

// Saved records a finished download
func (p *Progress) Saved(name string, size int64) {
	p.update(func() {
		p.saved++
		p.bytes += size
		p.current = name
	})
}

// Skipped records a file that was already present
func (p *Progress) Skipped(name string) {
	p.update(func() {
		p.skipped++
		p.current = name
	})
}

// Failed records a download that failed
func (p *Progress) Failed(name string) {
	p.update(func() {
		p.failed++
		p.current = name
	})
}

func (p *Progress) update(fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fn()
	p.draw()
}

// Finish clears the line so a summary can be printed in its place
func (p *Progress) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.drawn > 0 {
		fmt.Fprintf(p.w, "\r%s\r", strings.Repeat(" ", p.drawn))
		p.drawn = 0
	}
}

func (p *Progress) done() int {
	return p.saved + p.skipped + p.failed
}

func (p *Progress) draw() {
	line := p.line()
	width := lipgloss.Width(line)
	pad := ""
	if width < p.drawn {
		pad = strings.Repeat(" ", p.drawn-width)
	}
	fmt.Fprintf(p.w, "\r%s%s", line, pad)
	p.drawn = width
}

// line renders the current state, p.mu held
func (p *Progress) line() string {
	s := p.styles
	filled := 0
	if p.total > 0 {
		filled = p.done() * barWidth / p.total
	}
	if filled > barWidth {
		filled = barWidth
	}
	bar := s.Bar.Render(strings.Repeat("━", filled)) + s.Empty.Render(strings.Repeat("─", barWidth-filled))

	parts := []string{
		fmt.Sprintf("%s [%s] %d/%d", s.Label.Render(p.label), bar, p.done(), p.total),
		FormatBytes(p.bytes),
	}
	if eta := p.eta(); eta != "" {
		parts = append(parts, "eta "+eta)
	}
	if p.failed > 0 {
		parts = append(parts, s.Bad.Render(fmt.Sprintf("%d failed", p.failed)))
	}
	if p.current != "" {
		parts = append(parts, s.Dim.Render(p.current))
	}
	return strings.Join(parts, " • ")
}

func (p *Progress) eta() string {
	done := p.done()
	if done == 0 || done >= p.total {
		return ""
	}
	elapsed := p.now().Sub(p.start)
	perFile := elapsed / time.Duration(done)
	return FormatDuration(perFile * time.Duration(p.total-done))
}

// FormatDuration renders d as 42s, 3m5s or 1h20m
func FormatDuration(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	default:
		return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
	}
}

// FormatBytes renders n with a binary unit
func FormatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
