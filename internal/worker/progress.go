package worker

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Progress tracks and displays how many frames of a sequence have been evaluated.
type Progress struct {
	startTime time.Time
	output    io.Writer
	unit      string
	total     int
	completed int
	failed    int
	slowest   time.Duration
	mu        sync.RWMutex
	enabled   bool
}

// NewProgress creates a tracker for total frames. Output goes to stderr when enabled.
func NewProgress(total int, enabled bool) *Progress {
	return &Progress{
		total:     total,
		unit:      "frames",
		startTime: time.Now(),
		output:    os.Stderr,
		enabled:   enabled,
	}
}

// Update records the number of finished frames.
func (p *Progress) Update(completed, total, failed int) {
	p.mu.Lock()
	p.completed = completed
	p.total = total
	p.failed = failed
	p.mu.Unlock()

	if p.enabled {
		p.Print()
	}
}

// Frame records one finished frame and how long it took.
func (p *Progress) Frame(elapsed time.Duration, err error) {
	p.mu.Lock()
	p.completed++
	if err != nil {
		p.failed++
	}
	if elapsed > p.slowest {
		p.slowest = elapsed
	}
	p.mu.Unlock()

	if p.enabled {
		p.Print()
	}
}

// Callback returns a ProgressFunc suitable for use with Pool.Config.
func (p *Progress) Callback() ProgressFunc {
	return p.Update
}

type progressSnapshot struct {
	completed, total, failed int
	elapsed, slowest         time.Duration
}

func (p *Progress) snapshot() progressSnapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return progressSnapshot{
		completed: p.completed,
		total:     p.total,
		failed:    p.failed,
		elapsed:   time.Since(p.startTime),
		slowest:   p.slowest,
	}
}

func (s progressSnapshot) rate() float64 {
	if s.completed == 0 || s.elapsed <= 0 {
		return 0
	}
	return float64(s.completed) / s.elapsed.Seconds()
}

// Print writes a single-line progress bar to output.
func (p *Progress) Print() {
	s := p.snapshot()

	const barWidth = 30
	filled := 0
	if s.total > 0 {
		filled = s.completed * barWidth / s.total
	}
	if filled > barWidth {
		filled = barWidth
	}

	var b strings.Builder
	fmt.Fprintf(&b, "\r[%s%s] %d/%d %s",
		strings.Repeat("█", filled), strings.Repeat("░", barWidth-filled),
		s.completed, s.total, p.unit)
	if s.failed > 0 {
		fmt.Fprintf(&b, " (%d failed)", s.failed)
	}
	fmt.Fprintf(&b, " - %.1f %s/sec", s.rate(), p.unit)
	if s.slowest > 0 {
		fmt.Fprintf(&b, " - slowest %s", s.slowest.Round(time.Millisecond))
	}

	switch {
	case s.completed >= s.total:
		fmt.Fprintf(&b, " - Done in %s", formatDuration(s.elapsed))
	case s.rate() > 0:
		eta := time.Duration(float64(s.total-s.completed) / s.rate() * float64(time.Second))
		fmt.Fprintf(&b, " - ETA: %s", formatDuration(eta))
	}

	// Pad to clear previous line content
	b.WriteString("          ")

	fmt.Fprint(p.output, b.String())
}

// Done prints the final progress and a newline.
func (p *Progress) Done() {
	if p.enabled {
		p.Print()
		fmt.Fprintln(p.output)
	}
}

// Summary returns a one-line description of the finished run.
func (p *Progress) Summary() string {
	s := p.snapshot()
	return fmt.Sprintf("Rendered %d/%d %s (%d failed) in %s (%.1f %s/sec)",
		s.completed-s.failed, s.total, p.unit, s.failed, formatDuration(s.elapsed), s.rate(), p.unit)
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.0fs", d.Seconds())
	}
	if d < time.Hour {
		mins := int(d.Minutes())
		secs := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm%ds", mins, secs)
	}
	hours := int(d.Hours())
	mins := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh%dm", hours, mins)
}
