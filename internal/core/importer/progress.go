package importer

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// ProgressCallback defines the interface for progress reporting
type ProgressCallback interface {
	Update(label string)
	Finish()
}

// ProgressReporter draws a progress bar for directory imports
type ProgressReporter struct {
	writer    io.Writer
	total     int
	current   int
	startTime time.Time
}

// NewProgressReporter creates a new progress reporter
func NewProgressReporter(w io.Writer, total int) *ProgressReporter {
	return &ProgressReporter{
		writer:    w,
		total:     total,
		startTime: time.Now(),
	}
}

// Update advances the bar and shows the latest session topic
func (p *ProgressReporter) Update(label string) {
	p.current++
	total := p.total
	if total < p.current {
		total = p.current
	}

	pct := float64(p.current) / float64(total) * 100

	// Draw progress bar (40 chars wide)
	barWidth := 40
	filled := barWidth * p.current / total
	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)

	displayText := label
	if r := []rune(displayText); len(r) > 60 {
		displayText = string(r[:57]) + "..."
	}

	_, _ = fmt.Fprintf(p.writer, "\r[%s] %3.0f%% (%d/%d) | %s", bar, pct, p.current, total, displayText)
}

// Finish completes the progress display
func (p *ProgressReporter) Finish() {
	elapsed := time.Since(p.startTime)
	_, _ = fmt.Fprintf(p.writer, "\nCompleted: processed %d files in %s\n", p.current, elapsed.Round(time.Millisecond))
}

// CountFiles returns how many export files ImportDirectory would visit
func CountFiles(dir string) int {
	n := 0
	_ = walkExports(dir, func(string) { n++ })
	return n
}
