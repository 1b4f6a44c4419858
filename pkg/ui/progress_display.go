package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"gfmapdl/internal/downloader"
	"gfmapdl/pkg/throttle"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/muesli/termenv"
)

const barWidth = 30

const (
	phaseDownloading = "Downloading"
	phaseWaiting     = "Waiting"
	phaseFinished    = "Finished"
	phaseEndedEarly  = "Ended early"
)

// ProgressDisplay redraws a single progress line as entries complete.
// It satisfies downloader.Progress and its OnThrottle method is a throttle.Hook.
type ProgressDisplay struct {
	mu        sync.Mutex
	out       io.Writer
	bar       progress.Model
	theme     theme
	total     int
	done      int
	errors    int
	current   string
	phase     string
	waiting   bool
	remaining time.Duration
	startTime time.Time
	now       func() time.Time
}

// NewProgressDisplay creates a progress display writing to out
func NewProgressDisplay(out io.Writer, color bool) *ProgressDisplay {
	opts := []progress.Option{
		progress.WithGradient(barColorA, barColorB),
		progress.WithWidth(barWidth),
	}
	if !color {
		opts = append(opts, progress.WithColorProfile(termenv.Ascii))
	}
	return &ProgressDisplay{
		out:   out,
		bar:   progress.New(opts...),
		theme: newTheme(newRenderer(out, color)),
		now:   time.Now,
	}
}

// Start resets the display for a run of total entries
func (p *ProgressDisplay) Start(total int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.total = total
	p.done = 0
	p.errors = 0
	p.current = ""
	p.phase = phaseDownloading
	p.waiting = false
	p.remaining = 0
	p.startTime = p.now()
	p.render()
}

// Advance records one finished entry
func (p *ProgressDisplay) Advance(res downloader.Result) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.done++
	if res.Outcome == downloader.OutcomeFailed {
		p.errors++
	}
	p.current = res.Entry.Name
	p.render()
}

// Finish ends the progress line
func (p *ProgressDisplay) Finish(s downloader.Session) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.current = ""
	p.waiting = false
	p.remaining = 0
	p.phase = phaseFinished
	if s.Cancelled {
		p.phase = phaseEndedEarly
	}
	p.render()
	fmt.Fprintln(p.out)
}

// OnThrottle shows the cooldown while the throttle is paused.
// Tick events redraw the countdown.
func (p *ProgressDisplay) OnThrottle(ev throttle.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch ev.Phase {
	case throttle.WaitStarted, throttle.WaitTick:
		p.phase = phaseWaiting
		p.waiting = true
		p.remaining = ev.Remaining
	case throttle.WaitEnded:
		p.phase = phaseDownloading
		p.waiting = false
		p.remaining = 0
	}
	p.render()
}

func (p *ProgressDisplay) render() {
	fmt.Fprint(p.out, "\r\033[K"+p.line())
}

func (p *ProgressDisplay) line() string {
	percent := 0.0
	if p.total > 0 {
		percent = float64(p.done) / float64(p.total)
	}

	parts := []string{
		p.theme.label.Render(p.phase),
		p.bar.ViewAs(percent),
		fmt.Sprintf("%d/%d", p.done, p.total),
		formatDuration(p.now().Sub(p.startTime)),
	}
	if p.errors > 0 {
		parts = append(parts, p.theme.err.Render(fmt.Sprintf("%d failed", p.errors)))
	}
	if p.waiting {
		parts = append(parts, p.theme.warning.Render(formatDuration(p.remaining)+" left"))
	} else if p.current != "" {
		parts = append(parts, p.theme.dim.Render(truncate(p.current, 40)))
	}
	return strings.Join(parts, " • ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	default:
		return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
	}
}
