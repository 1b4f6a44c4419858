package ui

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"

	"gfmapdl/pkg/scraper"
)

// Printer writes styled, line-oriented messages
type Printer struct {
	mu    sync.Mutex
	out   io.Writer
	theme theme
}

// NewPrinter creates a Printer writing to out
func NewPrinter(out io.Writer, color bool) *Printer {
	return &Printer{out: out, theme: newTheme(newRenderer(out, color))}
}

var (
	stdMu sync.RWMutex
	std   = NewPrinter(os.Stdout, true)
)

// SetOutput replaces the printer used by the package-level Print functions
func SetOutput(out io.Writer, color bool) {
	stdMu.Lock()
	defer stdMu.Unlock()
	std = NewPrinter(out, color)
}

// Default returns the printer used by the package-level Print functions
func Default() *Printer {
	stdMu.RLock()
	defer stdMu.RUnlock()
	return std
}

func (p *Printer) println(s string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.out, s)
}

// Error prints an error message. A first extra argument is appended after a colon.
func (p *Printer) Error(msg string, args ...interface{}) {
	if len(args) > 0 {
		msg = msg + ": " + fmt.Sprintf("%v", args[0])
	}
	p.println(p.theme.err.Render(msg))
}

// Success prints a success message
func (p *Printer) Success(msg string) {
	p.println(p.theme.success.Render(msg))
}

// Info prints a label and its value
func (p *Printer) Info(label string, value string) {
	p.println(p.theme.label.Render(label) + ": " + p.theme.value.Render(value))
}

// Warning prints a warning message
func (p *Printer) Warning(msg string, args ...interface{}) {
	if len(args) > 0 {
		msg = msg + ": " + fmt.Sprintf("%v", args[0])
	}
	p.println(p.theme.warning.Render(msg))
}

// Highlight prints a highlighted message
func (p *Printer) Highlight(msg string) {
	p.println(p.theme.highlight.Render(msg))
}

// Plain prints msg without styling
func (p *Printer) Plain(msg string) {
	p.println(msg)
}

// Report prints the end-of-run summary
func (p *Printer) Report(r *scraper.Report) {
	p.println("")
	p.Success("*** DONE ***")
	p.Info("Files in folder", strconv.Itoa(r.FilesPresent))
	p.Info("Maps in profile", strconv.Itoa(r.Discovered))

	s := r.Session
	p.println(p.theme.dim.Render(fmt.Sprintf("downloaded %d, skipped %d, failed %d, unrecognized %d in %s",
		s.Completed, s.Skipped, s.Errored, s.Unclassified, formatDuration(r.Duration))))
}

// PrintError prints an error message with the default printer
func PrintError(msg string, args ...interface{}) {
	Default().Error(msg, args...)
}

// PrintSuccess prints a success message with the default printer
func PrintSuccess(msg string) {
	Default().Success(msg)
}

// PrintInfo prints a label and value with the default printer
func PrintInfo(label string, value string) {
	Default().Info(label, value)
}

// PrintWarning prints a warning with the default printer
func PrintWarning(msg string, args ...interface{}) {
	Default().Warning(msg, args...)
}

// PrintHighlight prints a highlighted message with the default printer
func PrintHighlight(msg string) {
	Default().Highlight(msg)
}

// PrintReport prints the end-of-run summary with the default printer
func PrintReport(r *scraper.Report) {
	Default().Report(r)
}
