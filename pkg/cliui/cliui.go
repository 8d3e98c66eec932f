// Package cliui holds the terminal styles and helpers shared by the
// thoughtstream commands.
package cliui

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

func fg(color string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color))
}

var (
	SuccessMark = fg("82").Render("✓")
	FailMark    = fg("196").Render("✗")

	StepStyle   = fg("245")
	HeaderStyle = fg("252").Bold(true)
	KeyStyle    = fg("245")
	ValueStyle  = fg("252")
	NameStyle   = fg("39").Bold(true)
	DimStyle    = fg("241")
	WarnStyle   = fg("214").Bold(true)
	ErrorStyle  = fg("196")

	spinnerStyle = fg("82")
)

// MarkdownWidth is the wrap width used by RenderMarkdown.
const MarkdownWidth = 80

// PersonaStyle renders a persona name in its accent color. Personas without
// a color use NameStyle.
func PersonaStyle(color string) lipgloss.Style {
	if color == "" {
		return NameStyle
	}
	return NameStyle.Foreground(lipgloss.Color(color))
}

var spinnerFrames = []string{"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷"}

type spinner struct {
	w    io.Writer
	msg  string
	stop chan struct{}
	done chan struct{}
}

func startSpinner(w io.Writer, msg string) *spinner {
	s := &spinner{w: w, msg: msg, stop: make(chan struct{}), done: make(chan struct{})}
	go s.spin()
	return s
}

func (s *spinner) spin() {
	defer close(s.done)

	ticker := time.NewTicker(80 * time.Millisecond)
	defer ticker.Stop()

	for frame := 0; ; frame++ {
		fmt.Fprintf(s.w, "\r  %s %s", spinnerStyle.Render(spinnerFrames[frame%len(spinnerFrames)]), s.msg)

		select {
		case <-s.stop:
			return
		case <-ticker.C:
		}
	}
}

// finish stops the animation and overwrites the line with the outcome.
func (s *spinner) finish(err error, elapsed time.Duration) {
	close(s.stop)
	<-s.done

	fmt.Fprintf(s.w, "\r  %s %s %s\n", Mark(err), s.msg, StepStyle.Render("("+FormatDuration(elapsed)+")"))
}

// Step shows a spinner on w while fn runs, then a ✓ or ✗ with the elapsed
// time. It returns fn's error.
func Step(w io.Writer, msg string, fn func() error) error {
	s := startSpinner(w, msg)

	start := time.Now()
	err := fn()
	s.finish(err, time.Since(start))

	return err
}

// Mark returns a ✓ for nil errors or ✗ for non-nil errors.
func Mark(err error) string {
	if err != nil {
		return FailMark
	}
	return SuccessMark
}

// FormatDuration formats a duration for display (e.g. "12ms" or "3.2s").
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

// RenderMarkdown renders a finished take for the terminal. On failure the
// raw content is returned alongside the error.
func RenderMarkdown(content string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(MarkdownWidth),
	)
	if err != nil {
		return content, err
	}

	out, err := r.Render(content)
	if err != nil {
		return content, err
	}
	return out, nil
}
