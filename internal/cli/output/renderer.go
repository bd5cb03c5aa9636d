// Package output renders command results in terminal, markdown, or JSON
// form. The auto mode picks a format from the environment: styled text on a
// TTY, markdown when piped.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Mode selects the output format.
type Mode string

// Output modes.
const (
	ModeAuto     Mode = "auto"
	ModeText     Mode = "text"
	ModeMarkdown Mode = "markdown"
	ModeJSON     Mode = "json"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	headerStyle  = lipgloss.NewStyle().Bold(true)
)

// Renderer writes command output. Result data goes to Out, human diagnostics
// to Err, so machine-readable modes keep stdout clean.
type Renderer struct {
	Out  io.Writer
	Err  io.Writer
	mode Mode
}

// NewRenderer creates a Renderer writing to the given streams.
func NewRenderer(out, err io.Writer, mode Mode) *Renderer {
	if mode == "" {
		mode = ModeAuto
	}
	return &Renderer{Out: out, Err: err, mode: mode}
}

// EffectiveMode resolves ModeAuto against the environment: text on a
// terminal, markdown otherwise.
func (r *Renderer) EffectiveMode() Mode {
	if r.mode != ModeAuto {
		return r.mode
	}
	if f, ok := r.Out.(*os.File); ok {
		if termenv.NewOutput(f).EnvNoColor() || !isTerminal(f) {
			return ModeMarkdown
		}
		return ModeText
	}
	return ModeMarkdown
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

// JSON writes v to Out as a single JSON line.
func (r *Renderer) JSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	_, err = fmt.Fprintln(r.Out, string(data))
	return err
}

// Header writes a section heading.
func (r *Renderer) Header(text string) {
	if r.EffectiveMode() == ModeText {
		fmt.Fprintln(r.Out, headerStyle.Render(text))
		return
	}
	fmt.Fprintf(r.Out, "## %s\n", text)
}

// Success writes a positive status line.
func (r *Renderer) Success(format string, args ...any) {
	r.status(successStyle, "✓", format, args...)
}

// Warning writes a cautionary status line.
func (r *Renderer) Warning(format string, args ...any) {
	r.status(warningStyle, "!", format, args...)
}

// Error writes a failure status line.
func (r *Renderer) Error(format string, args ...any) {
	r.status(errorStyle, "✗", format, args...)
}

func (r *Renderer) status(style lipgloss.Style, marker, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if r.EffectiveMode() == ModeText {
		fmt.Fprintln(r.Out, style.Render(marker+" "+msg))
		return
	}
	fmt.Fprintf(r.Out, "%s %s\n", marker, msg)
}

// Plain writes an unstyled line to Out.
func (r *Renderer) Plain(format string, args ...any) {
	fmt.Fprintf(r.Out, format+"\n", args...)
}
