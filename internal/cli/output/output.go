// Package output renders command results for terminals, pipes, and
// machine consumers.
//
// A Renderer owns the command's stdout/stderr writers and an output mode.
// Mode "auto" resolves at construction time: styled text on a TTY,
// markdown when piped. Markdown and JSON output never carry ANSI escape
// codes, so the same command is safe to redirect into files or feed to
// other tools.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// Mode selects how command results are rendered.
type Mode string

// OutputMode is an alias kept for call sites that prefer the longer name.
type OutputMode = Mode

// Supported output modes.
const (
	ModeAuto     Mode = "auto"
	ModeText     Mode = "text"
	ModeMarkdown Mode = "markdown"
	ModeJSON     Mode = "json"
)

// Renderer writes command output in the selected mode.
type Renderer struct {
	stdout io.Writer
	stderr io.Writer
	mode   Mode
	isTTY  bool
	styles *Styles
}

// NewRenderer creates a renderer for the given writers and mode.
// TTY state is detected from stdout when it is a real file descriptor.
func NewRenderer(stdout, stderr io.Writer, mode Mode) *Renderer {
	isTTY := false
	if f, ok := stdout.(*os.File); ok {
		isTTY = term.IsTerminal(int(f.Fd()))
	}
	return NewRendererWithTTY(stdout, stderr, isTTY, mode)
}

// NewRendererWithTTY creates a renderer with an explicit TTY state.
// Tests use this to exercise both terminal and piped behavior against
// in-memory buffers.
func NewRendererWithTTY(stdout, stderr io.Writer, isTTY bool, mode Mode) *Renderer {
	switch mode {
	case ModeText, ModeMarkdown, ModeJSON:
	default:
		mode = ModeAuto
	}

	r := &Renderer{
		stdout: stdout,
		stderr: stderr,
		mode:   mode,
		isTTY:  isTTY,
	}

	lr := lipgloss.NewRenderer(stdout)
	if r.EffectiveMode() != ModeText {
		// Markdown and JSON must stay free of escape codes regardless of
		// where they end up.
		lr.SetColorProfile(termenv.Ascii)
	}
	r.styles = newStyles(lr)

	return r
}

// EffectiveMode resolves ModeAuto to the concrete mode in effect.
func (r *Renderer) EffectiveMode() Mode {
	if r.mode != ModeAuto {
		return r.mode
	}
	if r.isTTY {
		return ModeText
	}
	return ModeMarkdown
}

// IsTTY reports whether stdout is attached to a terminal.
func (r *Renderer) IsTTY() bool {
	return r.isTTY
}

// Styles returns the lipgloss styles bound to this renderer's output.
func (r *Renderer) Styles() *Styles {
	return r.styles
}

// Writer returns the stdout writer for direct output.
func (r *Renderer) Writer() io.Writer {
	return r.stdout
}

// ErrWriter returns the stderr writer for direct output.
func (r *Renderer) ErrWriter() io.Writer {
	return r.stderr
}

// Println writes a line to stdout.
func (r *Renderer) Println(a ...any) {
	fmt.Fprintln(r.stdout, a...)
}

// Printf writes formatted output to stdout.
func (r *Renderer) Printf(format string, a ...any) {
	fmt.Fprintf(r.stdout, format, a...)
}

// JSON writes v to stdout as indented JSON.
func (r *Renderer) JSON(v any) error {
	enc := json.NewEncoder(r.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Header writes a styled section header. Level 1 is the command's title,
// level 2 a section within it.
func (r *Renderer) Header(level int, text string) {
	switch level {
	case 1:
		r.Println(r.styles.Header1.Render(text))
	default:
		r.Println(r.styles.Header2.Render(text))
	}
}

// Muted writes de-emphasized supporting text.
func (r *Renderer) Muted(text string) {
	r.Println(r.styles.Muted.Render(text))
}

// Success writes a confirmation line to stdout.
func (r *Renderer) Success(msg string) {
	r.Printf("%s %s\n", r.styles.StatusSuccess.String(), r.styles.Success.Render(msg))
}

// Info writes an informational line to stdout.
func (r *Renderer) Info(msg string) {
	r.Println(r.styles.Info.Render(msg))
}

// Warning writes a warning line to stderr.
func (r *Renderer) Warning(msg string) {
	fmt.Fprintf(r.stderr, "%s %s\n", r.styles.Warning.Render("!"), r.styles.Warning.Render(msg))
}

// Error writes an error line to stderr.
func (r *Renderer) Error(msg string) {
	fmt.Fprintf(r.stderr, "%s %s\n", r.styles.StatusFailed.String(), r.styles.Error.Render(msg))
}

// StatusLine writes a per-item result line: an icon, the item name, and
// an optional detail in muted text. Status is "success", "failed", or
// anything else for a neutral dash.
func (r *Renderer) StatusLine(name, status, detail string) {
	var icon string
	switch status {
	case "success":
		icon = r.styles.StatusSuccess.String()
	case "failed":
		icon = r.styles.StatusFailed.String()
	default:
		icon = r.styles.Muted.Render("-")
	}
	line := fmt.Sprintf("  %s %s", icon, name)
	if detail != "" {
		line += " " + r.styles.Muted.Render(detail)
	}
	r.Println(line)
}
