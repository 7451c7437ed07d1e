package output

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
	"unicode/utf8"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

const spinnerInterval = 80 * time.Millisecond

// Spinner animates a progress line on stderr while a command waits on
// the database. Off a TTY it animates nothing; only the final Success
// or Fail message prints.
type Spinner struct {
	w       io.Writer
	msg     string
	animate bool
	r       *Renderer

	mu       sync.Mutex
	done     chan struct{}
	finished chan struct{}
}

// NewSpinner creates a spinner for this renderer. Call Start to begin
// animating and Success or Fail to finish.
func (r *Renderer) NewSpinner(msg string) *Spinner {
	return &Spinner{
		w:       r.stderr,
		msg:     msg,
		animate: r.isTTY && r.EffectiveMode() == ModeText,
		r:       r,
	}
}

// Start begins the animation. No-op when output is not a terminal.
func (s *Spinner) Start() {
	if !s.animate {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done != nil {
		return
	}
	s.done = make(chan struct{})
	s.finished = make(chan struct{})
	go s.spin(s.done, s.finished)
}

func (s *Spinner) spin(done, finished chan struct{}) {
	defer close(finished)
	ticker := time.NewTicker(spinnerInterval)
	defer ticker.Stop()
	frame := 0
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			fmt.Fprintf(s.w, "\r%s %s", spinnerFrames[frame%len(spinnerFrames)], s.msg)
			frame++
		}
	}
}

// stop halts the animation and clears the progress line.
func (s *Spinner) stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done == nil {
		return
	}
	close(s.done)
	<-s.finished
	s.done = nil
	s.finished = nil
	fmt.Fprintf(s.w, "\r%s\r", strings.Repeat(" ", utf8.RuneCountInString(s.msg)+2))
}

// Success stops the spinner and prints a confirmation line.
func (s *Spinner) Success(msg string) {
	s.stop()
	s.r.Success(msg)
}

// Fail stops the spinner and prints an error line.
func (s *Spinner) Fail(msg string) {
	s.stop()
	s.r.Error(msg)
}
