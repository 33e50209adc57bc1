package cli

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/matzehuels/lineage/pkg/errors"
	"github.com/matzehuels/lineage/pkg/observability"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

const spinnerInterval = 80 * time.Millisecond

// Spinner animates on stderr while a layout is loaded or computed. It is
// also a set of layout hooks: passed as layout.Options.Hooks it narrates the
// pass, showing the profile count, warnings and capacity degradation as
// they happen. A cache hit never starts a pass, so the initial message
// stays up.
type Spinner struct {
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
	stopped chan struct{}
	once    sync.Once

	mu       sync.Mutex
	message  string
	drawn    int // widest line written, cleared on stop
	warnings int
	degraded bool
}

var _ observability.LayoutHooks = (*Spinner)(nil)

// newSpinner creates a spinner that stops when ctx is cancelled.
func newSpinner(ctx context.Context, message string) *Spinner {
	ctx, cancel := context.WithCancel(ctx)
	return &Spinner{
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
		message: message,
	}
}

// Start begins the animation.
func (s *Spinner) Start() {
	go func() {
		defer close(s.stopped)
		ticker := time.NewTicker(spinnerInterval)
		defer ticker.Stop()

		for i := 0; ; i++ {
			select {
			case <-s.ctx.Done():
				s.clearLine()
				return
			case <-s.done:
				return
			case <-ticker.C:
				s.draw(spinnerFrames[i%len(spinnerFrames)])
			}
		}
	}()
}

func (s *Spinner) draw(frame string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	line := s.line()
	s.drawn = max(s.drawn, len(line)+2)
	fmt.Fprintf(stderr, "\r%s %s", styleIconSpinner.Render(frame), StyleDim.Render(line))
}

// line renders the message with the warning state. Callers hold s.mu.
func (s *Spinner) line() string {
	switch {
	case s.degraded:
		return fmt.Sprintf("%s (over capacity, %d warnings)", s.message, s.warnings)
	case s.warnings > 0:
		return fmt.Sprintf("%s (%d warnings)", s.message, s.warnings)
	}
	return s.message
}

// Message returns the current line without the animation frame.
func (s *Spinner) Message() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.line()
}

// SetMessage replaces the message shown next to the animation.
func (s *Spinner) SetMessage(message string) {
	s.mu.Lock()
	s.message = message
	s.mu.Unlock()
}

// OnLayoutStart implements observability.LayoutHooks.
func (s *Spinner) OnLayoutStart(_ context.Context, profiles int) {
	s.SetMessage(fmt.Sprintf("Laying out %d profiles...", profiles))
}

// OnLayoutComplete implements observability.LayoutHooks.
func (s *Spinner) OnLayoutComplete(_ context.Context, nodes int, d time.Duration, err error) {
	if err != nil {
		s.SetMessage("Layout stopped")
		return
	}
	s.SetMessage(fmt.Sprintf("Placed %d people in %s", nodes, d.Round(time.Millisecond)))
}

// OnWarning implements observability.LayoutHooks.
func (s *Spinner) OnWarning(_ context.Context, code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.warnings++
	if code == string(errors.ErrCodeCapacityExceeded) {
		s.degraded = true
	}
}

// Stop ends the animation and clears the line. It is safe to call more
// than once.
func (s *Spinner) Stop() {
	s.cancel()
	s.once.Do(func() { close(s.done) })
	<-s.stopped
	s.clearLine()
}

func (s *Spinner) clearLine() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.drawn == 0 {
		return
	}
	fmt.Fprintf(stderr, "\r%s\r", strings.Repeat(" ", s.drawn+2))
	s.drawn = 0
}

// StopWithSuccess stops the spinner and prints message as a success.
func (s *Spinner) StopWithSuccess(message string) {
	s.Stop()
	printSuccess("%s", message)
}

// StopWithError stops the spinner and prints message as an error.
func (s *Spinner) StopWithError(message string) {
	s.Stop()
	printError("%s", message)
}

// Cancelled reports whether the spinner's context is done.
func (s *Spinner) Cancelled() bool {
	return s.ctx.Err() != nil
}
