package spinner

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

type Spinner struct {
	out     io.Writer
	chars   []string
	delay   time.Duration
	message string
	active  bool
	mu      sync.Mutex
	stop    chan struct{}
	done    chan struct{}
}

func New(out io.Writer, message string) *Spinner {
	return &Spinner{
		out:     out,
		chars:   []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"},
		delay:   100 * time.Millisecond,
		message: message,
	}
}

func (s *Spinner) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active {
		return
	}
	s.active = true
	s.stop = make(chan struct{})
	s.done = make(chan struct{})

	go s.spin(s.stop, s.done)
}

func (s *Spinner) spin(stop, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(s.delay)
	defer ticker.Stop()

	for i := 0; ; i++ {
		s.mu.Lock()
		fmt.Fprintf(s.out, "\r%s %s", s.chars[i%len(s.chars)], s.message)
		s.mu.Unlock()

		select {
		case <-stop:
			return
		case <-ticker.C:
		}
	}
}

// Stop waits for the spinner goroutine to exit and clears its line
func (s *Spinner) Stop() {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return
	}
	s.active = false
	stop, done := s.stop, s.done
	s.mu.Unlock()

	close(stop)
	<-done

	s.mu.Lock()
	fmt.Fprint(s.out, "\r"+strings.Repeat(" ", len(s.message)+10)+"\r")
	s.mu.Unlock()
}

func (s *Spinner) Update(message string) {
	s.mu.Lock()
	s.message = message
	s.mu.Unlock()
}
