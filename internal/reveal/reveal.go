// Package reveal plays back an already complete text word by word, the way a
// streaming model would. Every submission takes a generation token; a reveal
// whose token has been superseded stops before its next write.
package reveal

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
)

// DefaultPace is the delay between two revealed words.
const DefaultPace = 100 * time.Millisecond

// ErrSuperseded is returned by Reveal when a newer submission took over.
var ErrSuperseded = errors.New("reveal superseded")

// Token identifies one submission. Tokens only increase.
type Token uint64

// Sink receives the visible output after every change.
type Sink func(text string)

type State struct {
	Words     []string
	Assembled string
	Revealing bool
}

type Controller struct {
	mu      sync.Mutex
	current Token
	state   State
	sink    Sink
	pace    time.Duration
}

type Option func(*Controller)

func WithPace(pace time.Duration) Option {
	return func(c *Controller) {
		c.pace = pace
	}
}

func New(sink Sink, opts ...Option) *Controller {
	c := &Controller{sink: sink, pace: DefaultPace}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Begin starts a new submission: it supersedes any running reveal and clears the output.
func (c *Controller) Begin() Token {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.current++
	c.state = State{}
	c.sink("")
	return c.current
}

// Cancel supersedes the running reveal without clearing what is on screen.
func (c *Controller) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current++
	c.state.Revealing = false
}

// Fail shows message in place of a result. It is a no-op for a stale token.
func (c *Controller) Fail(token Token, message string) bool {
	return c.write(token, func(s *State) {
		s.Words = nil
		s.Assembled = message
		s.Revealing = false
	})
}

// Reveal splits fullText on single spaces and shows it one word at a time,
// pausing between words. Runs of spaces produce empty words, as a plain split does.
func (c *Controller) Reveal(ctx context.Context, token Token, fullText string) error {
	words := strings.Split(fullText, " ")

	if !c.write(token, func(s *State) {
		s.Words = words
		s.Assembled = ""
		s.Revealing = true
	}) {
		return ErrSuperseded
	}

	var assembled strings.Builder
	for i, word := range words {
		if assembled.Len() > 0 {
			assembled.WriteString(" ")
		}
		assembled.WriteString(word)
		text := assembled.String()

		last := i == len(words)-1
		if !c.publish(token, text, !last) {
			return ErrSuperseded
		}
		if last {
			break
		}

		if err := c.sleep(ctx); err != nil {
			c.write(token, func(s *State) { s.Revealing = false })
			return err
		}
	}
	return nil
}

// State returns a copy of the current reveal state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.state
	s.Words = append([]string(nil), c.state.Words...)
	return s
}

func (c *Controller) Current() Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

func (c *Controller) publish(token Token, text string, revealing bool) bool {
	return c.write(token, func(s *State) {
		s.Assembled = text
		s.Revealing = revealing
	})
}

// write applies update and pushes the output to the sink only while token is current.
// The sink runs under the lock so a stale writer can never follow a newer Begin.
func (c *Controller) write(token Token, update func(*State)) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if token != c.current {
		return false
	}
	update(&c.state)
	c.sink(c.state.Assembled)
	return true
}

func (c *Controller) sleep(ctx context.Context) error {
	if c.pace <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(c.pace)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
