// Package stream assembles incremental model output from an event stream and
// replays complete text with a simulated typing effect. Both paths drive the
// same Observer contract, so callers cannot tell which one produced the
// callbacks.
package stream

import "strings"

// Observer receives fragments of a response as they are produced.
//
// runningText is the concatenation of every fragment delivered so far,
// including fragment itself; it strictly extends the previous call's value.
// Returning an error aborts the stream and the error is returned to the
// caller of Run.
type Observer interface {
	OnFragment(fragment, runningText string) error
}

// ObserverFunc adapts an ordinary function to the Observer interface.
type ObserverFunc func(fragment, runningText string) error

// OnFragment calls f(fragment, runningText).
func (f ObserverFunc) OnFragment(fragment, runningText string) error {
	return f(fragment, runningText)
}

type nopObserver struct{}

func (nopObserver) OnFragment(string, string) error { return nil }

// State is the running text of a single response. It is owned by one Run
// call, only ever appended to, and frozen once closed.
type State struct {
	text   strings.Builder
	closed bool
}

// Text returns the text accumulated so far.
func (s *State) Text() string {
	return s.text.String()
}

// Closed reports whether the state has been finalized.
func (s *State) Closed() bool {
	return s.closed
}

func (s *State) append(fragment string) {
	if s.closed {
		return
	}
	s.text.WriteString(fragment)
}

func (s *State) close() string {
	s.closed = true
	return s.text.String()
}
