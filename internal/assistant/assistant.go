package assistant

import (
	"context"
	"errors"
	"time"

	"raspai/internal/tone"
)

// Capture error taxonomy. Timeout and Unrecognized are steady-state in
// wake polling; Network gets its own spoken message so the user can
// tell connectivity from comprehension.
var (
	ErrTimeout      = errors.New("capture: timed out waiting for speech")
	ErrUnrecognized = errors.New("capture: speech not recognized")
	ErrNetwork      = errors.New("capture: network error")
)

// Capture listens on the microphone and returns the recognized text.
// Blocking from the loop's perspective; timeout bounds the wait for
// speech to start, phraseLimit bounds the utterance itself.
type Capture interface {
	Listen(ctx context.Context, timeout, phraseLimit time.Duration) (string, error)
}

// Synthesizer speaks text aloud. Blocking; runs to completion once
// started.
type Synthesizer interface {
	Speak(text string) error
}

// Generator produces a conversational reply for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Signaler plays non-blocking feedback cues.
type Signaler interface {
	Play(cue tone.Cue)
}

// Router matches an utterance against the built-in command table.
type Router interface {
	Match(ctx context.Context, utterance string) (string, bool)
}

// History is the bounded conversation log the loop appends to.
type History interface {
	Append(query, response string)
	FormatContext(k int) string
}

// Ducker lowers other audio output while the assistant is capturing a
// query. Optional; a nil ducker is skipped.
type Ducker interface {
	Duck(ctx context.Context)
	Restore(ctx context.Context)
}

// State is the loop's phase. Exactly one is active at a time; the loop
// alone reads and writes it.
type State int

const (
	AwaitingWake State = iota
	CapturingQuery
	Dispatching
	Speaking
)

func (s State) String() string {
	switch s {
	case AwaitingWake:
		return "awaiting_wake"
	case CapturingQuery:
		return "capturing_query"
	case Dispatching:
		return "dispatching"
	case Speaking:
		return "speaking"
	}
	return "unknown"
}

// Event is published to the observer after each completed turn.
type Event struct {
	Kind     string `json:"kind"`
	Query    string `json:"query,omitempty"`
	Response string `json:"response,omitempty"`
}
