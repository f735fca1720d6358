package assistant

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"strings"
	"time"

	"raspai/internal/tone"
)

// Options are the loop's tunables, resolved from the environment by the
// caller.
type Options struct {
	WakeWord         string
	WakeTimeout      time.Duration
	WakePhraseLimit  time.Duration
	QueryTimeout     time.Duration
	QueryPhraseLimit time.Duration
	ContextTurns     int
}

// Loop is the interaction state machine. It is strictly sequential:
// capture and synthesis block it, and exactly one State is active at a
// time. Tones and timer callbacks run on their own goroutines and never
// feed back into loop state.
type Loop struct {
	opts Options

	capture Capture
	synth   Synthesizer
	model   Generator
	router  Router
	history History
	tones   Signaler

	ducker   Ducker
	trigger  <-chan struct{}
	observer func(Event)

	// running is owned by the loop goroutine: read at the top of each
	// iteration, cleared only through Stop during dispatch.
	running bool
	state   State
}

func NewLoop(opts Options, capture Capture, synth Synthesizer, model Generator, router Router, history History, tones Signaler) *Loop {
	if opts.ContextTurns <= 0 {
		opts.ContextTurns = 3
	}
	return &Loop{
		opts:    opts,
		capture: capture,
		synth:   synth,
		model:   model,
		router:  router,
		history: history,
		tones:   tones,
		running: true,
	}
}

// SetDucker installs output ducking around query capture.
func (l *Loop) SetDucker(d Ducker) { l.ducker = d }

// SetTrigger installs a channel whose sends count as wake events, used
// by the ipc control socket.
func (l *Loop) SetTrigger(ch <-chan struct{}) { l.trigger = ch }

// SetObserver installs a turn-event callback. The callback must not
// block; the bus adapter buffers and drops on overflow.
func (l *Loop) SetObserver(fn func(Event)) { l.observer = fn }

// Stop clears the running flag. It is handed to the command router and
// invoked synchronously during dispatch, so the turn that requested the
// shutdown is still spoken before the loop exits.
func (l *Loop) Stop() { l.running = false }

func (l *Loop) Run(ctx context.Context) error {
	log.Info("Assistant started", "wake_word", l.opts.WakeWord)

	for l.running {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		l.state = AwaitingWake
		if !l.awaitWake(ctx) {
			continue
		}
		l.tones.Play(tone.CueWake)

		l.state = CapturingQuery
		query, ok := l.captureQuery(ctx)
		if !ok {
			continue
		}

		l.state = Dispatching
		response := l.dispatch(ctx, query)

		l.state = Speaking
		l.speak(response)
		l.publish(Event{Kind: "turn", Query: query, Response: response})
	}

	log.Info("Assistant shutting down")
	return nil
}

// awaitWake polls for the wake phrase. Timeouts and unrecognized audio
// are the steady state here: no user-visible error, just keep polling.
func (l *Loop) awaitWake(ctx context.Context) bool {
	select {
	case <-l.trigger:
		log.Info("Wake triggered via control socket")
		return true
	default:
	}

	text, err := l.capture.Listen(ctx, l.opts.WakeTimeout, l.opts.WakePhraseLimit)
	if err != nil {
		if !errors.Is(err, ErrTimeout) && !errors.Is(err, ErrUnrecognized) {
			log.Warn("Wake listen failed", "err", err)
		}
		return false
	}

	if !strings.Contains(strings.ToLower(text), l.opts.WakeWord) {
		return false
	}

	log.Info("Wake word detected", "heard", text)
	return true
}

func (l *Loop) captureQuery(ctx context.Context) (string, bool) {
	l.tones.Play(tone.CueListening)

	if l.ducker != nil {
		l.ducker.Duck(ctx)
		defer l.ducker.Restore(ctx)
	}

	query, err := l.capture.Listen(ctx, l.opts.QueryTimeout, l.opts.QueryPhraseLimit)
	switch {
	case err == nil:
		log.Info("Query captured", "query", query)
		return query, true
	case errors.Is(err, ErrTimeout):
		l.speak("Sorry, I didn't hear anything.")
	case errors.Is(err, ErrUnrecognized):
		l.speak("Sorry, I didn't understand that.")
	case errors.Is(err, ErrNetwork):
		l.speak("Sorry, I couldn't process that. Check your network connection.")
	default:
		log.Error("Query listen failed", "err", err)
		l.tones.Play(tone.CueError)
		l.speak("Sorry, something went wrong.")
	}
	return "", false
}

// dispatch resolves a query: built-in commands first, then the model.
// A model failure is never written to the history.
func (l *Loop) dispatch(ctx context.Context, query string) string {
	if response, ok := l.router.Match(ctx, query); ok {
		return response
	}

	l.tones.Play(tone.CueProcessing)

	prompt := query
	if history := l.history.FormatContext(l.opts.ContextTurns); history != "" {
		prompt = fmt.Sprintf("%s\nUser's new question: %s\nRespond to the last question only.", history, query)
	}

	response, err := l.model.Generate(ctx, prompt)
	if err != nil {
		log.Error("Model call failed", "err", err)
		l.tones.Play(tone.CueError)
		return "Sorry, I encountered an error processing your request."
	}

	l.history.Append(query, response)
	return response
}

func (l *Loop) speak(text string) {
	if text == "" {
		return
	}
	l.tones.Play(tone.CueResponse)
	if err := l.synth.Speak(text); err != nil {
		log.Error("Failed to voice out", "err", err)
	}
}

func (l *Loop) publish(ev Event) {
	if l.observer != nil {
		l.observer(ev)
	}
}
