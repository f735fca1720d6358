package assistant

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"raspai/internal/tone"
)

// scriptedCapture replays a fixed sequence of listen results.
type listenResult struct {
	text string
	err  error
}

type scriptedCapture struct {
	script []listenResult
	calls  int
}

func (c *scriptedCapture) Listen(context.Context, time.Duration, time.Duration) (string, error) {
	if c.calls >= len(c.script) {
		return "", ErrTimeout
	}
	r := c.script[c.calls]
	c.calls++
	return r.text, r.err
}

type recordingSynth struct{ spoken []string }

func (s *recordingSynth) Speak(text string) error {
	s.spoken = append(s.spoken, text)
	return nil
}

type fakeModel struct {
	response string
	err      error
	prompts  []string
}

func (m *fakeModel) Generate(_ context.Context, prompt string) (string, error) {
	m.prompts = append(m.prompts, prompt)
	return m.response, m.err
}

type routerResult struct {
	response string
	matched  bool
	stops    bool
}

type fakeRouter struct {
	script []routerResult
	stop   func()
	calls  int
	seen   []string
}

func (r *fakeRouter) Match(_ context.Context, utterance string) (string, bool) {
	r.seen = append(r.seen, utterance)
	if r.calls >= len(r.script) {
		return "", false
	}
	res := r.script[r.calls]
	r.calls++
	if res.stops && r.stop != nil {
		r.stop()
	}
	return res.response, res.matched
}

type fakeHistory struct {
	context  string
	appended [][2]string
}

func (h *fakeHistory) Append(q, r string) { h.appended = append(h.appended, [2]string{q, r}) }

func (h *fakeHistory) FormatContext(int) string { return h.context }

type recordingTones struct{ cues []tone.Cue }

func (t *recordingTones) Play(cue tone.Cue) { t.cues = append(t.cues, cue) }

func testOptions() Options {
	return Options{
		WakeWord:         "python",
		WakeTimeout:      time.Second,
		WakePhraseLimit:  time.Second,
		QueryTimeout:     time.Second,
		QueryPhraseLimit: time.Second,
		ContextTurns:     3,
	}
}

// Two full turns: the first falls through to the model, the second is
// a matched stop command that ends the run.
func TestModelTurnAppendsHistory(t *testing.T) {
	capture := &scriptedCapture{script: []listenResult{
		{text: "hey python"},
		{text: "what is the capital of France"},
		{text: "python"},
		{text: "stop"},
	}}
	synth := &recordingSynth{}
	model := &fakeModel{response: "Paris."}
	hist := &fakeHistory{context: "Previous conversation:\nUser: hi\nAssistant: hello\n"}
	tones := &recordingTones{}

	router := &fakeRouter{script: []routerResult{
		{matched: false},
		{response: "Goodbye! Shutting down.", matched: true, stops: true},
	}}
	loop := NewLoop(testOptions(), capture, synth, model, router, hist, tones)
	router.stop = loop.Stop

	if err := loop.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(model.prompts) != 1 {
		t.Fatalf("expected one model call, got %d", len(model.prompts))
	}
	prompt := model.prompts[0]
	if !strings.Contains(prompt, "Previous conversation:") ||
		!strings.Contains(prompt, "what is the capital of France") {
		t.Fatalf("prompt missing context or query: %q", prompt)
	}
	if len(hist.appended) != 1 {
		t.Fatalf("expected one appended turn, got %d", len(hist.appended))
	}
	if hist.appended[0] != [2]string{"what is the capital of France", "Paris."} {
		t.Fatalf("unexpected turn: %v", hist.appended[0])
	}
	if synth.spoken[len(synth.spoken)-1] != "Goodbye! Shutting down." {
		t.Fatalf("stop must be acknowledged aloud, spoke %v", synth.spoken)
	}
}

func TestModelFailureIsNotPersisted(t *testing.T) {
	capture := &scriptedCapture{script: []listenResult{
		{text: "python"},
		{text: "unmatchable query"},
	}}
	synth := &recordingSynth{}
	model := &fakeModel{err: errors.New("api down")}
	hist := &fakeHistory{}
	tones := &recordingTones{}
	router := &fakeRouter{}

	loop := NewLoop(testOptions(), capture, synth, model, router, hist, tones)

	// Run exactly one turn by hand.
	ctx := context.Background()
	if !loop.awaitWake(ctx) {
		t.Fatalf("wake not detected")
	}
	query, ok := loop.captureQuery(ctx)
	if !ok {
		t.Fatalf("query not captured")
	}
	response := loop.dispatch(ctx, query)

	if len(hist.appended) != 0 {
		t.Fatalf("failed turn must not be persisted")
	}
	if response != "Sorry, I encountered an error processing your request." {
		t.Fatalf("unexpected response: %q", response)
	}
	foundError := false
	for _, cue := range tones.cues {
		if cue == tone.CueError {
			foundError = true
		}
	}
	if !foundError {
		t.Fatalf("error cue not played, cues: %v", tones.cues)
	}
}

func TestCommandBypassesModel(t *testing.T) {
	model := &fakeModel{response: "should not be called"}
	hist := &fakeHistory{}
	tones := &recordingTones{}
	router := &fakeRouter{script: []routerResult{
		{response: "The current time is 3:09 PM.", matched: true},
	}}

	loop := NewLoop(testOptions(), &scriptedCapture{}, &recordingSynth{}, model, router, hist, tones)

	response := loop.dispatch(context.Background(), "what time is it")

	if response != "The current time is 3:09 PM." {
		t.Fatalf("unexpected response: %q", response)
	}
	if len(model.prompts) != 0 {
		t.Fatalf("model must not be consulted for a matched command")
	}
	if len(hist.appended) != 0 {
		t.Fatalf("command turns are not persisted")
	}
}

func TestPromptWithoutContextIsBareQuery(t *testing.T) {
	model := &fakeModel{response: "hello"}
	hist := &fakeHistory{context: ""}
	loop := NewLoop(testOptions(), &scriptedCapture{}, &recordingSynth{}, model, &fakeRouter{}, hist, &recordingTones{})

	loop.dispatch(context.Background(), "hi there")

	if model.prompts[0] != "hi there" {
		t.Fatalf("empty context should not add framing: %q", model.prompts[0])
	}
}

func TestQueryTimeoutApology(t *testing.T) {
	capture := &scriptedCapture{script: []listenResult{
		{err: ErrTimeout},
	}}
	synth := &recordingSynth{}
	loop := NewLoop(testOptions(), capture, synth, &fakeModel{}, &fakeRouter{}, &fakeHistory{}, &recordingTones{})

	_, ok := loop.captureQuery(context.Background())
	if ok {
		t.Fatalf("timeout must not produce a query")
	}
	if len(synth.spoken) != 1 || synth.spoken[0] != "Sorry, I didn't hear anything." {
		t.Fatalf("expected timeout apology, spoke %v", synth.spoken)
	}
}

func TestNetworkErrorGetsDistinctApology(t *testing.T) {
	capture := &scriptedCapture{script: []listenResult{
		{err: ErrNetwork},
	}}
	synth := &recordingSynth{}
	loop := NewLoop(testOptions(), capture, synth, &fakeModel{}, &fakeRouter{}, &fakeHistory{}, &recordingTones{})

	_, ok := loop.captureQuery(context.Background())
	if ok {
		t.Fatalf("network error must not produce a query")
	}
	if !strings.Contains(synth.spoken[0], "network") {
		t.Fatalf("expected network apology, spoke %v", synth.spoken)
	}
}

func TestWakeIgnoresNonWakeSpeech(t *testing.T) {
	capture := &scriptedCapture{script: []listenResult{
		{text: "just some chatter"},
	}}
	loop := NewLoop(testOptions(), capture, &recordingSynth{}, &fakeModel{}, &fakeRouter{}, &fakeHistory{}, &recordingTones{})

	if loop.awaitWake(context.Background()) {
		t.Fatalf("non-wake speech must not wake the loop")
	}
}

func TestTriggerChannelCountsAsWake(t *testing.T) {
	ch := make(chan struct{}, 1)
	ch <- struct{}{}

	loop := NewLoop(testOptions(), &scriptedCapture{}, &recordingSynth{}, &fakeModel{}, &fakeRouter{}, &fakeHistory{}, &recordingTones{})
	loop.SetTrigger(ch)

	if !loop.awaitWake(context.Background()) {
		t.Fatalf("control-socket trigger must count as a wake")
	}
}
