package tone

import (
	log "log/slog"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/effects"
	"github.com/faiface/beep/generators"
	"github.com/faiface/beep/speaker"
)

type Cue int

const (
	CueWake Cue = iota
	CueListening
	CueProcessing
	CueResponse
	CueError
)

func (c Cue) String() string {
	switch c {
	case CueWake:
		return "wake"
	case CueListening:
		return "listening"
	case CueProcessing:
		return "processing"
	case CueResponse:
		return "response"
	case CueError:
		return "error"
	}
	return "unknown"
}

type segment struct {
	freq int
	dur  time.Duration
	gap  time.Duration // silence after the segment
}

// cueSegments maps each cue to its tone sequence.
var cueSegments = map[Cue][]segment{
	CueWake: {
		{freq: 440, dur: 100 * time.Millisecond, gap: 100 * time.Millisecond},
		{freq: 523, dur: 100 * time.Millisecond, gap: 100 * time.Millisecond},
		{freq: 659, dur: 100 * time.Millisecond},
	},
	CueListening:  {{freq: 587, dur: 200 * time.Millisecond}},
	CueProcessing: {{freq: 440, dur: 100 * time.Millisecond}},
	CueResponse: {
		{freq: 659, dur: 100 * time.Millisecond, gap: 100 * time.Millisecond},
		{freq: 523, dur: 100 * time.Millisecond, gap: 100 * time.Millisecond},
		{freq: 440, dur: 100 * time.Millisecond},
	},
	CueError: {{freq: 220, dur: 300 * time.Millisecond}},
}

const sampleRate = beep.SampleRate(44100)

// Signaler plays short feedback cues through the speaker mixer. Play is
// fire-and-forget: the mixer runs on its own goroutine and concurrent
// cues simply overlap. If the audio device cannot be opened the
// signaler stays disabled and Play degrades to a no-op.
type Signaler struct {
	enabled bool
	chimes  map[Cue]*beep.Buffer
}

func NewSignaler() *Signaler {
	s := &Signaler{chimes: make(map[Cue]*beep.Buffer)}

	if err := speaker.Init(sampleRate, sampleRate.N(time.Second/10)); err != nil {
		log.Warn("Audio device unavailable, cues disabled", "err", err)
		return s
	}
	s.enabled = true
	return s
}

// LoadChime replaces the synthesized sequence for cue with prerecorded
// PCM (mono, pcmRate Hz, samples in [-1, 1]).
func (s *Signaler) LoadChime(cue Cue, pcm []float32, pcmRate int) {
	if !s.enabled || len(pcm) == 0 {
		return
	}

	buf := beep.NewBuffer(beep.Format{SampleRate: sampleRate, NumChannels: 2, Precision: 2})
	buf.Append(beep.Resample(4, beep.SampleRate(pcmRate), sampleRate, &pcmStreamer{samples: pcm}))
	s.chimes[cue] = buf
}

func (s *Signaler) Play(cue Cue) {
	if !s.enabled {
		return
	}

	if buf, ok := s.chimes[cue]; ok {
		speaker.Play(buf.Streamer(0, buf.Len()))
		return
	}

	segs, ok := cueSegments[cue]
	if !ok {
		return
	}

	parts := make([]beep.Streamer, 0, 2*len(segs))
	for _, seg := range segs {
		sine, err := generators.SinTone(sampleRate, seg.freq)
		if err != nil {
			log.Warn("Failed to synthesize cue", "cue", cue.String(), "err", err)
			return
		}
		parts = append(parts, beep.Take(sampleRate.N(seg.dur), &effects.Gain{
			Streamer: sine,
			Gain:     -0.5,
		}))
		if seg.gap > 0 {
			parts = append(parts, beep.Silence(sampleRate.N(seg.gap)))
		}
	}

	speaker.Play(beep.Seq(parts...))
}

// pcmStreamer adapts mono float32 PCM to a beep.Streamer.
type pcmStreamer struct {
	samples []float32
	pos     int
}

func (p *pcmStreamer) Stream(out [][2]float64) (int, bool) {
	if p.pos >= len(p.samples) {
		return 0, false
	}
	n := 0
	for i := range out {
		if p.pos >= len(p.samples) {
			break
		}
		v := float64(p.samples[p.pos])
		out[i][0], out[i][1] = v, v
		p.pos++
		n++
	}
	return n, true
}

func (p *pcmStreamer) Err() error { return nil }
