package audio

import (
	"errors"
	"math"
	"time"

	"github.com/gordonklaus/portaudio"
)

const (
	sampleRate       = 16000
	frameSize        = 320 // 20ms
	silenceThreshRMS = 0.015
	silenceDuration  = 600 * time.Millisecond
)

// ErrNoSpeech is returned when no voice activity starts before the
// listen timeout elapses.
var ErrNoSpeech = errors.New("no speech before timeout")

type Recorder struct{}

func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) Init() error {
	return portaudio.Initialize()
}

func (r *Recorder) Close() {
	portaudio.Terminate()
}

// Record waits up to timeout for speech to start, then records until
// the speaker falls silent or phraseLimit is reached. Returns mono
// float32 PCM at 16 kHz, or ErrNoSpeech when nothing was said.
func (r *Recorder) Record(timeout, phraseLimit time.Duration) ([]float32, error) {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if phraseLimit <= 0 {
		phraseLimit = 15 * time.Second
	}

	buf := make([]float32, frameSize)
	out := make([]float32, 0, sampleRate*3)

	stream, err := portaudio.OpenDefaultStream(1, 0, sampleRate, len(buf), buf)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return nil, err
	}
	defer stream.Stop()

	var (
		speaking      bool
		silenceFrames int
	)

	const frameDur = 20 * time.Millisecond
	waitDeadline := time.Now().Add(timeout)
	var phraseDeadline time.Time

	for {
		now := time.Now()
		if !speaking && now.After(waitDeadline) {
			return nil, ErrNoSpeech
		}
		if speaking && now.After(phraseDeadline) {
			break
		}

		if err := stream.Read(); err != nil {
			return nil, err
		}

		rms := frameRMS(buf)

		if rms > silenceThreshRMS {
			if !speaking {
				speaking = true
				phraseDeadline = time.Now().Add(phraseLimit)
			}
			silenceFrames = 0
			out = append(out, buf...)
			continue
		}

		if speaking {
			silenceFrames++
			if time.Duration(silenceFrames)*frameDur >= silenceDuration {
				break
			}
			out = append(out, buf...)
		}
	}

	if len(out) == 0 {
		return nil, ErrNoSpeech
	}
	return out, nil
}

func frameRMS(f []float32) float64 {
	var s float64
	for _, x := range f {
		s += float64(x * x)
	}
	return math.Sqrt(s / float64(len(f)))
}
