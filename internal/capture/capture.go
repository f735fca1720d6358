package capture

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"strings"
	"time"

	"raspai/internal/assistant"
	"raspai/internal/audio"
	"raspai/pkg/stt"
)

// Mic implements the loop's speech-capture collaborator: a portaudio
// recording window followed by local whisper transcription.
type Mic struct {
	rec *audio.Recorder
	tr  *stt.Transcriber
}

func NewMic(rec *audio.Recorder, tr *stt.Transcriber) *Mic {
	return &Mic{rec: rec, tr: tr}
}

func (m *Mic) Listen(ctx context.Context, timeout, phraseLimit time.Duration) (string, error) {
	pcm, err := m.rec.Record(timeout, phraseLimit)
	if err != nil {
		if errors.Is(err, audio.ErrNoSpeech) {
			return "", assistant.ErrTimeout
		}
		return "", fmt.Errorf("record: %w", err)
	}

	log.Debug("Recorded", "samples", len(pcm))

	text, err := m.tr.TranscribePCM(ctx, pcm, stt.Options{Language: "en"})
	if err != nil {
		return "", fmt.Errorf("transcribe: %w", err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", assistant.ErrUnrecognized
	}

	log.Debug("Transcribed", "text", text)
	return text, nil
}
