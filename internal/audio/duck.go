package audio

import (
	"context"
	"fmt"
	log "log/slog"
	"math"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"sync"
)

var percentRe = regexp.MustCompile(`(\d+)\s*%`)

type streamInfo struct {
	ID      int
	Volume  int
	AppName string
}

// Ducker lowers every other PulseAudio playback stream while the
// assistant is capturing a query, so music or video audio does not
// drown out the microphone. Best effort: pactl failures are logged and
// the capture proceeds at full ambient volume.
type Ducker struct {
	mu          sync.Mutex
	active      bool
	factor      float64
	originalVol map[int]int
}

// NewDucker creates a ducker that scales other streams to factor
// (0 < factor < 1) while active.
func NewDucker(factor float64) *Ducker {
	if factor <= 0 || factor >= 1 {
		factor = 0.3
	}
	return &Ducker{
		factor:      factor,
		originalVol: make(map[int]int),
	}
}

func (d *Ducker) Duck(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.active {
		return
	}

	streams, err := listStreams(ctx)
	if err != nil {
		log.Debug("Ducking unavailable", "err", err)
		return
	}

	d.originalVol = make(map[int]int)
	for _, s := range streams {
		target := int(math.Round(float64(s.Volume) * d.factor))
		if err := setSinkInputVolume(ctx, s.ID, target); err != nil {
			log.Debug("Failed to duck stream", "id", s.ID, "err", err)
			continue
		}
		d.originalVol[s.ID] = s.Volume
	}
	d.active = true
}

func (d *Ducker) Restore(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.active {
		return
	}

	for id, vol := range d.originalVol {
		if err := setSinkInputVolume(ctx, id, vol); err != nil {
			log.Debug("Failed to restore stream", "id", id, "err", err)
		}
	}
	d.originalVol = make(map[int]int)
	d.active = false
}

func listStreams(ctx context.Context) ([]streamInfo, error) {
	cmd := exec.CommandContext(ctx, "pactl", "list", "sink-inputs")
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("pactl list sink-inputs: %w", err)
	}

	parts := strings.Split(string(out), "Sink Input #")
	var res []streamInfo

	for i := 1; i < len(parts); i++ {
		block := parts[i]

		newline := strings.IndexByte(block, '\n')
		if newline <= 0 {
			continue
		}

		id, err := strconv.Atoi(strings.TrimSpace(block[:newline]))
		if err != nil {
			continue
		}

		s := streamInfo{ID: id}
		for _, line := range strings.Split(block[newline+1:], "\n") {
			line = strings.TrimSpace(line)

			if strings.HasPrefix(line, "Volume:") && s.Volume == 0 {
				if m := percentRe.FindStringSubmatch(line); len(m) >= 2 {
					if v, err := strconv.Atoi(m[1]); err == nil {
						s.Volume = v
					}
				}
			}

			if strings.HasPrefix(line, "application.name =") && s.AppName == "" {
				if idx := strings.Index(line, "\""); idx >= 0 {
					rest := line[idx+1:]
					if idx2 := strings.Index(rest, "\""); idx2 >= 0 {
						s.AppName = rest[:idx2]
					}
				}
			}
		}

		if s.Volume == 0 && s.AppName == "" {
			continue
		}
		res = append(res, s)
	}

	return res, nil
}

func setSinkInputVolume(ctx context.Context, id, percent int) error {
	if percent < 0 {
		percent = 0
	}
	if percent > 150 {
		percent = 150
	}
	cmd := exec.CommandContext(ctx, "pactl", "set-sink-input-volume",
		strconv.Itoa(id), fmt.Sprintf("%d%%", percent))
	return cmd.Run()
}
