package history

import (
	"encoding/json"
	"fmt"
	log "log/slog"
	"strings"
	"time"

	"github.com/spf13/afero"
)

// Turn is one persisted (query, response) pair. The JSON keys match the
// on-disk logs written by earlier deployments, so old history files
// keep loading.
type Turn struct {
	Timestamp         time.Time `json:"timestamp"`
	UserQuery         string    `json:"user_query"`
	AssistantResponse string    `json:"assistant_response"`
}

// Store is the bounded conversation log. Only the interaction loop
// writes to it, so it carries no lock. Persistence failures never
// propagate: the in-memory log stays authoritative.
type Store struct {
	fs   afero.Fs
	path string
	max  int

	turns []Turn
	now   func() time.Time
}

func New(fs afero.Fs, path string, max int) *Store {
	if max < 1 {
		max = 1
	}
	s := &Store{
		fs:   fs,
		path: path,
		max:  max,
		now:  time.Now,
	}
	s.load()
	return s
}

func (s *Store) load() {
	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		return
	}

	var turns []Turn
	if err := json.Unmarshal(data, &turns); err != nil {
		log.Warn("Failed to parse history, starting empty", "path", s.path, "err", err)
		return
	}

	if len(turns) > s.max {
		turns = turns[len(turns)-s.max:]
	}
	s.turns = turns

	log.Info("Loaded conversation history", "turns", len(s.turns))
}

func (s *Store) Append(query, response string) {
	s.turns = append(s.turns, Turn{
		Timestamp:         s.now(),
		UserQuery:         query,
		AssistantResponse: response,
	})
	if len(s.turns) > s.max {
		s.turns = s.turns[len(s.turns)-s.max:]
	}
	s.persist()
}

func (s *Store) Clear() {
	s.turns = nil
	s.persist()
}

func (s *Store) Len() int { return len(s.turns) }

// Recent returns the last k turns, oldest first.
func (s *Store) Recent(k int) []Turn {
	if k <= 0 || len(s.turns) == 0 {
		return nil
	}
	if k > len(s.turns) {
		k = len(s.turns)
	}
	out := make([]Turn, k)
	copy(out, s.turns[len(s.turns)-k:])
	return out
}

// FormatContext renders the last k turns as the text block handed to
// the language model. Pure: repeated calls with unchanged state return
// identical text.
func (s *Store) FormatContext(k int) string {
	recent := s.Recent(k)
	if len(recent) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("Previous conversation:\n")
	for _, t := range recent {
		fmt.Fprintf(&b, "User: %s\nAssistant: %s\n", t.UserQuery, t.AssistantResponse)
	}
	return b.String()
}

func (s *Store) persist() {
	turns := s.turns
	if turns == nil {
		turns = []Turn{}
	}

	data, err := json.MarshalIndent(turns, "", "  ")
	if err != nil {
		log.Error("Failed to encode history", "err", err)
		return
	}

	if err := afero.WriteFile(s.fs, s.path, data, 0o644); err != nil {
		log.Error("Failed to save history", "path", s.path, "err", err)
	}
}
