package email

import (
	"encoding/json"
	log "log/slog"
	"strings"

	"github.com/spf13/afero"
)

// Book maps spoken contact names to email addresses, loaded from a
// JSON object file ({"name": "address", ...}). Lookups are
// case-insensitive on the name.
type Book struct {
	contacts map[string]string
}

func LoadBook(fs afero.Fs, path string) *Book {
	b := &Book{contacts: make(map[string]string)}
	if path == "" {
		return b
	}

	data, err := afero.ReadFile(fs, path)
	if err != nil {
		log.Warn("Failed to read contacts file", "path", path, "err", err)
		return b
	}

	var contacts map[string]string
	if err := json.Unmarshal(data, &contacts); err != nil {
		log.Warn("Failed to parse contacts file", "path", path, "err", err)
		return b
	}

	for name, addr := range contacts {
		b.contacts[strings.ToLower(strings.TrimSpace(name))] = addr
	}

	log.Info("Loaded contact book", "contacts", len(b.contacts))
	return b
}

func (b *Book) Resolve(name string) (string, bool) {
	addr, ok := b.contacts[strings.ToLower(strings.TrimSpace(name))]
	return addr, ok
}
