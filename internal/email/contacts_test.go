package email

import (
	"testing"

	"github.com/spf13/afero"
)

func TestLoadBookResolves(t *testing.T) {
	fs := afero.NewMemMapFs()
	data := `{"Sharaf": "sharaf@example.com", "mother": "mom@example.com"}`
	if err := afero.WriteFile(fs, "contacts.json", []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	book := LoadBook(fs, "contacts.json")

	addr, ok := book.Resolve("sharaf")
	if !ok || addr != "sharaf@example.com" {
		t.Fatalf("lookup failed: %q %v", addr, ok)
	}

	// Spoken names arrive with arbitrary casing and whitespace.
	addr, ok = book.Resolve("  Mother ")
	if !ok || addr != "mom@example.com" {
		t.Fatalf("normalized lookup failed: %q %v", addr, ok)
	}

	if _, ok := book.Resolve("stranger"); ok {
		t.Fatalf("unknown contact should not resolve")
	}
}

func TestLoadBookMissingFile(t *testing.T) {
	book := LoadBook(afero.NewMemMapFs(), "nope.json")
	if _, ok := book.Resolve("anyone"); ok {
		t.Fatalf("empty book should resolve nothing")
	}
}

func TestLoadBookNoPath(t *testing.T) {
	book := LoadBook(afero.NewMemMapFs(), "")
	if _, ok := book.Resolve("anyone"); ok {
		t.Fatalf("unset contacts file should leave the book empty")
	}
}

func TestSenderConfigured(t *testing.T) {
	if NewSender("", "").Configured() {
		t.Fatalf("missing credentials must report unconfigured")
	}
	if !NewSender("a@b.c", "secret").Configured() {
		t.Fatalf("full credentials must report configured")
	}
}
