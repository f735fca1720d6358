package config

import (
	"os"
	"strconv"
	"time"
)

// Config collects every runtime setting of the assistant. Values come
// from the environment (after godotenv has loaded the env file); each
// field falls back to the reference default when unset.
type Config struct {
	WakeWord         string
	WakeTimeout      time.Duration
	WakePhraseLimit  time.Duration
	QueryTimeout     time.Duration
	QueryPhraseLimit time.Duration

	HistoryFile  string
	MaxHistory   int
	ContextTurns int

	City         string
	ChimeDir     string
	ContactsFile string
	BusURL       string

	OpenAIKey   string
	OpenAIModel string
	WhisperPath string

	WeatherKey    string
	GmailUser     string
	GmailPassword string
}

func Load() Config {
	return Config{
		WakeWord:         getenv("RASPAI_WAKE_WORD", "python"),
		WakeTimeout:      getenvDuration("RASPAI_WAKE_TIMEOUT", 5*time.Second),
		WakePhraseLimit:  getenvDuration("RASPAI_WAKE_PHRASE_LIMIT", 3*time.Second),
		QueryTimeout:     getenvDuration("RASPAI_QUERY_TIMEOUT", 7*time.Second),
		QueryPhraseLimit: getenvDuration("RASPAI_QUERY_PHRASE_LIMIT", 15*time.Second),

		HistoryFile:  getenv("RASPAI_HISTORY_FILE", "conversation_history.json"),
		MaxHistory:   getenvInt("RASPAI_MAX_HISTORY", 10),
		ContextTurns: getenvInt("RASPAI_CONTEXT_TURNS", 3),

		City:         getenv("RASPAI_CITY", "London"),
		ChimeDir:     os.Getenv("RASPAI_CHIME_DIR"),
		ContactsFile: os.Getenv("RASPAI_CONTACTS_FILE"),
		BusURL:       os.Getenv("RASPAI_BUS_URL"),

		OpenAIKey:   os.Getenv("OPENAI_API_KEY"),
		OpenAIModel: getenv("OPENAI_MODEL", "gpt-5-nano"),
		WhisperPath: getenv("WHISPER_MODEL", "third_party/whisper.cpp/models/ggml-base.en.bin"),

		WeatherKey:    os.Getenv("OPENWEATHERMAP_API_KEY"),
		GmailUser:     os.Getenv("GMAIL_USER"),
		GmailPassword: os.Getenv("GMAIL_APP_PASSWORD"),
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func getenvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
