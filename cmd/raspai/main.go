package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	cli "github.com/spf13/pflag"

	"github.com/lmittmann/tint"
	log "log/slog"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/spf13/afero"

	"raspai/internal/assistant"
	"raspai/internal/audio"
	"raspai/internal/bus"
	"raspai/internal/capture"
	"raspai/internal/commands"
	"raspai/internal/config"
	"raspai/internal/email"
	"raspai/internal/history"
	"raspai/internal/ipc"
	"raspai/internal/llm"
	"raspai/internal/proxy"
	"raspai/internal/timer"
	"raspai/internal/tone"
	"raspai/internal/tts"
	"raspai/internal/weather"
	"raspai/pkg/audioconv"
	"raspai/pkg/stt"
)

var logLevelMap = map[string]log.Level{
	"debug": log.LevelDebug,
	"info":  log.LevelInfo,
	"warn":  log.LevelWarn,
	"error": log.LevelError,
}

func main() {
	envFile := cli.StringP("env", "e", ".env", "Env file path")
	proxyAddr := cli.StringP("proxy", "p", "", "Socks proxy address (empty = direct)")
	logLevel := cli.StringP("log", "l", "info", "Log level")
	cli.Parse()

	log.SetDefault(log.New(tint.NewHandler(os.Stdout, &tint.Options{
		Level: logLevelMap[*logLevel],
	})))

	log.Info("Booting up")

	godotenv.Load(*envFile)
	cfg := config.Load()

	if cfg.OpenAIKey == "" {
		log.Error("OPENAI_API_KEY not set")
		os.Exit(1)
	}

	httpClient, err := proxy.NewSocksClient(*proxyAddr, 120*time.Second)
	if err != nil {
		log.Error("Failed to dial socks proxy", "proxy", *proxyAddr, "err", err)
		os.Exit(1)
	}

	api := openai.NewClient(
		option.WithAPIKey(cfg.OpenAIKey),
		option.WithHTTPClient(httpClient),
	)
	model := llm.NewClient(api, cfg.OpenAIModel)

	rec := audio.NewRecorder()
	if err := rec.Init(); err != nil {
		log.Error("Failed to init audio", "err", err)
		os.Exit(1)
	}
	defer rec.Close()

	whisper, err := stt.NewTranscriber(cfg.WhisperPath)
	if err != nil {
		log.Error("Failed to init whisper", "model", cfg.WhisperPath, "err", err)
		os.Exit(1)
	}
	defer whisper.Close()

	mic := capture.NewMic(rec, whisper)
	synth := tts.NewSynth("en")

	tones := tone.NewSignaler()
	loadChimes(tones, cfg.ChimeDir)

	fs := afero.NewOsFs()
	hist := history.New(fs, cfg.HistoryFile, cfg.MaxHistory)
	timers := timer.NewScheduler()
	contacts := email.LoadBook(fs, cfg.ContactsFile)

	var loop *assistant.Loop

	router := commands.NewRouter(commands.Deps{
		Weather:  weather.NewClient(httpClient, cfg.WeatherKey),
		City:     cfg.City,
		Mailer:   email.NewSender(cfg.GmailUser, cfg.GmailPassword),
		Contacts: contacts,
		Dialog: &spokenDialog{
			synth:   synth,
			mic:     mic,
			timeout: cfg.QueryTimeout,
			limit:   cfg.QueryPhraseLimit,
		},
		History: hist,
		Timers:  timers,
		Stop:    func() { loop.Stop() },
		TimerDone: func() {
			synth.Speak("Timer finished.")
			tones.Play(tone.CueWake)
		},
	})

	loop = assistant.NewLoop(assistant.Options{
		WakeWord:         cfg.WakeWord,
		WakeTimeout:      cfg.WakeTimeout,
		WakePhraseLimit:  cfg.WakePhraseLimit,
		QueryTimeout:     cfg.QueryTimeout,
		QueryPhraseLimit: cfg.QueryPhraseLimit,
		ContextTurns:     cfg.ContextTurns,
	}, mic, synth, model, router, hist, tones)
	loop.SetDucker(audio.NewDucker(0.3))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	trigger := make(chan struct{}, 1)
	loop.SetTrigger(trigger)

	if err := ipc.StartServer(func(msg ipc.ControlMessage) {
		switch msg.Cmd {
		case "trigger":
			select {
			case trigger <- struct{}{}:
			default:
			}
		case "stop":
			cancel()
		case "clear":
			hist.Clear()
		case "say":
			if err := synth.Speak(msg.Text); err != nil {
				log.Error("Failed to voice out", "err", err)
			}
		default:
			log.Warn("Unknown command", "cmd", msg.Cmd)
		}
	}); err != nil {
		log.Error("Failed ipc server", "err", err)
		os.Exit(1)
	}

	if cfg.BusURL != "" {
		hub, err := bus.Connect(cfg.BusURL)
		if err != nil {
			log.Warn("Bus unavailable, running standalone", "url", cfg.BusURL, "err", err)
		} else {
			loop.SetObserver(func(ev assistant.Event) {
				hub.Publish(ev.Kind, ev.Query, ev.Response)
			})
		}
	}

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		cancel()
	}()

	log.Info("Boot up - successful")

	if err := loop.Run(ctx); err != nil && err != context.Canceled {
		log.Error("Loop failed", "err", err)
		os.Exit(1)
	}
}

// loadChimes swaps synthesized cues for sound files found in dir
// (<cue>.wav/.mp3/.ogg).
func loadChimes(tones *tone.Signaler, dir string) {
	if dir == "" {
		return
	}

	cues := map[string]tone.Cue{
		"wake":       tone.CueWake,
		"listening":  tone.CueListening,
		"processing": tone.CueProcessing,
		"response":   tone.CueResponse,
		"error":      tone.CueError,
	}

	for name, cue := range cues {
		for _, ext := range []string{".wav", ".mp3", ".ogg"} {
			path := filepath.Join(dir, name+ext)
			if _, err := os.Stat(path); err != nil {
				continue
			}
			pcm, err := audioconv.DecodeFile(path)
			if err != nil {
				log.Warn("Failed to decode chime", "path", path, "err", err)
				continue
			}
			tones.LoadChime(cue, pcm.Samples, pcm.Rate)
			log.Debug("Loaded chime", "cue", name, "path", path)
			break
		}
	}
}

// spokenDialog lets multi-step commands (email) prompt the user and
// capture the reply through the same speech stack the loop uses.
type spokenDialog struct {
	synth   *tts.Synth
	mic     *capture.Mic
	timeout time.Duration
	limit   time.Duration
}

func (d *spokenDialog) Speak(text string) error {
	return d.synth.Speak(text)
}

func (d *spokenDialog) Listen(ctx context.Context) (string, error) {
	text, err := d.mic.Listen(ctx, d.timeout, d.limit)
	if err != nil {
		return "", fmt.Errorf("dialog listen: %w", err)
	}
	return text, nil
}
