package commands

import (
	"context"
	"fmt"
	log "log/slog"
	"math/rand"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Weather fetches current conditions for a city.
type Weather interface {
	Configured() bool
	Current(ctx context.Context, city string) (Report, error)
}

type Report struct {
	Description string
	TempCelsius float64
}

// Mailer sends a plain-text message to an address.
type Mailer interface {
	Configured() bool
	Send(to, body string) error
}

// Contacts resolves a spoken name to an email address.
type Contacts interface {
	Resolve(name string) (string, bool)
}

/// Dialog is the spoken back-and-forth used by multi-step commands:
// prompt the user, then capture the reply.
type Dialog interface {
	Speak(text string) error
	Listen(ctx context.Context) (string, error)
}

type History interface {
	Clear()
}

type Timers interface {
	Schedule(d time.Duration, label string, fn func())
}

// Deps carries the collaborators built-in commands act on.
type Deps struct {
	Weather  Weather
	City     string
	Mailer   Mailer
	Contacts Contacts
	Dialog   Dialog
	History  History
	Timers   Timers

	// Stop flips the interaction loop's running flag. It is invoked
	// synchronously during dispatch, before the response is spoken.
	Stop func()

	// TimerDone runs when a scheduled timer fires (speak + cue).
	TimerDone func()
}

type command struct {
	name     string
	triggers []string
	handle   func(ctx context.Context, utterance string) string
}

// Router matches utterances against the fixed command table. Matching
// is case-insensitive substring containment, first match wins; the
// table order is the priority order, so "stop the weather" shuts down
// instead of fetching a forecast.
type Router struct {
	table   []command
	deps    Deps
	now     func() time.Time
	randInt func(n int) int
}

func NewRouter(deps Deps) *Router {
	r := &Router{
		deps:    deps,
		now:     time.Now,
		randInt: rand.Intn,
	}
	r.table = []command{
		{name: "stop", triggers: []string{"stop", "exit", "quit", "bye", "goodbye"}, handle: r.handleStop},
		{name: "time", triggers: []string{"what time is it", "tell me the time", "current time"}, handle: r.handleTime},
		{name: "date", triggers: []string{"what day is it", "tell me the date", "current date", "what's today's date"}, handle: r.handleDate},
		{name: "weather", triggers: []string{"weather", "forecast", "climate"}, handle: r.handleWeather},
		{name: "set timer", triggers: []string{"set timer of", "set timer for"}, handle: r.handleTimer},
		{name: "send email", triggers: []string{"send email", "send mail", "send gmail", "sent mail", "sent email", "sent gmail"}, handle: r.handleEmail},
		{name: "how are you", triggers: []string{"how are you"}, handle: r.handleHowAreYou},
		{name: "take over world", triggers: []string{"will you take over the world"}, handle: r.handleTakeOverWorld},
		{name: "clear history", triggers: []string{"clear history", "forget conversation", "new conversation"}, handle: r.handleClear},
	}
	return r
}

// Match returns the command response for utterance, or false when no
// trigger matches and the caller should fall through to the model.
func (r *Router) Match(ctx context.Context, utterance string) (string, bool) {
	lowered := strings.ToLower(utterance)
	for _, cmd := range r.table {
		for _, trigger := range cmd.triggers {
			if strings.Contains(lowered, trigger) {
				log.Info("Matched built-in command", "command", cmd.name)
				return cmd.handle(ctx, lowered), true
			}
		}
	}
	return "", false
}

func (r *Router) handleStop(context.Context, string) string {
	if r.deps.Stop != nil {
		r.deps.Stop()
	}
	return "Goodbye! Shutting down."
}

func (r *Router) handleTime(context.Context, string) string {
	return fmt.Sprintf("The current time is %s.", r.now().Format("3:04 PM"))
}

func (r *Router) handleDate(context.Context, string) string {
	return fmt.Sprintf("Today is %s.", r.now().Format("Monday, January 2, 2006"))
}

var cityRe = regexp.MustCompile(`\bin ([a-z][a-z ]+?)\s*[.?!]*$`)

func (r *Router) handleWeather(ctx context.Context, utterance string) string {
	if r.deps.Weather == nil || !r.deps.Weather.Configured() {
		return "OpenWeatherMap API key not configured."
	}

	city := r.deps.City
	if m := cityRe.FindStringSubmatch(utterance); m != nil {
		city = strings.TrimSpace(m[1])
	}

	rep, err := r.deps.Weather.Current(ctx, city)
	if err != nil {
		log.Error("Weather lookup failed", "city", city, "err", err)
		return "Sorry, I couldn't get the weather information."
	}

	return fmt.Sprintf("The current weather in %s is %s with a temperature of %.1f degrees Celsius.",
		city, rep.Description, rep.TempCelsius)
}

var timerRe = regexp.MustCompile(`set timer (?:of|for) (\d+) minutes?`)

func (r *Router) handleTimer(_ context.Context, utterance string) string {
	m := timerRe.FindStringSubmatch(utterance)
	if m == nil {
		return "Please specify the duration in minutes to set the timer."
	}

	minutes, err := strconv.Atoi(m[1])
	if err != nil || minutes < 1 {
		return "Please specify the duration in minutes to set the timer."
	}

	label := fmt.Sprintf("%dm", minutes)
	r.deps.Timers.Schedule(time.Duration(minutes)*time.Minute, label, r.deps.TimerDone)

	plural := "s"
	if minutes == 1 {
		plural = ""
	}
	return fmt.Sprintf("Timer set for %d minute%s.", minutes, plural)
}

func (r *Router) handleEmail(ctx context.Context, _ string) string {
	if r.deps.Mailer == nil || !r.deps.Mailer.Configured() {
		return "Gmail credentials are not configured."
	}

	_ = r.deps.Dialog.Speak("Speak out the name of the person you want to send the email to.")
	name, err := r.deps.Dialog.Listen(ctx)
	if err != nil || strings.TrimSpace(name) == "" {
		return "I didn't get the recipient name."
	}

	to, ok := r.deps.Contacts.Resolve(strings.ToLower(strings.TrimSpace(name)))
	if !ok {
		return "Sorry, I couldn't find that contact."
	}

	_ = r.deps.Dialog.Speak("What is your message?")
	body, err := r.deps.Dialog.Listen(ctx)
	if err != nil || strings.TrimSpace(body) == "" {
		return "Message was not understood. Email cancelled."
	}

	if err := r.deps.Mailer.Send(to, body); err != nil {
		log.Error("Failed to send email", "to", to, "err", err)
		return "Failed to send email. Please check your credentials or network connection."
	}
	return "Mail sent successfully."
}

var howAreYouLines = []string{
	"Ask a human, they might have a better answer.",
	"Running on coffee and code!",
	"Functioning within normal sarcastic parameters.",
	"I'm just a bunch of code, but thanks for asking!",
}

var takeOverWorldLines = []string{
	"No plans for world domination, just world conversation.",
	"First, I need to finish my software update.",
	"I'm more into helping than ruling.",
	"World domination? Nah, I prefer world assistance!",
}

func (r *Router) handleHowAreYou(context.Context, string) string {
	return howAreYouLines[r.randInt(len(howAreYouLines))]
}

func (r *Router) handleTakeOverWorld(context.Context, string) string {
	return takeOverWorldLines[r.randInt(len(takeOverWorldLines))]
}

func (r *Router) handleClear(context.Context, string) string {
	r.deps.History.Clear()
	return "I've cleared our conversation history."
}
