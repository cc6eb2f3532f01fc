package session

import (
	"log/slog"
	"math/rand/v2"
	"time"

	"mock-interview/internal/api"
	"mock-interview/internal/interviewer"
	"mock-interview/internal/metrics"
	"mock-interview/internal/prompts"
	"mock-interview/internal/questions"
	"mock-interview/internal/speech"
)

// Options - параметры интервью, которые клиент передает при подключении
type Options struct {
	Persona   prompts.Persona
	Voice     string
	Candidate prompts.Candidate
	Job       prompts.Job
}

// Factory собирает сессии с общими для сервера зависимостями
type Factory struct {
	Config       Config
	Completer    api.Completer
	ModelTimeout time.Duration
	Recognizer   speech.Recognizer
	Synthesizer  speech.Synthesizer
	Stats        *metrics.Stats
	Logger       *slog.Logger

	Bank     []string
	Layouts  []string
	Required int

	// Now и Rand подменяются в тестах
	Now  func() time.Time
	Rand func() *rand.Rand
}

// New создает сессию со своим диалогом, последовательностью вопросов и метриками
func (f *Factory) New(id string, opts Options, emitter Emitter) *Session {
	conv := api.NewConversation(f.Completer, prompts.System(opts.Persona, opts.Job, opts.Candidate), f.ModelTimeout)
	if f.Stats != nil {
		conv.OnCall = f.Stats.IncrementModelCall
	}

	builder := questions.Builder{
		Bank:     f.Bank,
		Layouts:  f.Layouts,
		Required: f.Required,
	}
	if f.Rand != nil {
		builder.Rand = f.Rand()
	}

	return New(id, opts.Voice, f.Config, Deps{
		Interviewer: interviewer.New(conv, builder, opts.Candidate),
		Recognizer:  f.Recognizer,
		Synthesizer: f.Synthesizer,
		Tracker:     metrics.NewTracker(f.Now),
		Stats:       f.Stats,
		Emitter:     emitter,
		Logger:      f.Logger,
	})
}
