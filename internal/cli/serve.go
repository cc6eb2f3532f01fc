package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"mock-interview/internal/api"
	"mock-interview/internal/config"
	"mock-interview/internal/metrics"
	"mock-interview/internal/prompts"
	"mock-interview/internal/session"
	"mock-interview/internal/speech"
	"mock-interview/internal/transport"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Запустить websocket сервер интервью",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	appCfg, interviewCfg, err := loadConfigs()
	if err != nil {
		return err
	}
	if err := appCfg.Validate(); err != nil {
		return err
	}

	logger := newLogger(os.Stderr, appCfg.Log.Level, appCfg.Log.Format)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	factory, err := buildFactory(ctx, appCfg, interviewCfg, logger)
	if err != nil {
		return err
	}

	srv := transport.NewServer(transport.Config{
		Addr:               appCfg.Addr(),
		ReadTimeout:        appCfg.Server.ReadTimeout,
		WriteTimeout:       appCfg.Server.WriteTimeout,
		ShutdownTimeout:    appCfg.Server.ShutdownTimeout,
		SessionIdleTimeout: interviewCfg.Interview.SessionIdleTimeout,
		RateLimit:          appCfg.Server.RateLimit,
		RateWindow:         time.Minute,
		Persona: prompts.Persona{
			Name: interviewCfg.Interviewer.Name,
			Age:  interviewCfg.Interviewer.Age,
			Bio:  interviewCfg.Interviewer.Bio,
		},
		Voice: interviewCfg.Interviewer.Voice,
	}, factory, logger)

	logger.Info("запуск mock-interview",
		"version", version,
		"llm_provider", appCfg.LLMProvider,
		"tts_provider", appCfg.TTS.Provider,
		"required_questions", interviewCfg.Interview.RequiredQuestions,
	)
	return srv.ListenAndServe(ctx)
}

func loadConfigs() (*config.AppConfig, *config.Config, error) {
	appCfg := config.LoadAppConfig()
	path := configPath
	if path == "" {
		path = appCfg.InterviewConfigPath
	}
	interviewCfg, err := config.Load(path)
	if err != nil {
		return nil, nil, fmt.Errorf("ошибка загрузки конфигурации интервью: %w", err)
	}
	return appCfg, interviewCfg, nil
}

// buildFactory выбирает провайдеров по конфигурации и собирает фабрику сессий
func buildFactory(ctx context.Context, appCfg *config.AppConfig, interviewCfg *config.Config, logger *slog.Logger) (*session.Factory, error) {
	completer, err := buildCompleter(ctx, appCfg)
	if err != nil {
		return nil, err
	}
	synthesizer, err := buildSynthesizer(appCfg)
	if err != nil {
		return nil, err
	}

	recognizer := speech.NewDeepgramRecognizer(speech.DeepgramConfig{
		APIKey:       appCfg.Deepgram.APIKey,
		URL:          appCfg.Deepgram.URL,
		Model:        appCfg.Deepgram.Model,
		Language:     appCfg.Deepgram.Language,
		SampleRate:   appCfg.Deepgram.SampleRate,
		Channels:     appCfg.Deepgram.Channels,
		WriteTimeout: appCfg.Server.WriteTimeout,
	})

	iv := interviewCfg.Interview
	return &session.Factory{
		Config: session.Config{
			GracePeriod:            iv.AnswerGracePeriod,
			SynthesisTimeout:       iv.SynthesisTimeout,
			MaxConsecutiveFailures: iv.MaxConsecutiveFailures,
		},
		Completer:    completer,
		ModelTimeout: iv.ModelTimeout,
		Recognizer:   recognizer,
		Synthesizer:  synthesizer,
		Stats:        metrics.NewStats(),
		Logger:       logger,
		Bank:         interviewCfg.Questions.Bank,
		Layouts:      interviewCfg.Questions.Layouts,
		Required:     iv.RequiredQuestions,
	}, nil
}

func buildCompleter(ctx context.Context, appCfg *config.AppConfig) (api.Completer, error) {
	switch appCfg.LLMProvider {
	case config.ProviderOpenAI:
		return api.NewOpenAICompleter(api.OpenAIConfig{
			APIKey:      appCfg.OpenAI.APIKey,
			BaseURL:     appCfg.OpenAI.BaseURL,
			Model:       appCfg.OpenAI.Model,
			MaxTokens:   appCfg.OpenAI.MaxTokens,
			Temperature: appCfg.OpenAI.Temperature,
		}), nil
	case config.ProviderGemini:
		completer, err := api.NewGeminiCompleter(ctx, api.GeminiConfig{
			APIKey:      appCfg.Gemini.APIKey,
			BaseURL:     appCfg.Gemini.BaseURL,
			Model:       appCfg.Gemini.Model,
			MaxTokens:   appCfg.Gemini.MaxTokens,
			Temperature: appCfg.Gemini.Temperature,
		})
		if err != nil {
			return nil, fmt.Errorf("ошибка инициализации Gemini: %w", err)
		}
		return completer, nil
	default:
		return nil, fmt.Errorf("%w: неизвестный LLM_PROVIDER %q", config.ErrInvalidConfig, appCfg.LLMProvider)
	}
}

func buildSynthesizer(appCfg *config.AppConfig) (speech.Synthesizer, error) {
	switch appCfg.TTS.Provider {
	case config.ProviderAzure:
		return speech.NewAzureSynthesizer(speech.AzureConfig{
			Key:    appCfg.TTS.AzureKey,
			Region: appCfg.TTS.AzureRegion,
		}), nil
	case config.ProviderOpenAI:
		return speech.NewOpenAISynthesizer(speech.OpenAITTSConfig{
			APIKey:  appCfg.OpenAI.APIKey,
			BaseURL: appCfg.OpenAI.BaseURL,
			Model:   appCfg.TTS.OpenAIModel,
		}), nil
	default:
		return nil, fmt.Errorf("%w: неизвестный TTS_PROVIDER %q", config.ErrInvalidConfig, appCfg.TTS.Provider)
	}
}
