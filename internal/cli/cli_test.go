package cli

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mock-interview/internal/api"
	"mock-interview/internal/config"
	"mock-interview/internal/speech"
)

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "warn", "json")
	logger.Info("hidden")
	logger.Warn("shown", "k", "v")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)

	assert.True(t, newLogger(&buf, "debug", "text").Enabled(context.Background(), slog.LevelDebug))
	assert.False(t, newLogger(&buf, "bogus", "text").Enabled(context.Background(), slog.LevelDebug))
}

func TestBuildProviders(t *testing.T) {
	appCfg := &config.AppConfig{
		LLMProvider: config.ProviderOpenAI,
		OpenAI:      config.OpenAIConfig{APIKey: "k", Model: "m", MaxTokens: 10},
		TTS:         config.TTSConfig{Provider: config.ProviderOpenAI},
	}
	completer, err := buildCompleter(context.Background(), appCfg)
	require.NoError(t, err)
	assert.IsType(t, &api.OpenAICompleter{}, completer)

	synth, err := buildSynthesizer(appCfg)
	require.NoError(t, err)
	assert.IsType(t, &speech.OpenAISynthesizer{}, synth)

	appCfg.TTS.Provider = config.ProviderAzure
	synth, err = buildSynthesizer(appCfg)
	require.NoError(t, err)
	assert.IsType(t, &speech.AzureSynthesizer{}, synth)

	appCfg.LLMProvider = "llama"
	_, err = buildCompleter(context.Background(), appCfg)
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestBuildGeminiCompleterUsesBaseURL(t *testing.T) {
	hit := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hit <- r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"candidates":[{"content":{"role":"model","parts":[{"text":"Hi."}]}}]}`)
	}))
	defer srv.Close()

	appCfg := &config.AppConfig{
		LLMProvider: config.ProviderGemini,
		Gemini:      config.GeminiConfig{APIKey: "g", BaseURL: srv.URL, Model: "gemini-test", MaxTokens: 10},
	}
	completer, err := buildCompleter(context.Background(), appCfg)
	require.NoError(t, err)

	reply, err := completer.Complete(context.Background(), "", []api.Message{{Role: api.RoleUser, Content: "hello"}})
	require.NoError(t, err)
	assert.Equal(t, "Hi.", reply)
	assert.True(t, strings.HasSuffix(<-hit, "models/gemini-test:generateContent"))
}

func TestBuildFactory(t *testing.T) {
	appCfg := &config.AppConfig{
		LLMProvider: config.ProviderOpenAI,
		OpenAI:      config.OpenAIConfig{APIKey: "k", Model: "m", MaxTokens: 10},
		TTS:         config.TTSConfig{Provider: config.ProviderAzure, AzureKey: "a", AzureRegion: "eastus"},
	}
	interviewCfg := config.Default()

	f, err := buildFactory(context.Background(), appCfg, interviewCfg, slog.Default())
	require.NoError(t, err)
	assert.Equal(t, interviewCfg.Interview.RequiredQuestions, f.Required)
	assert.Equal(t, interviewCfg.Interview.AnswerGracePeriod, f.Config.GracePeriod)
	assert.NotNil(t, f.Stats)
	assert.NotNil(t, f.Recognizer)
}

func TestValidateCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "interview.yaml")
	require.NoError(t, os.WriteFile(path, []byte("interviewer:\n  name: Robin\n"), 0o644))

	t.Setenv("LLM_PROVIDER", "openai")
	t.Setenv("OPENAI_API_KEY", "k")
	t.Setenv("DEEPGRAM_API_KEY", "d")
	t.Setenv("TTS_PROVIDER", "azure")
	t.Setenv("AZURE_SPEECH_KEY", "a")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"validate", "--config", path})
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		configPath = ""
	})

	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "Robin")
	assert.Contains(t, out.String(), "Конфигурация корректна")
}
