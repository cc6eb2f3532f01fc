package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Провайдеры модели и синтеза речи
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
	ProviderAzure  = "azure"
)

// AppConfig - настройки процесса из переменных окружения
type AppConfig struct {
	LLMProvider string
	OpenAI      OpenAIConfig
	Gemini      GeminiConfig
	Deepgram    DeepgramConfig
	TTS         TTSConfig
	Server      ServerConfig
	Log         LogConfig

	// InterviewConfigPath - путь к YAML с настройками интервью
	InterviewConfigPath string
}

type DeepgramConfig struct {
	APIKey     string
	URL        string
	Model      string
	Language   string
	SampleRate int
	Channels   int
}

type TTSConfig struct {
	Provider    string
	AzureKey    string
	AzureRegion string
	OpenAIModel string
}

type ServerConfig struct {
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	RateLimit       int
}

type LogConfig struct {
	Level  string
	Format string
}

func LoadAppConfig() *AppConfig {
	return &AppConfig{
		LLMProvider: strings.ToLower(getEnv("LLM_PROVIDER", ProviderOpenAI)),
		OpenAI:      LoadOpenAIConfig(),
		Gemini:      LoadGeminiConfig(),
		Deepgram: DeepgramConfig{
			APIKey:     getEnv("DEEPGRAM_API_KEY", ""),
			URL:        getEnv("DEEPGRAM_URL", ""),
			Model:      getEnv("DEEPGRAM_MODEL", "nova-2"),
			Language:   getEnv("DEEPGRAM_LANGUAGE", "en-US"),
			SampleRate: getEnvAsInt("AUDIO_SAMPLE_RATE", 48000),
			Channels:   getEnvAsInt("AUDIO_CHANNELS", 2),
		},
		TTS: TTSConfig{
			Provider:    strings.ToLower(getEnv("TTS_PROVIDER", ProviderAzure)),
			AzureKey:    getEnv("AZURE_SPEECH_KEY", ""),
			AzureRegion: getEnv("AZURE_SPEECH_REGION", "eastus"),
			OpenAIModel: getEnv("OPENAI_TTS_MODEL", "gpt-4o-mini-tts"),
		},
		Server: ServerConfig{
			Port:            getEnvAsInt("SERVER_PORT", 4200),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
			RateLimit:       getEnvAsInt("SERVER_RATE_LIMIT", 10),
		},
		Log: LogConfig{
			Level:  strings.ToLower(getEnv("LOG_LEVEL", "info")),
			Format: strings.ToLower(getEnv("LOG_FORMAT", "text")),
		},
		InterviewConfigPath: getEnv("INTERVIEW_CONFIG", "config/interview.yaml"),
	}
}

// Validate проверяет, что для выбранных провайдеров заданы ключи
func (c *AppConfig) Validate() error {
	var problems []string

	switch c.LLMProvider {
	case ProviderOpenAI:
		if err := c.OpenAI.ValidateConfig(); err != nil {
			problems = append(problems, err.Error())
		}
	case ProviderGemini:
		if err := c.Gemini.ValidateConfig(); err != nil {
			problems = append(problems, err.Error())
		}
	default:
		problems = append(problems, fmt.Sprintf("LLM_PROVIDER должен быть openai или gemini, получен %q", c.LLMProvider))
	}

	if c.Deepgram.APIKey == "" {
		problems = append(problems, "DEEPGRAM_API_KEY не установлен")
	}
	if c.Deepgram.SampleRate <= 0 || c.Deepgram.Channels <= 0 {
		problems = append(problems, "AUDIO_SAMPLE_RATE и AUDIO_CHANNELS должны быть больше 0")
	}

	switch c.TTS.Provider {
	case ProviderAzure:
		if c.TTS.AzureKey == "" {
			problems = append(problems, "AZURE_SPEECH_KEY не установлен")
		}
	case ProviderOpenAI:
		if c.OpenAI.APIKey == "" {
			problems = append(problems, "OPENAI_API_KEY нужен для TTS_PROVIDER=openai")
		}
	default:
		problems = append(problems, fmt.Sprintf("TTS_PROVIDER должен быть azure или openai, получен %q", c.TTS.Provider))
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		problems = append(problems, fmt.Sprintf("SERVER_PORT вне диапазона: %d", c.Server.Port))
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

// Addr возвращает адрес для прослушивания
func (c *AppConfig) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
