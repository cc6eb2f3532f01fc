package speech

import (
	"context"
	"fmt"
	"io"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const DefaultOpenAITTSModel = "gpt-4o-mini-tts"

const cheerfulInstructions = "Speak in a cheerful, friendly and casual tone, like a relaxed recruiter on a phone screen."

// OpenAITTSConfig описывает синтез речи через OpenAI
type OpenAITTSConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// OpenAISynthesizer - альтернатива Azure на OpenAI Audio API
type OpenAISynthesizer struct {
	client openai.Client
	model  string
}

func NewOpenAISynthesizer(cfg OpenAITTSConfig) *OpenAISynthesizer {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	model := cfg.Model
	if model == "" {
		model = DefaultOpenAITTSModel
	}
	return &OpenAISynthesizer{
		client: openai.NewClient(opts...),
		model:  model,
	}
}

// Synthesize возвращает mp3 с репликой. Голоса Azure переводятся в близкие голоса OpenAI.
func (o *OpenAISynthesizer) Synthesize(ctx context.Context, text, voice string) ([]byte, error) {
	resp, err := o.client.Audio.Speech.New(ctx, openai.AudioSpeechNewParams{
		Input:          text,
		Model:          openai.SpeechModel(o.model),
		Voice:          OpenAIVoice(voice),
		Instructions:   openai.String(cheerfulInstructions),
		Speed:          openai.Float(1.1),
		ResponseFormat: openai.AudioSpeechNewParamsResponseFormatMP3,
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка синтеза речи OpenAI: %w", err)
	}
	defer resp.Body.Close()

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения аудио OpenAI: %w", err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("пустой ответ от OpenAI TTS")
	}
	return audio, nil
}

// OpenAIVoice сопоставляет голос интервьюера голосу OpenAI
func OpenAIVoice(voice string) openai.AudioSpeechNewParamsVoice {
	switch voice {
	case VoiceClara:
		return openai.AudioSpeechNewParamsVoiceNova
	case VoiceLiam:
		return openai.AudioSpeechNewParamsVoiceOnyx
	default:
		return openai.AudioSpeechNewParamsVoiceAlloy
	}
}
