package speech

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"time"
)

const DefaultAzureOutputFormat = "audio-24khz-48kbitrate-mono-mp3"

// AzureConfig описывает подключение к Azure Text-to-Speech
type AzureConfig struct {
	Key    string
	Region string
	// Endpoint переопределяет адрес, по умолчанию https://{region}.tts.speech.microsoft.com/cognitiveservices/v1
	Endpoint     string
	OutputFormat string
	Timeout      time.Duration
}

// AzureSynthesizer синтезирует речь через REST API Azure с SSML
type AzureSynthesizer struct {
	key          string
	endpoint     string
	outputFormat string
	client       *http.Client
}

func NewAzureSynthesizer(cfg AzureConfig) *AzureSynthesizer {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = fmt.Sprintf("https://%s.tts.speech.microsoft.com/cognitiveservices/v1", cfg.Region)
	}
	format := cfg.OutputFormat
	if format == "" {
		format = DefaultAzureOutputFormat
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &AzureSynthesizer{
		key:          cfg.Key,
		endpoint:     endpoint,
		outputFormat: format,
		client:       &http.Client{Timeout: timeout},
	}
}

// Synthesize возвращает аудио реплики в формате OutputFormat
func (a *AzureSynthesizer) Synthesize(ctx context.Context, text, voice string) ([]byte, error) {
	body, err := BuildSSML(text, voice)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, bytes.NewBufferString(body))
	if err != nil {
		return nil, fmt.Errorf("ошибка создания запроса: %w", err)
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", a.key)
	req.Header.Set("Content-Type", "application/ssml+xml")
	req.Header.Set("X-Microsoft-OutputFormat", a.outputFormat)
	req.Header.Set("User-Agent", "mock-interview")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ошибка выполнения запроса к Azure: %w", err)
	}
	defer resp.Body.Close()

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения ответа Azure: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Azure TTS ошибка %d: %s", resp.StatusCode, string(audio))
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("пустой ответ от Azure TTS")
	}

	return audio, nil
}

// BuildSSML оборачивает текст в SSML: бодрый стиль и темп на 10% быстрее
func BuildSSML(text, voice string) (string, error) {
	if voice == "" {
		voice = DefaultVoice
	}

	var escaped bytes.Buffer
	if err := xml.EscapeText(&escaped, []byte(text)); err != nil {
		return "", fmt.Errorf("ошибка экранирования текста: %w", err)
	}

	var voiceAttr bytes.Buffer
	if err := xml.EscapeText(&voiceAttr, []byte(voice)); err != nil {
		return "", fmt.Errorf("ошибка экранирования голоса: %w", err)
	}

	return fmt.Sprintf(`<speak version="1.0" xmlns="http://www.w3.org/2001/10/synthesis" xmlns:mstts="https://www.w3.org/2001/mstts" xml:lang="en-US">`+
		`<voice name="%s">`+
		`<mstts:express-as style="cheerful" styledegree="1">`+
		`<prosody rate="+10.00%%">%s</prosody>`+
		`</mstts:express-as>`+
		`</voice>`+
		`</speak>`, voiceAttr.String(), escaped.String()), nil
}
