package api

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIConfig описывает параметры подключения к OpenAI
type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float64
}

// OpenAICompleter отправляет историю диалога в chat completions OpenAI
type OpenAICompleter struct {
	client      openai.Client
	model       string
	maxTokens   int
	temperature float64
}

// NewOpenAICompleter создает клиент OpenAI
func NewOpenAICompleter(cfg OpenAIConfig) *OpenAICompleter {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &OpenAICompleter{
		client:      openai.NewClient(opts...),
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
	}
}

// Complete возвращает ответ модели на историю history с системным промптом system
func (c *OpenAICompleter) Complete(ctx context.Context, system string, history []Message) (string, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(history)+1)
	if system != "" {
		messages = append(messages, openai.SystemMessage(system))
	}
	for _, m := range history {
		switch m.Role {
		case RoleUser:
			messages = append(messages, openai.UserMessage(m.Content))
		case RoleAssistant:
			messages = append(messages, openai.AssistantMessage(m.Content))
		default:
			return "", fmt.Errorf("неизвестная роль сообщения %q", m.Role)
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:       c.model,
		Messages:    messages,
		Temperature: openai.Float(c.temperature),
	}
	if c.maxTokens > 0 {
		params.MaxTokens = openai.Int(int64(c.maxTokens))
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("ошибка вызова OpenAI: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}

	return cleanResponse(resp.Choices[0].Message.Content), nil
}

// cleanResponse убирает кавычки и markdown, в которые модель иногда заворачивает реплику
func cleanResponse(response string) string {
	response = strings.ReplaceAll(response, "```", "")
	response = strings.TrimSpace(response)
	response = strings.Trim(response, "\"“”")
	return strings.TrimSpace(response)
}
