// Package api ведет диалог интервьюера с языковой моделью.
package api

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ErrEmptyCompletion возвращается, когда модель не вернула ни одного варианта ответа
var ErrEmptyCompletion = errors.New("api: empty completion")

// Message - одно сообщение истории диалога
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Completer - бэкенд, который продолжает диалог
type Completer interface {
	Complete(ctx context.Context, system string, history []Message) (string, error)
}

// Conversation хранит системный промпт и историю одного интервью.
// История пополняется только успешными ходами.
type Conversation struct {
	mu      sync.Mutex
	backend Completer
	system  string
	history []Message
	timeout time.Duration

	// OnCall вызывается после каждого обращения к модели
	OnCall func(success bool)
}

// NewConversation создает диалог. timeout ограничивает один вызов модели, 0 - без ограничения
func NewConversation(backend Completer, system string, timeout time.Duration) *Conversation {
	return &Conversation{
		backend: backend,
		system:  system,
		timeout: timeout,
	}
}

// Send отправляет input от имени пользователя и возвращает ответ модели
func (c *Conversation) Send(ctx context.Context, input string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	history := make([]Message, len(c.history), len(c.history)+1)
	copy(history, c.history)
	history = append(history, Message{Role: RoleUser, Content: input})

	reply, err := c.backend.Complete(ctx, c.system, history)
	if c.OnCall != nil {
		c.OnCall(err == nil)
	}
	if err != nil {
		return "", fmt.Errorf("ошибка обращения к модели: %w", err)
	}

	c.history = append(history, Message{Role: RoleAssistant, Content: reply})
	return reply, nil
}

// History возвращает копию истории
func (c *Conversation) History() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Message, len(c.history))
	copy(out, c.history)
	return out
}
