// Package interviewer решает, какую реплику интервьюер произнесет следующей.
package interviewer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"mock-interview/internal/api"
	"mock-interview/internal/prompts"
	"mock-interview/internal/questions"
)

// ErrNotPrepared возвращается, если интервью запрошено до Prepare
var ErrNotPrepared = errors.New("interviewer: interview is not prepared")

// State - стадия интервью
type State int

const (
	StateAwaitingFirstQuestion State = iota
	StatePreamble
	StateInteractive
	StateExhausted
)

func (s State) String() string {
	switch s {
	case StateAwaitingFirstQuestion:
		return "awaiting_first_question"
	case StatePreamble:
		return "preamble"
	case StateInteractive:
		return "interactive"
	case StateExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// Service ведет интервью одной сессии: держит последовательность вопросов
// и диалог с моделью. Не рассчитан на параллельные ходы.
type Service struct {
	mu        sync.Mutex
	conv      *api.Conversation
	builder   questions.Builder
	candidate prompts.Candidate
	seq       *questions.Sequence
}

// New создает интервьюера. Диалог принадлежит только этому интервьюеру.
func New(conv *api.Conversation, builder questions.Builder, candidate prompts.Candidate) *Service {
	return &Service{
		conv:      conv,
		builder:   builder,
		candidate: candidate,
	}
}

// Prepare генерирует вопрос по резюме и представление интервьюера,
// после чего собирает последовательность вопросов. Повторный вызов ничего не делает.
func (s *Service) Prepare(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.seq != nil {
		return nil
	}

	resumeQuestion, err := s.conv.Send(ctx, prompts.ResumeQuestion(s.candidate.Resume))
	if err != nil {
		return fmt.Errorf("ошибка генерации вопроса по резюме: %w", err)
	}

	introduction, err := s.conv.Send(ctx, prompts.Introduction(s.candidate.Name))
	if err != nil {
		return fmt.Errorf("ошибка генерации представления: %w", err)
	}

	seq, err := s.builder.BuildInitialSequence(s.candidate.Name, resumeQuestion, "Great. "+introduction)
	if err != nil {
		return fmt.Errorf("ошибка сборки вопросов: %w", err)
	}
	s.seq = seq
	return nil
}

// NextUtterance возвращает следующую реплику с учетом последнего ответа кандидата.
// ok == false означает, что вопросы закончились.
//
// Слоты вступления произносятся как есть. Дальше на каждый ход делается ровно
// один вызов модели: для уточняющего слота модель пишет комментарий с вопросом,
// для фиксированного только комментарий, который ставится перед вопросом.
// При ошибке модели курсор не двигается.
func (s *Service) NextUtterance(ctx context.Context, candidateResponse string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.seq == nil {
		return "", false, ErrNotPrepared
	}
	if s.seq.Exhausted() {
		return "", false, nil
	}

	if s.seq.Cursor() < questions.FirstDynamicIndex {
		text, _, err := s.seq.Advance()
		if err != nil {
			return "", false, err
		}
		return text, true, nil
	}

	next, err := s.seq.Current()
	if err != nil {
		return "", false, err
	}
	previous, _ := s.seq.Spoken()

	instruction := prompts.FollowUpComment
	if next.IsPlaceholder() {
		instruction = prompts.FollowUpQuestion
	}

	reply, err := s.conv.Send(ctx, prompts.Turn(previous.Text, candidateResponse, instruction))
	if err != nil {
		return "", false, fmt.Errorf("ошибка генерации реплики для слота %d: %w", s.seq.Cursor(), err)
	}

	utterance := reply
	if !next.IsPlaceholder() {
		utterance = joinUtterance(reply, next.Text)
	}

	if _, err := s.seq.Resolve(utterance); err != nil {
		return "", false, err
	}
	return utterance, true, nil
}

// State возвращает текущую стадию интервью
func (s *Service) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.seq == nil:
		return StateAwaitingFirstQuestion
	case s.seq.Exhausted():
		return StateExhausted
	case s.seq.Cursor() == 0:
		return StateAwaitingFirstQuestion
	case s.seq.Cursor() < questions.FirstDynamicIndex:
		return StatePreamble
	default:
		return StateInteractive
	}
}

// Cursor возвращает позицию в последовательности и ее длину
func (s *Service) Cursor() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seq == nil {
		return 0, 0
	}
	return s.seq.Cursor(), s.seq.Len()
}

// CurrentQuestion возвращает последнее предложение последней произнесенной реплики,
// то есть сам вопрос без комментария перед ним.
func (s *Service) CurrentQuestion() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.seq == nil {
		return ""
	}
	spoken, ok := s.seq.Spoken()
	if !ok {
		return ""
	}
	return lastSentence(spoken.Text)
}

// Feedback просит модель дать отзыв по итогам интервью
func (s *Service) Feedback(ctx context.Context) (string, error) {
	feedback, err := s.conv.Send(ctx, prompts.Feedback)
	if err != nil {
		return "", fmt.Errorf("ошибка получения отзыва: %w", err)
	}
	return feedback, nil
}

func joinUtterance(comment, question string) string {
	comment = strings.TrimSpace(comment)
	question = strings.TrimSpace(question)
	if comment == "" {
		return question
	}
	return comment + " " + question
}

func lastSentence(text string) string {
	phrases := strings.Split(text, ".")
	for i := len(phrases) - 1; i >= 0; i-- {
		if p := strings.TrimSpace(phrases[i]); p != "" {
			return p
		}
	}
	return ""
}
