package interviewer

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mock-interview/internal/api"
	"mock-interview/internal/prompts"
	"mock-interview/internal/questions"
)

// scriptedCompleter отвечает заранее заданными репликами и запоминает промпты
type scriptedCompleter struct {
	replies []string
	prompts []string
	fail    error
}

func (c *scriptedCompleter) Complete(_ context.Context, _ string, history []api.Message) (string, error) {
	c.prompts = append(c.prompts, history[len(history)-1].Content)
	if c.fail != nil {
		return "", c.fail
	}
	if len(c.replies) == 0 {
		return "", errors.New("no scripted reply left")
	}
	reply := c.replies[0]
	c.replies = c.replies[1:]
	return reply, nil
}

func newService(c *scriptedCompleter, bank []string, required int, candidate prompts.Candidate) *Service {
	conv := api.NewConversation(c, "persona", 0)
	builder := questions.Builder{
		Bank:     bank,
		Layouts:  []string{"Here's the plan."},
		Required: required,
		Rand:     rand.New(rand.NewPCG(1, 2)),
	}
	return New(conv, builder, candidate)
}

func TestNextUtteranceBeforePrepare(t *testing.T) {
	s := newService(&scriptedCompleter{}, []string{"Q?"}, 1, prompts.Candidate{})
	_, _, err := s.NextUtterance(context.Background(), "")
	assert.ErrorIs(t, err, ErrNotPrepared)
	assert.Equal(t, StateAwaitingFirstQuestion, s.State())
}

func TestFullInterviewScenario(t *testing.T) {
	c := &scriptedCompleter{replies: []string{
		"What did you build at Acme?",
		"To give you a bit of background about myself, I recruit engineers. So, tell me about yourself, Dana?",
	}}
	s := newService(c, []string{"Tell me about teamwork."}, 1, prompts.Candidate{Name: "Dana", Resume: "Acme"})
	ctx := context.Background()

	require.NoError(t, s.Prepare(ctx))
	require.Len(t, c.prompts, 2)
	assert.Contains(t, c.prompts[0], "Acme")
	assert.Contains(t, c.prompts[1], "Their name is Dana.")
	_, total := s.Cursor()
	assert.Equal(t, 7, total)

	// Вступление звучит как есть, без вызовов модели
	u, ok, err := s.NextUtterance(ctx, "")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Hey Dana, thanks for joining me today. How're you doing?", u)
	assert.Equal(t, StatePreamble, s.State())

	u, _, err = s.NextUtterance(ctx, "Good, thanks!")
	require.NoError(t, err)
	assert.Equal(t, "Here's the plan.", u)

	u, _, err = s.NextUtterance(ctx, "Sounds good.")
	require.NoError(t, err)
	assert.Equal(t, "Great. To give you a bit of background about myself, I recruit engineers. So, tell me about yourself, Dana?", u)
	assert.Len(t, c.prompts, 2)
	assert.Equal(t, StateInteractive, s.State())

	// Слот уточнения: сырой ответ модели
	c.replies = append(c.replies, "Nice! What got you into Go?")
	u, _, err = s.NextUtterance(ctx, "I am a Go developer.")
	require.NoError(t, err)
	assert.Equal(t, "Nice! What got you into Go?", u)
	require.Len(t, c.prompts, 3)
	assert.Equal(t, prompts.Turn(
		"Great. To give you a bit of background about myself, I recruit engineers. So, tell me about yourself, Dana?",
		"I am a Go developer.",
		prompts.FollowUpQuestion,
	), c.prompts[2])

	// Фиксированный слот: комментарий, затем вопрос
	c.replies = append(c.replies, "Cool.")
	u, _, err = s.NextUtterance(ctx, "Concurrency.")
	require.NoError(t, err)
	assert.Equal(t, "Cool. What did you build at Acme?", u)
	assert.True(t, strings.HasSuffix(c.prompts[3], prompts.FollowUpComment))
	assert.Contains(t, c.prompts[3], "Nice! What got you into Go?")

	c.replies = append(c.replies, "Impressive.")
	u, _, err = s.NextUtterance(ctx, "A scheduler.")
	require.NoError(t, err)
	assert.Equal(t, "Impressive. Tell me about teamwork.", u)
	assert.Equal(t, "Tell me about teamwork", s.CurrentQuestion())

	c.replies = append(c.replies, "How did the team react?")
	u, _, err = s.NextUtterance(ctx, "We paired a lot.")
	require.NoError(t, err)
	assert.Equal(t, "How did the team react?", u)
	assert.Contains(t, c.prompts[5], "Impressive. Tell me about teamwork.")
	assert.Equal(t, StateExhausted, s.State())

	calls := len(c.prompts)
	u, ok, err = s.NextUtterance(ctx, "Well.")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, u)
	assert.Len(t, c.prompts, calls)
}

func TestModelFailureDoesNotAdvance(t *testing.T) {
	c := &scriptedCompleter{replies: []string{"R?", "Intro."}}
	s := newService(c, []string{"Q?"}, 1, prompts.Candidate{})
	ctx := context.Background()
	require.NoError(t, s.Prepare(ctx))
	for range 3 {
		_, _, err := s.NextUtterance(ctx, "")
		require.NoError(t, err)
	}

	boom := errors.New("model down")
	c.fail = boom
	_, ok, err := s.NextUtterance(ctx, "answer")
	assert.ErrorIs(t, err, boom)
	assert.False(t, ok)
	cursor, _ := s.Cursor()
	assert.Equal(t, 3, cursor)
	assert.Len(t, c.prompts, 3)

	c.fail = nil
	c.replies = []string{"Follow up?"}
	u, ok, err := s.NextUtterance(ctx, "answer")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Follow up?", u)
	cursor, _ = s.Cursor()
	assert.Equal(t, 4, cursor)
}

func TestPrepareFailure(t *testing.T) {
	boom := errors.New("boom")
	c := &scriptedCompleter{fail: boom}
	s := newService(c, []string{"Q?"}, 1, prompts.Candidate{})
	err := s.Prepare(context.Background())
	assert.ErrorIs(t, err, boom)

	// после ошибки последовательность не собрана, повтор снова идет в модель
	c.fail = nil
	c.replies = []string{"R?", "I."}
	require.NoError(t, s.Prepare(context.Background()))
	assert.Len(t, c.prompts, 3)
}

func TestPrepareBankTooSmall(t *testing.T) {
	s := newService(&scriptedCompleter{replies: []string{"R?", "I."}}, []string{"Q?"}, 2, prompts.Candidate{})
	err := s.Prepare(context.Background())
	assert.ErrorIs(t, err, questions.ErrBankTooSmall)
}

func TestFeedback(t *testing.T) {
	c := &scriptedCompleter{replies: []string{"You did well."}}
	s := newService(c, []string{"Q?"}, 1, prompts.Candidate{})
	fb, err := s.Feedback(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "You did well.", fb)
	assert.Equal(t, prompts.Feedback, c.prompts[0])
}

func TestLastSentence(t *testing.T) {
	assert.Equal(t, "Tell me more?", lastSentence("Great answer. Tell me more?"))
	assert.Equal(t, "Tell me about teamwork", lastSentence("Nice. Tell me about teamwork."))
	assert.Equal(t, "", lastSentence(""))
}
