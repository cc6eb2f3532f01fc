package config

import (
	"time"

	"mock-interview/internal/questions"
)

// Config представляет конфигурацию интервью
type Config struct {
	Interview   InterviewConfig   `yaml:"interview"`
	Interviewer InterviewerConfig `yaml:"interviewer"`
	Questions   QuestionsConfig   `yaml:"questions"`
}

// InterviewConfig содержит тайминги и лимиты сессии
type InterviewConfig struct {
	RequiredQuestions      int           `yaml:"required_questions"`
	AnswerGracePeriod      time.Duration `yaml:"answer_grace_period"`
	ModelTimeout           time.Duration `yaml:"model_timeout"`
	SynthesisTimeout       time.Duration `yaml:"synthesis_timeout"`
	MaxConsecutiveFailures int           `yaml:"max_consecutive_failures"`
	SessionIdleTimeout     time.Duration `yaml:"session_idle_timeout"`
}

// InterviewerConfig - персона интервьюера по умолчанию
type InterviewerConfig struct {
	Name  string `yaml:"name"`
	Age   int    `yaml:"age"`
	Voice string `yaml:"voice"`
	Bio   string `yaml:"bio"`
}

// QuestionsConfig - банк вопросов и варианты рассказа о плане интервью
type QuestionsConfig struct {
	Bank    []string `yaml:"bank"`
	Layouts []string `yaml:"layouts"`
}

// Методы для удобного доступа к конфигурации
func (c *Config) GetRequiredQuestions() int {
	return c.Interview.RequiredQuestions
}

func (c *Config) GetBankSize() int {
	return len(c.Questions.Bank)
}

// GetTotalSlots - сколько реплик интервьюер произнесет за интервью
func (c *Config) GetTotalSlots() int {
	return questions.PreambleLen + 2*c.Interview.RequiredQuestions
}
