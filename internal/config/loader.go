package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"mock-interview/internal/prompts"
	"mock-interview/internal/questions"
	"mock-interview/internal/speech"
)

// ErrInvalidConfig оборачивает все ошибки валидации конфигурации
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Default возвращает встроенную конфигурацию интервью
func Default() *Config {
	return &Config{
		Interview: InterviewConfig{
			RequiredQuestions:      3,
			AnswerGracePeriod:      2 * time.Second,
			ModelTimeout:           30 * time.Second,
			SynthesisTimeout:       30 * time.Second,
			MaxConsecutiveFailures: 3,
			SessionIdleTimeout:     30 * time.Minute,
		},
		Interviewer: InterviewerConfig{
			Name:  "Sasha",
			Age:   30,
			Voice: speech.VoiceLiam,
			Bio:   prompts.DefaultBio,
		},
		Questions: QuestionsConfig{
			Bank:    append([]string(nil), questions.DefaultBank...),
			Layouts: append([]string(nil), questions.DefaultLayouts...),
		},
	}
}

// Load загружает конфигурацию из YAML файла поверх значений по умолчанию.
// Если файла нет, возвращается Default().
func Load(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения файла %s: %w", filename, err)
	}

	return Parse(data)
}

// Parse разбирает YAML поверх значений по умолчанию и валидирует результат
func Parse(data []byte) (*Config, error) {
	config := Default()

	// списки из файла заменяют встроенные целиком
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("ошибка парсинга YAML: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("ошибка валидации конфигурации: %w", err)
	}

	config.Questions.Bank = questions.Dedupe(config.Questions.Bank)
	config.Questions.Layouts = questions.Dedupe(config.Questions.Layouts)
	return config, nil
}

// validateConfig проверяет корректность конфигурации
func validateConfig(config *Config) error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
	}

	iv := config.Interview
	if iv.RequiredQuestions <= 0 {
		return invalid("required_questions должно быть больше 0")
	}

	bank := questions.Dedupe(config.Questions.Bank)
	if len(bank) == 0 {
		return invalid("questions.bank не может быть пустым")
	}
	if len(bank) < iv.RequiredQuestions {
		return invalid("в банке %d уникальных вопросов, а required_questions = %d", len(bank), iv.RequiredQuestions)
	}
	if len(questions.Dedupe(config.Questions.Layouts)) == 0 {
		return invalid("questions.layouts не может быть пустым")
	}

	if iv.AnswerGracePeriod < 0 {
		return invalid("answer_grace_period не может быть отрицательным")
	}
	if iv.ModelTimeout <= 0 || iv.SynthesisTimeout <= 0 || iv.SessionIdleTimeout <= 0 {
		return invalid("model_timeout, synthesis_timeout и session_idle_timeout должны быть больше 0")
	}
	if iv.MaxConsecutiveFailures <= 0 {
		return invalid("max_consecutive_failures должно быть больше 0")
	}

	if config.Interviewer.Name == "" {
		return invalid("interviewer.name не может быть пустым")
	}
	if config.Interviewer.Age <= 0 {
		return invalid("interviewer.age должно быть больше 0")
	}
	if !speech.ValidVoice(config.Interviewer.Voice) {
		return invalid("interviewer.voice должен быть одним из %v, получен %q", speech.Voices, config.Interviewer.Voice)
	}

	return nil
}
