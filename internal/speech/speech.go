// Package speech содержит внешние речевые сервисы: потоковое распознавание
// речи кандидата и синтез реплик интервьюера.
package speech

import (
	"context"
	"errors"
	"slices"
)

// ErrRecognitionCanceled оборачивает ошибку, после которой распознавание остановлено
var ErrRecognitionCanceled = errors.New("speech: recognition canceled")

// EventKind - тип события распознавания
type EventKind int

const (
	// EventRecognizing - промежуточный результат, фраза еще не закончена
	EventRecognizing EventKind = iota
	// EventRecognized - законченная фраза
	EventRecognized
	// EventCanceled - распознавание прервано, Err содержит причину
	EventCanceled
)

func (k EventKind) String() string {
	switch k {
	case EventRecognizing:
		return "recognizing"
	case EventRecognized:
		return "recognized"
	case EventCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// RecognitionEvent приходит из потока распознавания
type RecognitionEvent struct {
	Kind EventKind
	Text string
	Err  error
}

// RecognitionStream - открытый поток распознавания одной сессии.
// Канал Events закрывается после Close или после EventCanceled.
type RecognitionStream interface {
	Write(pcm []byte) error
	Events() <-chan RecognitionEvent
	Close() error
}

// Recognizer открывает потоки распознавания
type Recognizer interface {
	Start(ctx context.Context) (RecognitionStream, error)
}

// Synthesizer превращает текст в аудио голосом voice
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voice string) ([]byte, error)
}

// Голоса интервьюера
const (
	VoiceClara = "en-CA-ClaraNeural"
	VoiceLiam  = "en-CA-LiamNeural"
)

// DefaultVoice - голос интервьюера по умолчанию
const DefaultVoice = VoiceLiam

// Voices - допустимые голоса
var Voices = []string{VoiceClara, VoiceLiam}

// ValidVoice проверяет, что голос из списка допустимых
func ValidVoice(voice string) bool {
	return slices.Contains(Voices, voice)
}
