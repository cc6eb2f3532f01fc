// Package metrics считает время ответов и частоту слов в сессии интервью,
// а также общие счетчики сервера.
package metrics

import (
	"maps"
	"strings"
	"sync"
	"time"
)

// strippedChars - пунктуация, которая вырезается из каждого слова перед подсчетом
const strippedChars = ".,/#!?$%^&*;:{}=-_`~()"

// AnswerMetrics отправляется один раз на каждый ответ кандидата
type AnswerMetrics struct {
	AnswerTimeSeconds int
	WordFrequency     map[string]int
}

// InterviewMetrics - итог по всей сессии
type InterviewMetrics struct {
	LengthSeconds    int
	QuietTimeSeconds int
	WordFrequency    map[string]int
}

// Tracker накапливает время ответов и частоту слов для одной сессии
type Tracker struct {
	mu  sync.Mutex
	now func() time.Time

	interviewStart time.Time
	answerStart    time.Time
	quietStart     time.Time

	quietSeconds      int
	totalQuietSeconds int
	wordFrequency     map[string]int
}

// NewTracker запускает часы сессии. При now == nil используется time.Now
func NewTracker(now func() time.Time) *Tracker {
	if now == nil {
		now = time.Now
	}
	return &Tracker{
		now:            now,
		interviewStart: now(),
		wordFrequency:  make(map[string]int),
	}
}

// StartAnswerTimer запускает таймер ответа, если он еще не запущен
func (t *Tracker) StartAnswerTimer() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.answerStart.IsZero() {
		t.answerStart = t.now()
	}
}

// EndAnswerTimer останавливает таймер ответа и возвращает прошедшие целые секунды.
// Если таймер не запущен, возвращает 0.
func (t *Tracker) EndAnswerTimer() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.endAnswerTimer()
}

func (t *Tracker) endAnswerTimer() int {
	if t.answerStart.IsZero() {
		return 0
	}
	secs := wholeSeconds(t.now().Sub(t.answerStart))
	t.answerStart = time.Time{}
	return secs
}

// StartQuietTimeTimer начинает замер тишины, если он еще не идет
func (t *Tracker) StartQuietTimeTimer() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.quietStart.IsZero() {
		t.quietStart = t.now()
	}
}

// EndQuietTimeTimer закрывает текущий отрезок тишины, добавляет его к тишине
// текущего ответа и возвращает накопленную сумму.
func (t *Tracker) EndQuietTimeTimer() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.endQuietTimeTimer()
}

func (t *Tracker) endQuietTimeTimer() int {
	if t.quietStart.IsZero() {
		return t.quietSeconds
	}
	t.quietSeconds += wholeSeconds(t.now().Sub(t.quietStart))
	t.quietStart = time.Time{}
	return t.quietSeconds
}

// ResetQuietTime закрывает открытый отрезок тишины, переносит тишину текущего
// ответа в общий итог сессии и возвращает ее. Сумма ответа обнуляется.
func (t *Tracker) ResetQuietTime() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	secs := t.endQuietTimeTimer()
	t.totalQuietSeconds += secs
	t.quietSeconds = 0
	return secs
}

// TrackWordsFromResponse считает слова ответа сразу в возвращаемую карту
// и в общий итог сессии.
func (t *Tracker) TrackWordsFromResponse(response string) map[string]int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.trackWords(response)
}

func (t *Tracker) trackWords(response string) map[string]int {
	freq := make(map[string]int)
	for _, word := range strings.Fields(response) {
		w := NormalizeWord(word)
		if w == "" {
			continue
		}
		freq[w]++
		t.wordFrequency[w]++
	}
	return freq
}

// GetAnswerMetrics останавливает таймер ответа и учитывает слова ответа
func (t *Tracker) GetAnswerMetrics(response string) AnswerMetrics {
	t.mu.Lock()
	defer t.mu.Unlock()
	return AnswerMetrics{
		AnswerTimeSeconds: t.endAnswerTimer(),
		WordFrequency:     t.trackWords(response),
	}
}

// GetInterviewMetrics возвращает длительность сессии, тишину по завершенным
// ответам и копию общей частоты слов
func (t *Tracker) GetInterviewMetrics() InterviewMetrics {
	t.mu.Lock()
	defer t.mu.Unlock()
	return InterviewMetrics{
		LengthSeconds:    wholeSeconds(t.now().Sub(t.interviewStart)),
		QuietTimeSeconds: t.totalQuietSeconds,
		WordFrequency:    maps.Clone(t.wordFrequency),
	}
}

// NormalizeWord приводит слово к нижнему регистру и убирает пунктуацию
func NormalizeWord(word string) string {
	word = strings.ToLower(word)
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(strippedChars, r) {
			return -1
		}
		return r
	}, word)
}

func wholeSeconds(d time.Duration) int {
	if d < 0 {
		return 0
	}
	return int(d / time.Second)
}
