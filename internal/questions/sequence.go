// Package questions хранит подготовленную последовательность вопросов интервью
// и курсор, который по ней идет.
package questions

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
)

var (
	// ErrOutOfRange возвращается при чтении или сдвиге за конец последовательности.
	ErrOutOfRange = errors.New("questions: cursor out of range")
	// ErrBankTooSmall возвращается, когда в банке меньше вопросов, чем требуется.
	ErrBankTooSmall = errors.New("questions: question bank smaller than required question count")
)

// FollowUpTag - содержимое еще не заполненного слота уточняющего вопроса.
const FollowUpTag = "follow-up"

// FirstDynamicIndex - индекс первого слота, реплика которого зависит от ответа
// кандидата. Слоты до него произносятся как есть.
const FirstDynamicIndex = 3

// PreambleLen - количество слотов перед вопросами из банка.
const PreambleLen = 5

// Kind отличает фиксированные слоты от генерируемых.
type Kind int

const (
	KindFixed Kind = iota
	KindFollowUp
)

func (k Kind) String() string {
	switch k {
	case KindFixed:
		return "fixed"
	case KindFollowUp:
		return "follow_up"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Slot представляет одну позицию последовательности
type Slot struct {
	Kind Kind
	// Text - текст вопроса для фиксированного слота и замороженная реплика
	// после того, как слот пройден
	Text     string
	Resolved bool
}

// Fixed создает фиксированный слот
func Fixed(text string) Slot {
	return Slot{Kind: KindFixed, Text: text}
}

// FollowUp создает пустой слот уточняющего вопроса
func FollowUp() Slot {
	return Slot{Kind: KindFollowUp}
}

// IsPlaceholder сообщает, ждет ли слот сгенерированного текста
func (s Slot) IsPlaceholder() bool {
	return s.Kind == KindFollowUp && !s.Resolved
}

// Content возвращает текст слота
func (s Slot) Content() string {
	if s.IsPlaceholder() {
		return FollowUpTag
	}
	return s.Text
}

// Sequence - упорядоченный список слотов с курсором, который движется только вперед.
type Sequence struct {
	slots  []Slot
	cursor int
}

// NewSequence создает последовательность из копии slots
func NewSequence(slots []Slot) *Sequence {
	cp := make([]Slot, len(slots))
	copy(cp, slots)
	return &Sequence{slots: cp}
}

func (s *Sequence) Len() int    { return len(s.slots) }
func (s *Sequence) Cursor() int { return s.cursor }

// Exhausted сообщает, пройдены ли все слоты
func (s *Sequence) Exhausted() bool {
	return s.cursor >= len(s.slots)
}

// Peek читает слот по индексу, не сдвигая курсор
func (s *Sequence) Peek(index int) (Slot, error) {
	if index < 0 || index >= len(s.slots) {
		return Slot{}, fmt.Errorf("peek %d of %d: %w", index, len(s.slots), ErrOutOfRange)
	}
	return s.slots[index], nil
}

// Current возвращает слот под курсором
func (s *Sequence) Current() (Slot, error) {
	return s.Peek(s.cursor)
}

// Advance возвращает содержимое слота под курсором и сдвигает курсор на один.
// Пройденный слот замораживается.
func (s *Sequence) Advance() (string, int, error) {
	if s.Exhausted() {
		return "", s.cursor, fmt.Errorf("advance at %d: %w", s.cursor, ErrOutOfRange)
	}
	slot := &s.slots[s.cursor]
	content := slot.Content()
	slot.Text = content
	slot.Resolved = true
	s.cursor++
	return content, s.cursor, nil
}

// Resolve записывает text в слот под курсором и сдвигает курсор
func (s *Sequence) Resolve(text string) (int, error) {
	if s.Exhausted() {
		return s.cursor, fmt.Errorf("resolve at %d: %w", s.cursor, ErrOutOfRange)
	}
	s.slots[s.cursor].Text = text
	s.slots[s.cursor].Resolved = true
	s.cursor++
	return s.cursor, nil
}

// Spoken возвращает последний пройденный слот
func (s *Sequence) Spoken() (Slot, bool) {
	if s.cursor == 0 {
		return Slot{}, false
	}
	return s.slots[s.cursor-1], true
}

// Builder собирает начальную последовательность для одной сессии
type Builder struct {
	Bank     []string
	Layouts  []string
	Required int
	// Rand используется для перемешивания банка и выбора плана интервью.
	// При nil берется случайный seed.
	Rand *rand.Rand
}

// BuildInitialSequence раскладывает вступление
//
//	приветствие, план интервью, представление, уточнение, вопрос по резюме
//
// и затем по паре [вопрос из банка, уточнение] на каждый обязательный вопрос.
// Банк очищается от дублей и перемешивается на копии, после чего берутся
// первые Required вопросов.
func (b Builder) BuildInitialSequence(candidateName, resumeQuestion, introduction string) (*Sequence, error) {
	rng := b.Rand
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	bank := Dedupe(b.Bank)
	if b.Required < 0 || b.Required > len(bank) {
		return nil, fmt.Errorf("need %d questions, bank has %d: %w", b.Required, len(bank), ErrBankTooSmall)
	}
	bank = Shuffle(rng, bank)

	layouts := Dedupe(b.Layouts)
	if len(layouts) == 0 {
		layouts = DefaultLayouts
	}

	slots := make([]Slot, 0, PreambleLen+2*b.Required)
	slots = append(slots,
		Fixed(Opener(candidateName)),
		Fixed(layouts[rng.IntN(len(layouts))]),
		Fixed(strings.TrimSpace(introduction)),
		FollowUp(),
		Fixed(strings.TrimSpace(resumeQuestion)),
	)
	for _, q := range bank[:b.Required] {
		slots = append(slots, Fixed(q), FollowUp())
	}
	return &Sequence{slots: slots}, nil
}
