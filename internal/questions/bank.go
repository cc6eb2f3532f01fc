package questions

import (
	"math/rand/v2"
	"strings"
)

// DefaultBank - банк вопросов по методу STAR, если в конфигурации интервью своих нет
var DefaultBank = []string{
	"So, tell me about a time when you received criticism that you thought was unfair.",
	"Now, tell me about a time you had to overcome a difficult problem at work or school.",
	"Could you now tell me about a time you had to overcome a conflict or disagreement with a coworker.",
	"Tell me about a time you had to learn something new under a tight deadline.",
	"Tell me about a project you are proud of and what your role in it was.",
}

// DefaultLayouts - варианты рассказа о плане интервью, звучат вторыми
var DefaultLayouts = []string{
	"That's good to hear! I'm doing alright myself, lots of interviews today but keeping up with the pace. " +
		"So, here's the plan for today's interview: we'll start with some introductions, dive into questions " +
		"about your resume, explore your past experiences, and leave room for any questions you may have. Sound good?",
	"Glad to hear it. Here's how today will go: we'll do quick introductions, talk a little about your resume, " +
		"then go through a few questions about your past experiences. Does that work for you?",
}

// Opener возвращает первую реплику интервью
func Opener(candidateName string) string {
	name := strings.TrimSpace(candidateName)
	if name == "" {
		return "Hey, thanks for joining me today. How're you doing?"
	}
	return "Hey " + name + ", thanks for joining me today. How're you doing?"
}

// Shuffle возвращает перемешанную копию bank, исходный срез не меняется
func Shuffle(rng *rand.Rand, bank []string) []string {
	out := make([]string, len(bank))
	copy(out, bank)
	// Fisher-Yates
	for i := len(out) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// Dedupe убирает пустые строки и повторы, сохраняя порядок первых вхождений
func Dedupe(bank []string) []string {
	seen := make(map[string]struct{}, len(bank))
	out := make([]string, 0, len(bank))
	for _, q := range bank {
		q = strings.TrimSpace(q)
		if q == "" {
			continue
		}
		if _, ok := seen[q]; ok {
			continue
		}
		seen[q] = struct{}{}
		out = append(out, q)
	}
	return out
}
