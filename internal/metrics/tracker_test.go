package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func TestTrackWordsFromResponse(t *testing.T) {
	tr := NewTracker(nil)
	got := tr.TrackWordsFromResponse("Hello, world! Hello.")
	assert.Equal(t, map[string]int{"hello": 2, "world": 1}, got)
}

func TestTrackWordsStripsPunctuationClass(t *testing.T) {
	tr := NewTracker(nil)
	got := tr.TrackWordsFromResponse("  (Well) -- I'd say: {yes}_ `ok`~  ")
	assert.Equal(t, map[string]int{"well": 1, "i'd": 1, "say": 1, "yes": 1, "ok": 1}, got)
}

func TestWordFrequencyAggregates(t *testing.T) {
	tr := NewTracker(nil)
	tr.TrackWordsFromResponse("I led the team")
	second := tr.TrackWordsFromResponse("the team shipped")
	assert.Equal(t, map[string]int{"the": 1, "team": 1, "shipped": 1}, second)

	agg := tr.GetInterviewMetrics().WordFrequency
	assert.Equal(t, map[string]int{"i": 1, "led": 1, "the": 2, "team": 2, "shipped": 1}, agg)

	agg["the"] = 100
	assert.Equal(t, 2, tr.GetInterviewMetrics().WordFrequency["the"])
}

func TestStartAnswerTimerIsIdempotent(t *testing.T) {
	clock := newFakeClock()
	tr := NewTracker(clock.Now)

	tr.StartAnswerTimer()
	clock.Advance(3 * time.Second)
	tr.StartAnswerTimer()
	clock.Advance(2 * time.Second)

	assert.Equal(t, 5, tr.EndAnswerTimer())
}

func TestEndAnswerTimerWithoutStart(t *testing.T) {
	tr := NewTracker(newFakeClock().Now)
	assert.Equal(t, 0, tr.EndAnswerTimer())

	tr.StartAnswerTimer()
	tr.EndAnswerTimer()
	assert.Equal(t, 0, tr.EndAnswerTimer())
}

func TestAnswerTimerFloorsSeconds(t *testing.T) {
	clock := newFakeClock()
	tr := NewTracker(clock.Now)
	tr.StartAnswerTimer()
	clock.Advance(2900 * time.Millisecond)
	assert.Equal(t, 2, tr.EndAnswerTimer())
}

func TestQuietTimeAccumulates(t *testing.T) {
	clock := newFakeClock()
	tr := NewTracker(clock.Now)

	assert.Equal(t, 0, tr.EndQuietTimeTimer())

	tr.StartQuietTimeTimer()
	clock.Advance(2 * time.Second)
	tr.StartQuietTimeTimer()
	clock.Advance(1 * time.Second)
	assert.Equal(t, 3, tr.EndQuietTimeTimer())

	clock.Advance(10 * time.Second)
	tr.StartQuietTimeTimer()
	clock.Advance(4 * time.Second)
	assert.Equal(t, 7, tr.EndQuietTimeTimer())
	assert.Equal(t, 7, tr.EndQuietTimeTimer())
}

func TestResetQuietTime(t *testing.T) {
	clock := newFakeClock()
	tr := NewTracker(clock.Now)

	tr.StartQuietTimeTimer()
	clock.Advance(4 * time.Second)
	assert.Equal(t, 4, tr.ResetQuietTime())
	assert.Equal(t, 0, tr.EndQuietTimeTimer())

	tr.StartQuietTimeTimer()
	clock.Advance(1 * time.Second)
	assert.Equal(t, 1, tr.ResetQuietTime())
	assert.Equal(t, 5, tr.GetInterviewMetrics().QuietTimeSeconds)
}

func TestGetAnswerMetrics(t *testing.T) {
	clock := newFakeClock()
	tr := NewTracker(clock.Now)
	tr.StartAnswerTimer()
	clock.Advance(6 * time.Second)

	m := tr.GetAnswerMetrics("Yes, yes.")
	assert.Equal(t, 6, m.AnswerTimeSeconds)
	assert.Equal(t, map[string]int{"yes": 2}, m.WordFrequency)

	m = tr.GetAnswerMetrics("")
	assert.Equal(t, 0, m.AnswerTimeSeconds)
	assert.Empty(t, m.WordFrequency)
}

func TestGetInterviewMetricsLength(t *testing.T) {
	clock := newFakeClock()
	tr := NewTracker(clock.Now)
	clock.Advance(95 * time.Second)
	m := tr.GetInterviewMetrics()
	assert.Equal(t, 95, m.LengthSeconds)
	require.NotNil(t, m.WordFrequency)
}

func TestStats(t *testing.T) {
	s := NewStats()
	s.IncrementInterviewsStarted()
	s.IncrementInterviewsStarted()
	s.IncrementUtterancesSpoken()
	s.IncrementModelCall(true)
	s.IncrementModelCall(false)
	s.SessionClosed(true)

	snap := s.GetSnapshot()
	assert.EqualValues(t, 2, snap.InterviewsStarted)
	assert.EqualValues(t, 1, snap.InterviewsCompleted)
	assert.EqualValues(t, 1, snap.ActiveSessions)
	assert.EqualValues(t, 1, snap.UtterancesSpoken)
	assert.EqualValues(t, 2, snap.ModelCallsTotal)
	assert.EqualValues(t, 1, snap.ModelCallsFailed)
}
