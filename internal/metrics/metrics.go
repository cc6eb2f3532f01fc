package metrics

import (
	"sync"
	"time"
)

// Stats хранит общие счетчики по всем сессиям интервью
type Stats struct {
	mu                  sync.RWMutex
	InterviewsStarted   int64     `json:"interviews_started"`
	InterviewsCompleted int64     `json:"interviews_completed"`
	UtterancesSpoken    int64     `json:"utterances_spoken"`
	ActiveSessions      int64     `json:"active_sessions"`
	ModelCallsTotal     int64     `json:"model_calls_total"`
	ModelCallsFailed    int64     `json:"model_calls_failed"`
	LastUpdateTime      time.Time `json:"last_update_time"`
}

func NewStats() *Stats {
	return &Stats{
		LastUpdateTime: time.Now(),
	}
}

func (m *Stats) IncrementInterviewsStarted() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.InterviewsStarted++
	m.ActiveSessions++
	m.LastUpdateTime = time.Now()
}

// SessionClosed фиксирует завершение сессии, успешное или нет
func (m *Stats) SessionClosed(completed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ActiveSessions > 0 {
		m.ActiveSessions--
	}
	if completed {
		m.InterviewsCompleted++
	}
	m.LastUpdateTime = time.Now()
}

func (m *Stats) IncrementUtterancesSpoken() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UtterancesSpoken++
	m.LastUpdateTime = time.Now()
}

func (m *Stats) IncrementModelCall(success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ModelCallsTotal++
	if !success {
		m.ModelCallsFailed++
	}
	m.LastUpdateTime = time.Now()
}

// Snapshot - копия Stats для сериализации
type Snapshot struct {
	InterviewsStarted   int64     `json:"interviews_started"`
	InterviewsCompleted int64     `json:"interviews_completed"`
	UtterancesSpoken    int64     `json:"utterances_spoken"`
	ActiveSessions      int64     `json:"active_sessions"`
	ModelCallsTotal     int64     `json:"model_calls_total"`
	ModelCallsFailed    int64     `json:"model_calls_failed"`
	LastUpdateTime      time.Time `json:"last_update_time"`
}

func (m *Stats) GetSnapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Snapshot{
		InterviewsStarted:   m.InterviewsStarted,
		InterviewsCompleted: m.InterviewsCompleted,
		UtterancesSpoken:    m.UtterancesSpoken,
		ActiveSessions:      m.ActiveSessions,
		ModelCallsTotal:     m.ModelCallsTotal,
		ModelCallsFailed:    m.ModelCallsFailed,
		LastUpdateTime:      m.LastUpdateTime,
	}
}
