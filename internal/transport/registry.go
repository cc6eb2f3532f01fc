package transport

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"mock-interview/internal/session"
)

// ErrRegistryClosed - сервер останавливается и новые сессии не принимает
var ErrRegistryClosed = errors.New("transport: registry closed")

type registryEntry struct {
	session *session.Session
	cancel  context.CancelFunc
}

// Registry хранит активные сессии и отменяет простаивающие
type Registry struct {
	sessions      map[string]registryEntry
	sessionsMutex sync.RWMutex
	closed        bool
	wg            sync.WaitGroup
	log           *slog.Logger
}

func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		sessions: make(map[string]registryEntry),
		log:      logger,
	}
}

// Run регистрирует сессию и выполняет ее до завершения.
// После CancelAll возвращает ErrRegistryClosed, не запуская сессию.
func (r *Registry) Run(ctx context.Context, s *session.Session) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	r.sessionsMutex.Lock()
	if r.closed {
		r.sessionsMutex.Unlock()
		return ErrRegistryClosed
	}
	r.sessions[s.ID] = registryEntry{session: s, cancel: cancel}
	r.wg.Add(1)
	r.sessionsMutex.Unlock()

	defer func() {
		r.sessionsMutex.Lock()
		delete(r.sessions, s.ID)
		r.sessionsMutex.Unlock()
		r.wg.Done()
	}()

	return s.Run(ctx)
}

// Len возвращает число активных сессий
func (r *Registry) Len() int {
	r.sessionsMutex.RLock()
	defer r.sessionsMutex.RUnlock()
	return len(r.sessions)
}

// StartCleanup раз в interval отменяет сессии без активности дольше idle
func (r *Registry) StartCleanup(ctx context.Context, interval, idle time.Duration) {
	if interval <= 0 || idle <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.CleanupInactive(time.Now().Add(-idle))
			}
		}
	}()
}

// CleanupInactive отменяет сессии, последняя активность которых раньше cutoff.
// Возвращает число отмененных.
func (r *Registry) CleanupInactive(cutoff time.Time) int {
	r.sessionsMutex.RLock()
	defer r.sessionsMutex.RUnlock()

	n := 0
	for id, e := range r.sessions {
		if e.session.LastActivity().Before(cutoff) {
			r.log.Info("сессия отменена по простою", "session_id", id)
			e.cancel()
			n++
		}
	}
	return n
}

// CancelAll отменяет все сессии и закрывает реестр для новых
func (r *Registry) CancelAll() {
	r.sessionsMutex.Lock()
	defer r.sessionsMutex.Unlock()
	r.closed = true
	for _, e := range r.sessions {
		e.cancel()
	}
}

// Wait ждет завершения всех сессий или отмены ctx
func (r *Registry) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
