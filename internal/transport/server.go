// Package transport принимает клиентов по websocket и связывает каждое
// соединение с сессией интервью.
package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"

	"mock-interview/internal/metrics"
	"mock-interview/internal/prompts"
	"mock-interview/internal/session"
	"mock-interview/internal/speech"
)

// Config - параметры HTTP сервера
type Config struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	// SessionIdleTimeout - через сколько отменять сессию без событий от клиента
	SessionIdleTimeout time.Duration
	CleanupInterval    time.Duration

	// RateLimit новых интервью с одного адреса за RateWindow, 0 - без ограничения
	RateLimit  int
	RateWindow time.Duration

	// Persona и Voice используются, если клиент их не передал
	Persona prompts.Persona
	Voice   string
}

// Server обслуживает HTTP маршруты и websocket интервью
type Server struct {
	cfg      Config
	factory  *session.Factory
	stats    *metrics.Stats
	registry *Registry
	limiter  *RateLimiter
	upgrader websocket.Upgrader
	router   *httprouter.Router
	log      *slog.Logger
}

func NewServer(cfg Config, factory *session.Factory, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.RateWindow <= 0 {
		cfg.RateWindow = time.Minute
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = time.Minute
	}
	if !speech.ValidVoice(cfg.Voice) {
		cfg.Voice = speech.DefaultVoice
	}

	s := &Server{
		cfg:      cfg,
		factory:  factory,
		stats:    factory.Stats,
		registry: NewRegistry(logger),
		limiter:  NewRateLimiter(cfg.RateLimit, cfg.RateWindow),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		log: logger,
	}
	if s.stats == nil {
		s.stats = metrics.NewStats()
		factory.Stats = s.stats
	}

	r := httprouter.New()
	r.GET("/", s.index)
	r.GET("/healthz", s.healthz)
	r.GET("/stats", s.statsHandler)
	r.GET("/interview", s.interview)
	s.router = r
	return s
}

// Handler возвращает маршрутизатор сервера
func (s *Server) Handler() http.Handler {
	return s.router
}

// Registry возвращает реестр активных сессий
func (s *Server) Registry() *Registry {
	return s.registry
}

// ListenAndServe обслуживает запросы до отмены ctx, после чего отменяет все
// сессии и останавливает сервер за ShutdownTimeout.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("ошибка запуска сервера на %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve работает как ListenAndServe на готовом listener
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:     s.router,
		ReadTimeout: s.cfg.ReadTimeout,
		// websocket пишет сам со своими дедлайнами
		WriteTimeout: 0,
	}

	cleanupCtx, stopCleanup := context.WithCancel(ctx)
	defer stopCleanup()
	s.registry.StartCleanup(cleanupCtx, s.cfg.CleanupInterval, s.cfg.SessionIdleTimeout)
	go s.pruneLimiter(cleanupCtx)

	serveErr := make(chan error, 1)
	go func() {
		s.log.Info("сервер запущен", "addr", ln.Addr().String())
		serveErr <- srv.Serve(ln)
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("ошибка сервера: %w", err)
	case <-ctx.Done():
	}

	s.log.Info("остановка сервера", "active_sessions", s.registry.Len())
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout())
	defer cancel()

	s.registry.CancelAll()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("ошибка остановки сервера: %w", err)
	}
	if err := s.registry.Wait(shutdownCtx); err != nil {
		return fmt.Errorf("не все сессии завершились: %w", err)
	}
	return nil
}

func (s *Server) shutdownTimeout() time.Duration {
	if s.cfg.ShutdownTimeout > 0 {
		return s.cfg.ShutdownTimeout
	}
	return 30 * time.Second
}

func (s *Server) pruneLimiter(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RateWindow)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.limiter.Prune()
		}
	}
}

func (s *Server) index(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("mock-interview: connect a websocket to /interview\n"))
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) statsHandler(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	writeJSON(w, http.StatusOK, s.stats.GetSnapshot())
}

func (s *Server) interview(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	addr := remoteHost(r)
	if !s.limiter.IsAllowed(addr) {
		s.log.Warn("превышен лимит новых интервью", "remote", addr)
		writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "too many interviews, try again in a minute"})
		return
	}

	opts := ParseOptions(r.URL.Query(), s.cfg.Persona, s.cfg.Voice)

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("ошибка websocket upgrade", "remote", addr, "error", err)
		return
	}

	id := uuid.NewString()
	logger := s.log.With("session_id", id)
	conn := NewConn(ws, s.cfg.WriteTimeout, logger)
	sess := s.factory.New(id, opts, conn)
	logger.Info("клиент подключен", "remote", addr, "candidate", opts.Candidate.Name, "voice", opts.Voice)

	ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))
	defer cancel()

	runErr := make(chan error, 1)
	go func() {
		err := s.registry.Run(ctx, sess)
		// сессия все отправила, закрываем соединение, чтобы завершить чтение
		_ = conn.Close()
		runErr <- err
	}()

	if err := conn.ReadLoop(ctx, sess); err != nil && !isNormalClose(err) && !errors.Is(err, session.ErrSessionClosed) {
		logger.Debug("чтение websocket завершено", "error", err)
	}
	cancel()

	if err := <-runErr; errors.Is(err, ErrRegistryClosed) {
		logger.Info("сервер останавливается, интервью не начато")
	} else if err != nil && !errors.Is(err, context.Canceled) {
		logger.Warn("сессия завершилась с ошибкой", "error", err)
	}
	logger.Info("клиент отключен")
}

// ParseOptions собирает параметры интервью из query подключения.
// Отсутствующие и некорректные значения берутся из умолчаний.
func ParseOptions(q url.Values, persona prompts.Persona, voice string) session.Options {
	opts := session.Options{
		Persona: persona,
		Voice:   voice,
	}

	if v := strings.TrimSpace(q.Get("interviewerName")); v != "" {
		opts.Persona.Name = v
	}
	if v := strings.TrimSpace(q.Get("interviewerAge")); v != "" {
		if age, err := strconv.Atoi(v); err == nil && age > 0 {
			opts.Persona.Age = age
		}
	}
	if v := strings.TrimSpace(q.Get("interviewerBio")); v != "" {
		opts.Persona.Bio = v
	}
	if v := strings.TrimSpace(q.Get("interviewerVoice")); speech.ValidVoice(v) {
		opts.Voice = v
	}

	opts.Candidate = prompts.Candidate{
		Name:   strings.TrimSpace(q.Get("candidateName")),
		Resume: strings.TrimSpace(q.Get("candidateResume")),
	}
	opts.Job = prompts.Job{
		Title:       strings.TrimSpace(q.Get("jobTitle")),
		Description: strings.TrimSpace(q.Get("jobDescription")),
	}
	return opts
}

func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func isNormalClose(err error) bool {
	return websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) ||
		errors.Is(err, net.ErrClosed)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
