// Package session проводит голосовое интервью одного кандидата: связывает
// распознавание речи, интервьюера, синтез речи и метрики.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"mock-interview/internal/metrics"
	"mock-interview/internal/speech"
)

var (
	// ErrTurnInProgress - конец ответа пришел, пока предыдущий ход еще не завершен
	ErrTurnInProgress = errors.New("session: turn in progress")
	// ErrSessionClosed - событие отправлено в завершенную сессию
	ErrSessionClosed = errors.New("session: closed")
	// ErrTooManyFailures - несколько ходов подряд завершились ошибкой
	ErrTooManyFailures = errors.New("session: too many consecutive failures")
)

// Interviewer решает, что сказать дальше
type Interviewer interface {
	Prepare(ctx context.Context) error
	NextUtterance(ctx context.Context, candidateResponse string) (string, bool, error)
	CurrentQuestion() string
	Feedback(ctx context.Context) (string, error)
}

// Config - тайминги и лимиты сессии
type Config struct {
	// GracePeriod - сколько ждать речь после finishedSpeaking, если ничего не распознано
	GracePeriod            time.Duration
	SynthesisTimeout       time.Duration
	MaxConsecutiveFailures int
}

// Deps - зависимости сессии. Tracker и Interviewer принадлежат только этой сессии.
type Deps struct {
	Interviewer Interviewer
	Recognizer  speech.Recognizer
	Synthesizer speech.Synthesizer
	Tracker     *metrics.Tracker
	Stats       *metrics.Stats
	Emitter     Emitter
	Logger      *slog.Logger
}

// Session - одно интервью. Все события обрабатываются в одном цикле Run.
type Session struct {
	ID    string
	Voice string

	cfg  Config
	deps Deps
	log  *slog.Logger

	inbound      chan Inbound
	done         chan struct{}
	closeOnce    sync.Once
	lastActivity atomic.Int64

	// состояние цикла, трогается только из Run
	stream      speech.RecognitionStream
	events      <-chan speech.RecognitionEvent
	response    string
	turnRunning bool
	graceTimer  *time.Timer
	graceC      <-chan time.Time
	failures    int
	// pending - неудавшийся ход, который повторяется при следующем finishedSpeaking
	pending *pendingTurn
}

// pendingTurn - вход хода. ready означает, что реплика text уже получена от
// интервьюера и осталось только ее озвучить.
type pendingTurn struct {
	response string
	text     string
	ready    bool
}

// turnResult - итог одного хода интервьюера
type turnResult struct {
	turn      pendingTurn
	text      string
	audio     []byte
	exhausted bool
	feedback  string
	err       error
}

func New(id, voice string, cfg Config, deps Deps) *Session {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if deps.Tracker == nil {
		deps.Tracker = metrics.NewTracker(nil)
	}
	if cfg.MaxConsecutiveFailures <= 0 {
		cfg.MaxConsecutiveFailures = 3
	}
	if voice == "" {
		voice = speech.DefaultVoice
	}

	s := &Session{
		ID:      id,
		Voice:   voice,
		cfg:     cfg,
		deps:    deps,
		log:     logger.With("session_id", id),
		inbound: make(chan Inbound, 64),
		done:    make(chan struct{}),
	}
	s.touch()
	return s
}

// Send передает событие клиента в цикл сессии
func (s *Session) Send(ctx context.Context, in Inbound) error {
	s.touch()
	select {
	case <-s.done:
		return ErrSessionClosed
	default:
	}
	select {
	case s.inbound <- in:
		return nil
	case <-s.done:
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done закрывается, когда Run завершился
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// LastActivity - время последнего события от клиента
func (s *Session) LastActivity() time.Time {
	return time.Unix(0, s.lastActivity.Load())
}

func (s *Session) touch() {
	s.lastActivity.Store(time.Now().UnixNano())
}

// Run открывает распознавание, задает первый вопрос и обрабатывает события до
// конца интервью, stopRecording или отмены ctx. Незавершенные вызовы модели и
// синтеза не дожидаются, их результат отбрасывается.
func (s *Session) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer s.closeOnce.Do(func() { close(s.done) })

	completed := false
	if s.deps.Stats != nil {
		s.deps.Stats.IncrementInterviewsStarted()
		defer func() { s.deps.Stats.SessionClosed(completed) }()
	}

	s.log.Info("интервью начато", "voice", s.Voice)
	defer func() {
		s.stopGrace()
		s.stopRecognition()
		s.log.Info("интервью завершено", "completed", completed, "error", err)
	}()

	stream, err := s.deps.Recognizer.Start(ctx)
	if err != nil {
		s.emitError("failed to start speech recognition", err)
		return fmt.Errorf("ошибка запуска распознавания: %w", err)
	}
	s.stream = stream
	s.events = stream.Events()
	s.emit(EventRecognitionStarted, nil)

	turnDone := make(chan turnResult, 1)
	s.startTurn(ctx, pendingTurn{}, turnDone)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case in := <-s.inbound:
			if stop := s.handleInbound(ctx, in, turnDone); stop {
				s.emit(EventInterviewMetrics, s.interviewMetrics())
				return nil
			}

		case ev, ok := <-s.events:
			if !ok {
				s.events = nil
				continue
			}
			s.handleRecognition(ctx, ev, turnDone)

		case <-s.graceC:
			s.graceC = nil
			s.graceTimer = nil
			s.finishAnswer(ctx, turnDone)

		case res := <-turnDone:
			s.turnRunning = false
			switch {
			case res.err != nil:
				s.failures++
				pending := res.turn
				s.pending = &pending
				s.log.Error("ход интервьюера завершился ошибкой", "error", res.err, "failures", s.failures)
				s.emitError("failed to generate the next question", res.err)
				if s.failures >= s.cfg.MaxConsecutiveFailures {
					s.emitError("ending interview", ErrTooManyFailures)
					s.emit(EventInterviewMetrics, s.interviewMetrics())
					return ErrTooManyFailures
				}
			case res.exhausted:
				s.emit(EventInterviewEnd, InterviewEnd{Feedback: res.feedback})
				s.emit(EventInterviewMetrics, s.interviewMetrics())
				completed = true
				return nil
			default:
				s.failures = 0
				s.pending = nil
				if s.deps.Stats != nil {
					s.deps.Stats.IncrementUtterancesSpoken()
				}
				s.emit(EventAudio, Audio{Text: res.text, Buffer: res.audio})
			}
		}
	}
}

// handleInbound возвращает true, если клиент остановил интервью
func (s *Session) handleInbound(ctx context.Context, in Inbound, turnDone chan turnResult) bool {
	switch in.Kind {
	case InboundAudio:
		s.writeAudio(in.Audio)

	case InboundQuestionFinishedPlaying:
		s.deps.Tracker.StartQuietTimeTimer()

	case InboundFinishedSpeaking:
		if s.turnRunning {
			s.log.Warn("finishedSpeaking во время хода", "error", ErrTurnInProgress)
			return false
		}
		if s.graceC != nil {
			return false
		}
		if strings.TrimSpace(s.response) == "" && s.cfg.GracePeriod > 0 {
			s.graceTimer = time.NewTimer(s.cfg.GracePeriod)
			s.graceC = s.graceTimer.C
			return false
		}
		s.finishAnswer(ctx, turnDone)

	case InboundStopRecording:
		s.log.Info("клиент остановил запись")
		s.stopRecognition()
		return true
	}
	return false
}

func (s *Session) handleRecognition(ctx context.Context, ev speech.RecognitionEvent, turnDone chan turnResult) {
	switch ev.Kind {
	case speech.EventRecognizing:
		s.deps.Tracker.StartAnswerTimer()
		s.deps.Tracker.EndQuietTimeTimer()
		s.emit(EventSpeechRecognized, SpeechRecognized{Text: ev.Text})

	case speech.EventRecognized:
		s.deps.Tracker.StartAnswerTimer()
		s.deps.Tracker.EndQuietTimeTimer()
		if s.response == "" {
			s.response = ev.Text
		} else {
			s.response += " " + ev.Text
		}
		s.emit(EventSpeechRecognized, SpeechRecognized{Text: ev.Text, IsCompletePhrase: true})
		// речь пришла, пока ждали после finishedSpeaking
		if s.graceC != nil {
			s.stopGrace()
			s.finishAnswer(ctx, turnDone)
		}

	case speech.EventCanceled:
		s.log.Error("распознавание прервано", "error", ev.Err)
		s.emitError("speech recognition canceled", ev.Err)
		s.stopRecognition()
	}
}

// finishAnswer закрывает окно ответа: отправляет метрики ответа и запускает ход интервьюера.
// Если предыдущий ход не удался, он повторяется с тем же ответом, а метрики не отправляются.
func (s *Session) finishAnswer(ctx context.Context, turnDone chan turnResult) {
	if s.pending != nil {
		turn := *s.pending
		s.pending = nil
		if s.response != "" {
			s.log.Debug("речь во время повтора хода отброшена", "text", s.response)
		}
		s.response = ""
		s.deps.Tracker.EndAnswerTimer()
		s.startTurn(ctx, turn, turnDone)
		return
	}

	response := strings.TrimSpace(s.response)
	answer := s.deps.Tracker.GetAnswerMetrics(response)
	quiet := s.deps.Tracker.ResetQuietTime()

	s.emit(EventResponseMetrics, ResponseMetrics{
		Question:          s.deps.Interviewer.CurrentQuestion(),
		Response:          response,
		WordFrequency:     answer.WordFrequency,
		AnswerTimeSeconds: answer.AnswerTimeSeconds,
		QuietTimeSeconds:  quiet,
	})

	s.response = ""
	s.startTurn(ctx, pendingTurn{response: response}, turnDone)
}

func (s *Session) startTurn(ctx context.Context, turn pendingTurn, turnDone chan turnResult) {
	s.turnRunning = true
	go func() {
		res := s.runTurn(ctx, turn)
		select {
		case turnDone <- res:
		case <-ctx.Done():
			s.log.Debug("результат хода отброшен, сессия завершена")
		}
	}()
}

// runTurn выполняется вне цикла: готовит интервью при первом ходе,
// получает реплику и озвучивает ее. Реплика, уже полученная в прошлой
// попытке, только озвучивается заново.
func (s *Session) runTurn(ctx context.Context, turn pendingTurn) turnResult {
	if !turn.ready {
		if err := s.deps.Interviewer.Prepare(ctx); err != nil {
			return turnResult{turn: turn, err: err}
		}

		next, ok, err := s.deps.Interviewer.NextUtterance(ctx, turn.response)
		if err != nil {
			return turnResult{turn: turn, err: err}
		}
		if !ok {
			feedback, err := s.deps.Interviewer.Feedback(ctx)
			if err != nil {
				s.log.Warn("не удалось получить отзыв", "error", err)
			}
			return turnResult{exhausted: true, feedback: feedback}
		}
		turn.text = next
		turn.ready = true
	}
	text := turn.text

	synthCtx := ctx
	if s.cfg.SynthesisTimeout > 0 {
		var cancel context.CancelFunc
		synthCtx, cancel = context.WithTimeout(ctx, s.cfg.SynthesisTimeout)
		defer cancel()
	}
	audio, err := s.deps.Synthesizer.Synthesize(synthCtx, text, s.Voice)
	if err != nil {
		return turnResult{turn: turn, err: fmt.Errorf("ошибка синтеза речи: %w", err)}
	}

	return turnResult{turn: turn, text: text, audio: audio}
}

func (s *Session) writeAudio(chunk []byte) {
	if s.stream == nil || s.events == nil {
		return
	}
	pcm, err := speech.DecodeChunk(chunk)
	if err != nil {
		s.log.Warn("не удалось декодировать аудио", "error", err)
		return
	}
	if err := s.stream.Write(pcm); err != nil {
		s.log.Warn("не удалось отправить аудио в распознавание", "error", err)
	}
}

func (s *Session) stopRecognition() {
	if s.stream == nil {
		return
	}
	if err := s.stream.Close(); err != nil {
		s.log.Debug("ошибка закрытия распознавания", "error", err)
	}
	s.stream = nil
	s.events = nil
}

func (s *Session) stopGrace() {
	if s.graceTimer != nil {
		s.graceTimer.Stop()
	}
	s.graceTimer = nil
	s.graceC = nil
}

func (s *Session) interviewMetrics() InterviewMetrics {
	m := s.deps.Tracker.GetInterviewMetrics()
	return InterviewMetrics{
		WordFrequency:    m.WordFrequency,
		LengthSeconds:    m.LengthSeconds,
		QuietTimeSeconds: m.QuietTimeSeconds,
	}
}

func (s *Session) emit(event string, data any) {
	if err := s.deps.Emitter.Emit(event, data); err != nil {
		s.log.Debug("не удалось отправить событие", "event", event, "error", err)
	}
}

func (s *Session) emitError(what string, err error) {
	s.emit(EventError, Error{Message: fmt.Sprintf("%s: %v", what, err)})
}
