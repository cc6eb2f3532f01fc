package speech

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	DefaultDeepgramURL   = "wss://api.deepgram.com/v1/listen"
	DefaultDeepgramModel = "nova-2"
)

// DeepgramConfig описывает подключение к потоковому распознаванию Deepgram
type DeepgramConfig struct {
	APIKey     string
	URL        string
	Model      string
	Language   string
	SampleRate int
	Channels   int
	// KeepAlive - период отправки KeepAlive, пока кандидат молчит. 0 отключает.
	KeepAlive    time.Duration
	WriteTimeout time.Duration
}

// DeepgramRecognizer открывает websocket к Deepgram на каждую сессию
type DeepgramRecognizer struct {
	cfg    DeepgramConfig
	dialer *websocket.Dialer
}

// NewDeepgramRecognizer создает распознаватель с настройками по умолчанию для пустых полей
func NewDeepgramRecognizer(cfg DeepgramConfig) *DeepgramRecognizer {
	if cfg.URL == "" {
		cfg.URL = DefaultDeepgramURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultDeepgramModel
	}
	if cfg.Language == "" {
		cfg.Language = "en-US"
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 48000
	}
	if cfg.Channels == 0 {
		cfg.Channels = 1
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	return &DeepgramRecognizer{
		cfg:    cfg,
		dialer: websocket.DefaultDialer,
	}
}

func (r *DeepgramRecognizer) listenURL() (string, error) {
	u, err := url.Parse(r.cfg.URL)
	if err != nil {
		return "", fmt.Errorf("неверный адрес Deepgram %q: %w", r.cfg.URL, err)
	}
	q := u.Query()
	q.Set("model", r.cfg.Model)
	q.Set("language", r.cfg.Language)
	q.Set("encoding", "linear16")
	q.Set("sample_rate", strconv.Itoa(r.cfg.SampleRate))
	q.Set("channels", strconv.Itoa(r.cfg.Channels))
	q.Set("interim_results", "true")
	q.Set("punctuate", "true")
	q.Set("smart_format", "true")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Start открывает поток распознавания
func (r *DeepgramRecognizer) Start(ctx context.Context) (RecognitionStream, error) {
	endpoint, err := r.listenURL()
	if err != nil {
		return nil, err
	}

	headers := http.Header{}
	headers.Set("Authorization", "Token "+r.cfg.APIKey)

	conn, resp, err := r.dialer.DialContext(ctx, endpoint, headers)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("ошибка подключения к Deepgram (HTTP %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("ошибка подключения к Deepgram: %w", err)
	}

	s := &deepgramStream{
		conn:         conn,
		writeTimeout: r.cfg.WriteTimeout,
		events:       make(chan RecognitionEvent, 64),
		done:         make(chan struct{}),
	}
	go s.receiveLoop()
	if r.cfg.KeepAlive > 0 {
		go s.keepAliveLoop(r.cfg.KeepAlive)
	}
	return s, nil
}

type deepgramStream struct {
	conn         *websocket.Conn
	writeTimeout time.Duration

	writeMu   sync.Mutex
	events    chan RecognitionEvent
	done      chan struct{}
	closeOnce sync.Once
}

// deepgramMessage - ответ Deepgram. Нас интересуют только сообщения Results.
type deepgramMessage struct {
	Type    string `json:"type"`
	Channel struct {
		Alternatives []struct {
			Transcript string  `json:"transcript"`
			Confidence float64 `json:"confidence"`
		} `json:"alternatives"`
	} `json:"channel"`
	IsFinal     bool `json:"is_final"`
	SpeechFinal bool `json:"speech_final"`
}

func (s *deepgramStream) Events() <-chan RecognitionEvent {
	return s.events
}

func (s *deepgramStream) Write(pcm []byte) error {
	select {
	case <-s.done:
		return fmt.Errorf("запись в закрытый поток распознавания: %w", ErrRecognitionCanceled)
	default:
	}
	return s.write(websocket.BinaryMessage, pcm)
}

func (s *deepgramStream) write(messageType int, data []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if s.writeTimeout > 0 {
		_ = s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
	}
	if err := s.conn.WriteMessage(messageType, data); err != nil {
		return fmt.Errorf("ошибка отправки в Deepgram: %w", err)
	}
	return nil
}

// Close просит Deepgram закрыть поток и закрывает соединение. Повторный вызов безопасен.
func (s *deepgramStream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		_ = s.write(websocket.TextMessage, []byte(`{"type":"CloseStream"}`))
		err = s.conn.Close()
	})
	return err
}

func (s *deepgramStream) receiveLoop() {
	defer close(s.events)

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			select {
			case <-s.done:
			default:
				s.emit(RecognitionEvent{
					Kind: EventCanceled,
					Err:  fmt.Errorf("%w: %v", ErrRecognitionCanceled, err),
				})
				s.closeOnce.Do(func() {
					close(s.done)
					_ = s.conn.Close()
				})
			}
			return
		}

		var msg deepgramMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		if msg.Type != "Results" || len(msg.Channel.Alternatives) == 0 {
			continue
		}

		text := strings.TrimSpace(msg.Channel.Alternatives[0].Transcript)
		switch {
		case !msg.IsFinal:
			if text != "" {
				s.emit(RecognitionEvent{Kind: EventRecognizing, Text: text})
			}
		case len(text) > 1:
			s.emit(RecognitionEvent{Kind: EventRecognized, Text: text})
		}
	}
}

func (s *deepgramStream) emit(ev RecognitionEvent) {
	select {
	case s.events <- ev:
	case <-s.done:
	}
}

func (s *deepgramStream) keepAliveLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			if err := s.write(websocket.TextMessage, []byte(`{"type":"KeepAlive"}`)); err != nil {
				return
			}
		}
	}
}
