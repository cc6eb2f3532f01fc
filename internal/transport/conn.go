package transport

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"mock-interview/internal/session"
)

// Входящие события клиента
const (
	InboundAudioData               = "audioData"
	InboundFinishedSpeaking        = "finishedSpeaking"
	InboundStopRecording           = "stopRecording"
	InboundQuestionFinishedPlaying = "questionFinishedPlaying"
	InboundQuestionAsked           = "questionAsked"
)

// ErrUnknownEvent - клиент прислал событие, которого нет в протоколе
var ErrUnknownEvent = errors.New("transport: unknown event")

// Envelope - формат текстового кадра в обе стороны
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type outbound struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

type audioData struct {
	Audio string `json:"audio"`
}

// Conn - websocket клиента. Реализует session.Emitter.
type Conn struct {
	ws           *websocket.Conn
	writeMu      sync.Mutex
	writeTimeout time.Duration
	log          *slog.Logger
}

func NewConn(ws *websocket.Conn, writeTimeout time.Duration, logger *slog.Logger) *Conn {
	if logger == nil {
		logger = slog.Default()
	}
	return &Conn{ws: ws, writeTimeout: writeTimeout, log: logger}
}

// Emit отправляет событие клиенту. Безопасен для вызова из нескольких горутин.
func (c *Conn) Emit(event string, data any) error {
	payload, err := json.Marshal(outbound{Event: event, Data: data})
	if err != nil {
		return fmt.Errorf("ошибка сериализации события %s: %w", event, err)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.writeTimeout > 0 {
		_ = c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	}
	if err := c.ws.WriteMessage(websocket.TextMessage, payload); err != nil {
		return fmt.Errorf("ошибка отправки события %s: %w", event, err)
	}
	return nil
}

// Close закрывает соединение с кодом нормального завершения
func (c *Conn) Close() error {
	c.writeMu.Lock()
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	c.writeMu.Unlock()
	return c.ws.Close()
}

// ReadLoop читает кадры клиента и передает их в сессию, пока соединение открыто
// и сессия жива. Ошибки разбора отдельных кадров логируются и пропускаются.
func (c *Conn) ReadLoop(ctx context.Context, s *session.Session) error {
	for {
		mt, data, err := c.ws.ReadMessage()
		if err != nil {
			return err
		}

		var in session.Inbound
		switch mt {
		case websocket.BinaryMessage:
			in = session.Inbound{Kind: session.InboundAudio, Audio: data}
		case websocket.TextMessage:
			in, err = ParseInbound(data)
			if err != nil {
				c.log.Warn("некорректное событие клиента", "error", err)
				continue
			}
		default:
			continue
		}

		if err := s.Send(ctx, in); err != nil {
			return err
		}
	}
}

// ParseInbound разбирает текстовый кадр клиента
func ParseInbound(frame []byte) (session.Inbound, error) {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return session.Inbound{}, fmt.Errorf("ошибка парсинга JSON: %w", err)
	}

	switch env.Event {
	case InboundAudioData:
		var d audioData
		if err := json.Unmarshal(env.Data, &d); err != nil {
			return session.Inbound{}, fmt.Errorf("ошибка парсинга audioData: %w", err)
		}
		audio, err := base64.StdEncoding.DecodeString(d.Audio)
		if err != nil {
			return session.Inbound{}, fmt.Errorf("ошибка декодирования audioData: %w", err)
		}
		return session.Inbound{Kind: session.InboundAudio, Audio: audio}, nil
	case InboundFinishedSpeaking:
		return session.Inbound{Kind: session.InboundFinishedSpeaking}, nil
	case InboundStopRecording:
		return session.Inbound{Kind: session.InboundStopRecording}, nil
	case InboundQuestionFinishedPlaying, InboundQuestionAsked:
		return session.Inbound{Kind: session.InboundQuestionFinishedPlaying}, nil
	default:
		return session.Inbound{}, fmt.Errorf("%q: %w", env.Event, ErrUnknownEvent)
	}
}
