package transport

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mock-interview/internal/api"
	"mock-interview/internal/metrics"
	"mock-interview/internal/prompts"
	"mock-interview/internal/session"
	"mock-interview/internal/speech"
)

type echoCompleter struct{}

func (echoCompleter) Complete(context.Context, string, []api.Message) (string, error) {
	return "Sure.", nil
}

type nopStream struct {
	mu      sync.Mutex
	written int
	events  chan speech.RecognitionEvent
	once    sync.Once
}

func (s *nopStream) Write([]byte) error {
	s.mu.Lock()
	s.written++
	s.mu.Unlock()
	return nil
}

func (s *nopStream) Events() <-chan speech.RecognitionEvent { return s.events }

func (s *nopStream) Close() error {
	s.once.Do(func() { close(s.events) })
	return nil
}

type nopRecognizer struct {
	mu      sync.Mutex
	streams []*nopStream
}

func (r *nopRecognizer) Start(context.Context) (speech.RecognitionStream, error) {
	s := &nopStream{events: make(chan speech.RecognitionEvent)}
	r.mu.Lock()
	r.streams = append(r.streams, s)
	r.mu.Unlock()
	return s, nil
}

func (r *nopRecognizer) written() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, s := range r.streams {
		s.mu.Lock()
		n += s.written
		s.mu.Unlock()
	}
	return n
}

type textSynthesizer struct{}

func (textSynthesizer) Synthesize(_ context.Context, text, _ string) ([]byte, error) {
	return []byte(text), nil
}

func newTestServer(t *testing.T, cfg Config) (*Server, *httptest.Server, *nopRecognizer) {
	t.Helper()
	rec := &nopRecognizer{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	factory := &session.Factory{
		Completer:   echoCompleter{},
		Recognizer:  rec,
		Synthesizer: textSynthesizer{},
		Stats:       metrics.NewStats(),
		Logger:      logger,
		Bank:        []string{"Tell me about a bug you fixed."},
		Required:    1,
	}
	srv := NewServer(cfg, factory, logger)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, ts, rec
}

func dial(t *testing.T, ts *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	u := "ws" + strings.TrimPrefix(ts.URL, "http") + "/interview"
	if query != "" {
		u += "?" + query
	}
	ws, _, err := websocket.DefaultDialer.Dial(u, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ws.Close() })
	return ws
}

type received struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func readEvent(t *testing.T, ws *websocket.Conn, event string) received {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		mt, data, err := ws.ReadMessage()
		require.NoError(t, err)
		require.Equal(t, websocket.TextMessage, mt)
		var r received
		require.NoError(t, json.Unmarshal(data, &r))
		if r.Event == event {
			return r
		}
	}
}

func sendEvent(t *testing.T, ws *websocket.Conn, event string, data any) {
	t.Helper()
	payload := map[string]any{"event": event}
	if data != nil {
		payload["data"] = data
	}
	require.NoError(t, ws.WriteJSON(payload))
}

func TestParseInbound(t *testing.T) {
	tests := []struct {
		name    string
		frame   string
		want    session.Inbound
		wantErr error
	}{
		{"finished", `{"event":"finishedSpeaking"}`, session.Inbound{Kind: session.InboundFinishedSpeaking}, nil},
		{"stop", `{"event":"stopRecording"}`, session.Inbound{Kind: session.InboundStopRecording}, nil},
		{"played", `{"event":"questionFinishedPlaying"}`, session.Inbound{Kind: session.InboundQuestionFinishedPlaying}, nil},
		{"asked alias", `{"event":"questionAsked"}`, session.Inbound{Kind: session.InboundQuestionFinishedPlaying}, nil},
		{"audio", `{"event":"audioData","data":{"audio":"AQID"}}`, session.Inbound{Kind: session.InboundAudio, Audio: []byte{1, 2, 3}}, nil},
		{"unknown", `{"event":"dance"}`, session.Inbound{}, ErrUnknownEvent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseInbound([]byte(tt.frame))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseInbound([]byte(`{"event":"audioData","data":{"audio":"%%%"}}`))
	assert.Error(t, err)
	_, err = ParseInbound([]byte(`not json`))
	assert.Error(t, err)
}

func TestParseOptions(t *testing.T) {
	persona := prompts.Persona{Name: "Sasha", Age: 30, Bio: "bio"}

	opts := ParseOptions(url.Values{}, persona, speech.VoiceLiam)
	assert.Equal(t, persona, opts.Persona)
	assert.Equal(t, speech.VoiceLiam, opts.Voice)
	assert.Empty(t, opts.Candidate.Name)

	q := url.Values{}
	q.Set("interviewerName", "Robin")
	q.Set("interviewerAge", "41")
	q.Set("interviewerVoice", speech.VoiceClara)
	q.Set("candidateName", " Dana ")
	q.Set("candidateResume", "Go developer")
	q.Set("jobTitle", "Backend Engineer")
	opts = ParseOptions(q, persona, speech.VoiceLiam)
	assert.Equal(t, prompts.Persona{Name: "Robin", Age: 41, Bio: "bio"}, opts.Persona)
	assert.Equal(t, speech.VoiceClara, opts.Voice)
	assert.Equal(t, prompts.Candidate{Name: "Dana", Resume: "Go developer"}, opts.Candidate)
	assert.Equal(t, "Backend Engineer", opts.Job.Title)

	q = url.Values{}
	q.Set("interviewerAge", "old")
	q.Set("interviewerVoice", "robot")
	opts = ParseOptions(q, persona, speech.VoiceLiam)
	assert.Equal(t, 30, opts.Persona.Age)
	assert.Equal(t, speech.VoiceLiam, opts.Voice)
}

func TestRateLimiter(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(2, time.Minute)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.IsAllowed("a"))
	assert.True(t, rl.IsAllowed("a"))
	assert.False(t, rl.IsAllowed("a"))
	assert.True(t, rl.IsAllowed("b"))

	now = now.Add(time.Minute)
	assert.True(t, rl.IsAllowed("a"))

	now = now.Add(2 * time.Minute)
	rl.Prune()
	assert.Empty(t, rl.requests)

	assert.True(t, NewRateLimiter(0, time.Minute).IsAllowed("x"))
}

func TestHealthzAndStats(t *testing.T) {
	_, ts, _ := newTestServer(t, Config{})

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp2, err := http.Get(ts.URL + "/stats")
	require.NoError(t, err)
	defer resp2.Body.Close()
	var snap metrics.Snapshot
	require.NoError(t, json.NewDecoder(resp2.Body).Decode(&snap))
	assert.EqualValues(t, 0, snap.InterviewsStarted)
}

func TestInterviewOverWebsocket(t *testing.T) {
	srv, ts, rec := newTestServer(t, Config{Voice: speech.VoiceLiam})
	ws := dial(t, ts, "candidateName=Dana")

	readEvent(t, ws, session.EventRecognitionStarted)

	var audio session.Audio
	require.NoError(t, json.Unmarshal(readEvent(t, ws, session.EventAudio).Data, &audio))
	assert.Equal(t, "Hey Dana, thanks for joining me today. How're you doing?", audio.Text)
	assert.Equal(t, []byte(audio.Text), audio.Buffer)

	require.NoError(t, ws.WriteMessage(websocket.BinaryMessage, []byte{1, 2}))
	sendEvent(t, ws, InboundAudioData, map[string]string{"audio": "AwQ="})
	assert.Eventually(t, func() bool { return rec.written() == 2 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, srv.Registry().Len())

	sendEvent(t, ws, InboundFinishedSpeaking, nil)
	var m session.ResponseMetrics
	require.NoError(t, json.Unmarshal(readEvent(t, ws, session.EventResponseMetrics).Data, &m))
	assert.Equal(t, "How're you doing?", m.Question)
	readEvent(t, ws, session.EventAudio)

	sendEvent(t, ws, InboundStopRecording, nil)
	readEvent(t, ws, session.EventInterviewMetrics)

	// сервер закрывает соединение после завершения сессии
	_, _, err := ws.ReadMessage()
	require.Error(t, err)
	assert.Eventually(t, func() bool { return srv.Registry().Len() == 0 }, 2*time.Second, 10*time.Millisecond)

	snap := srv.stats.GetSnapshot()
	assert.EqualValues(t, 1, snap.InterviewsStarted)
	assert.EqualValues(t, 0, snap.ActiveSessions)
}

func TestInterviewRateLimited(t *testing.T) {
	_, ts, _ := newTestServer(t, Config{RateLimit: 1, RateWindow: time.Hour})
	dial(t, ts, "")

	u := "ws" + strings.TrimPrefix(ts.URL, "http") + "/interview"
	_, resp, err := websocket.DefaultDialer.Dial(u, nil)
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}

func TestIdleSessionCleanup(t *testing.T) {
	srv, ts, _ := newTestServer(t, Config{})
	ws := dial(t, ts, "")
	readEvent(t, ws, session.EventAudio)

	assert.Zero(t, srv.Registry().CleanupInactive(time.Now().Add(-time.Hour)))
	assert.Equal(t, 1, srv.Registry().CleanupInactive(time.Now().Add(time.Hour)))

	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			var netErr interface{ Timeout() bool }
			assert.False(t, errors.As(err, &netErr) && netErr.Timeout(), "connection was not closed")
			break
		}
	}
	require.NoError(t, srv.Registry().Wait(context.Background()))
}

type discardEmitter struct{}

func (discardEmitter) Emit(string, any) error { return nil }

func TestRegistryRejectsAfterCancelAll(t *testing.T) {
	srv, _, _ := newTestServer(t, Config{})
	reg := NewRegistry(nil)
	reg.CancelAll()

	s := srv.factory.New("late", session.Options{}, discardEmitter{})
	err := reg.Run(context.Background(), s)
	require.ErrorIs(t, err, ErrRegistryClosed)
	assert.Zero(t, reg.Len())
	require.NoError(t, reg.Wait(context.Background()))

	select {
	case <-s.Done():
		t.Fatal("session must not run")
	default:
	}
}

func TestServeShutdown(t *testing.T) {
	srv, _, _ := newTestServer(t, Config{Addr: "127.0.0.1:0", ShutdownTimeout: 2 * time.Second})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.ListenAndServe(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}
}
