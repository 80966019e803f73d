package websocket

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Divya4879/Sassy-AI-Debate-Coach/adapters/hasher"
	httpadapter "github.com/Divya4879/Sassy-AI-Debate-Coach/adapters/http"
	"github.com/Divya4879/Sassy-AI-Debate-Coach/adapters/message_broker"
	"github.com/Divya4879/Sassy-AI-Debate-Coach/domain"
	"github.com/Divya4879/Sassy-AI-Debate-Coach/usecase"
)

type fakeStreamSpeech struct {
	unavailable bool
	// closeGate, when set, holds Close until it is closed.
	closeGate chan struct{}

	mu    sync.Mutex
	bytes int
}

func (f *fakeStreamSpeech) Transcribe(context.Context, string) string { return "" }

func (f *fakeStreamSpeech) Synthesize(context.Context, string, string) (domain.AudioClip, error) {
	return domain.AudioClip{}, domain.ErrSpeechUnavailable
}

func (f *fakeStreamSpeech) Status() domain.VoiceStatus {
	return domain.VoiceStatus{StreamingAvailable: !f.unavailable}
}

func (f *fakeStreamSpeech) StartStreaming(_ context.Context, h domain.StreamHandlers) (domain.StreamSession, error) {
	if f.unavailable {
		return nil, domain.ErrSpeechUnavailable
	}
	return &fakeStream{owner: f, handlers: h}, nil
}

type fakeStream struct {
	owner    *fakeStreamSpeech
	handlers domain.StreamHandlers
}

func (s *fakeStream) Write(audio []byte) error {
	s.owner.mu.Lock()
	s.owner.bytes += len(audio)
	s.owner.mu.Unlock()
	s.handlers.OnPartial("school uniforms")
	return nil
}

func (s *fakeStream) Close() error {
	if s.owner.closeGate != nil {
		<-s.owner.closeGate
	}
	s.handlers.OnFinal("School uniforms limit expression.")
	return nil
}

func startServer(t *testing.T, speech domain.SpeechProvider) (*Server, string) {
	t.Helper()

	broker := message_broker.NewChannelMessageBroker()
	t.Cleanup(func() { broker.Close() })

	voice := usecase.NewVoiceService(speech, hasher.NewFingerprint(), t.TempDir(), t.TempDir())
	server := NewServer(voice, broker, func(c echo.Context) string {
		return c.QueryParam("sid")
	})

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	require.NoError(t, server.Run(ctx))

	e := echo.New()
	e.GET("/ws/transcribe", server.Handler)
	ts := httptest.NewServer(e)
	t.Cleanup(ts.Close)

	return server, "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/transcribe"
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) domain.TranscriptEvent {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var event domain.TranscriptEvent
	require.NoError(t, json.Unmarshal(data, &event))
	return event
}

func TestServer_StreamsTranscript(t *testing.T) {
	speech := &fakeStreamSpeech{}
	server, url := startServer(t, speech)
	conn := dial(t, url+"?sid=s1")

	require.Eventually(t, func() bool { return server.GetHub().IsSessionConnected("s1") }, time.Second, 10*time.Millisecond)

	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, make([]byte, 3200)))
	partial := readEvent(t, conn)
	assert.Equal(t, domain.TranscriptPartial, partial.Type)
	assert.Equal(t, "school uniforms", partial.Text)
	assert.Equal(t, "s1", partial.SessionID)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("stop")))
	final := readEvent(t, conn)
	assert.Equal(t, domain.TranscriptFinal, final.Type)
	assert.Equal(t, "School uniforms limit expression.", final.Text)

	speech.mu.Lock()
	assert.Equal(t, 3200, speech.bytes)
	speech.mu.Unlock()
}

func TestServer_OtherSessionsDoNotReceiveEvents(t *testing.T) {
	server, url := startServer(t, &fakeStreamSpeech{})
	speaker := dial(t, url+"?sid=s1")
	listener := dial(t, url+"?sid=s2")

	require.Eventually(t, func() bool { return server.GetHub().ClientCount() == 2 }, time.Second, 10*time.Millisecond)

	require.NoError(t, speaker.WriteMessage(websocket.BinaryMessage, []byte{1, 2}))
	assert.Equal(t, domain.TranscriptPartial, readEvent(t, speaker).Type)

	require.NoError(t, listener.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, _, err := listener.ReadMessage()
	assert.Error(t, err)

	assert.Error(t, server.GetHub().SendToSession("", []byte("{}")), "no fan-out to every session")
	assert.Error(t, server.GetHub().SendToSession("s3", []byte("{}")))
}

func TestServer_StreamingUnavailable(t *testing.T) {
	server, url := startServer(t, &fakeStreamSpeech{unavailable: true})
	conn := dial(t, url+"?sid=s1")

	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, []byte{1, 2, 3, 4}))
	event := readEvent(t, conn)
	assert.Equal(t, domain.TranscriptError, event.Type)
	assert.Equal(t, "Real-time transcription not available", event.Error)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return server.GetHub().ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestServer_DisconnectDoesNotWaitForFinal(t *testing.T) {
	speech := &fakeStreamSpeech{closeGate: make(chan struct{})}
	t.Cleanup(func() { close(speech.closeGate) })
	server, url := startServer(t, speech)
	conn := dial(t, url+"?sid=s1")

	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, []byte{1, 2}))
	assert.Equal(t, domain.TranscriptPartial, readEvent(t, conn).Type)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return server.GetHub().ClientCount() == 0 }, time.Second, 10*time.Millisecond)
}

func TestServer_IssuesSessionCookieOnUpgrade(t *testing.T) {
	broker := message_broker.NewChannelMessageBroker()
	t.Cleanup(func() { broker.Close() })

	voice := usecase.NewVoiceService(&fakeStreamSpeech{}, hasher.NewFingerprint(), t.TempDir(), t.TempDir())
	server := NewServer(voice, broker, httpadapter.SessionID)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	require.NoError(t, server.Run(ctx))

	sessions := httpadapter.NewSessions("secret", time.Hour, false)
	e := echo.New()
	e.GET("/ws/transcribe", server.Handler, sessions.Middleware)
	ts := httptest.NewServer(e)
	t.Cleanup(ts.Close)

	conn, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws/transcribe", nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	cookies := resp.Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, httpadapter.SessionCookie, cookies[0].Name)

	sessionID, err := sessions.Parse(cookies[0].Value)
	require.NoError(t, err)
	assert.Eventually(t, func() bool { return server.GetHub().IsSessionConnected(sessionID) }, time.Second, 10*time.Millisecond)

	// Events published for that session reach the socket.
	require.NoError(t, message_broker.PublishTranscript(ctx, broker, domain.TranscriptEvent{
		Type: domain.TranscriptFinal, SessionID: sessionID, Text: "from stream_audio",
	}))
	event := readEvent(t, conn)
	assert.Equal(t, "from stream_audio", event.Text)
}
