package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/Divya4879/Sassy-AI-Debate-Coach/domain"
	"github.com/Divya4879/Sassy-AI-Debate-Coach/utils/log"
	"go.uber.org/zap"
)

const (
	commandStart = "start"
	commandStop  = "stop"
)

// Handler serves /ws/transcribe. Binary frames are 16kHz mono PCM; the text
// frame "stop" ends the utterance and yields a final transcript, after which
// further audio starts a new one.
func (s *Server) Handler(c echo.Context) error {
	conn, err := s.upgrader.Upgrade(c.Response(), c.Request(), upgradeHeader(c))
	if err != nil {
		return err
	}

	sessionID := s.sessionID(c)
	t := &transcription{server: s, sessionID: sessionID}
	client := NewClient(context.Background(), conn, sessionID, t.onMessage)
	t.client = client

	s.hub.Register(client)
	client.Run()
	defer s.hub.Unregister(client)

	<-client.Context().Done()
	// Nobody is left to receive the final, so the provider is not waited on.
	go t.stop()
	return nil
}

// upgradeHeader carries cookies set by earlier middleware, such as a freshly
// issued session, onto the 101 response. Upgrade writes only this header.
func upgradeHeader(c echo.Context) http.Header {
	cookies := c.Response().Header().Values(echo.HeaderSetCookie)
	if len(cookies) == 0 {
		return nil
	}
	return http.Header{echo.HeaderSetCookie: cookies}
}

// transcription is the per-connection stream state.
type transcription struct {
	server    *Server
	client    *Client
	sessionID string

	mu     sync.Mutex
	stream domain.StreamSession
}

func (t *transcription) onMessage(messageType int, data []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()
	ctx := t.client.Context()

	if messageType == websocket.TextMessage {
		switch strings.ToLower(strings.TrimSpace(string(data))) {
		case commandStart:
			t.start(ctx)
		case commandStop:
			t.closeStream()
		default:
			log.WithCtx(ctx).Debug("Ignoring text message", zap.ByteString("message", data))
		}
		return
	}

	if t.stream == nil && !t.start(ctx) {
		return
	}
	if err := t.stream.Write(data); err != nil {
		log.WithCtx(ctx).Warn("Error forwarding audio frame", zap.Error(err))
		t.closeStream()
	}
}

func (t *transcription) start(ctx context.Context) bool {
	if t.stream != nil {
		return true
	}

	// Events are published for the whole session, so they are not tied to
	// this connection's context.
	publishCtx := log.ContextWithSession(context.Background(), t.sessionID)
	stream, err := t.server.voice.StartStreaming(ctx, domain.StreamHandlers{
		OnPartial: func(text string) {
			t.server.publish(publishCtx, domain.TranscriptEvent{Type: domain.TranscriptPartial, SessionID: t.sessionID, Text: text})
		},
		OnFinal: func(text string) {
			t.server.publish(publishCtx, domain.TranscriptEvent{Type: domain.TranscriptFinal, SessionID: t.sessionID, Text: text})
		},
		OnError: func(err error) {
			t.server.publish(publishCtx, domain.TranscriptEvent{Type: domain.TranscriptError, SessionID: t.sessionID, Error: err.Error()})
		},
	})
	if err != nil {
		msg := "Error starting real-time transcription"
		if errors.Is(err, domain.ErrSpeechUnavailable) {
			msg = "Real-time transcription not available"
		}
		log.WithCtx(ctx).Warn(msg, zap.Error(err))
		t.sendError(msg)
		return false
	}

	t.stream = stream
	log.WithCtx(ctx).Info("🎤 Realtime transcription started")
	return true
}

func (t *transcription) stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closeStream()
}

func (t *transcription) closeStream() {
	if t.stream == nil {
		return
	}
	if err := t.stream.Close(); err != nil {
		log.WithCtx(t.client.Context()).Debug("Closing transcription stream", zap.Error(err))
	}
	t.stream = nil
}

// sendError answers this connection directly; there is no stream to route
// through.
func (t *transcription) sendError(msg string) {
	payload, err := json.Marshal(domain.TranscriptEvent{
		Type:      domain.TranscriptError,
		SessionID: t.sessionID,
		Error:     msg,
		Timestamp: t.server.now(),
	})
	if err != nil {
		return
	}
	_ = t.client.SendMessage(payload)
}
