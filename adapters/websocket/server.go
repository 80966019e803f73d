package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/Divya4879/Sassy-AI-Debate-Coach/adapters/message_broker"
	"github.com/Divya4879/Sassy-AI-Debate-Coach/domain"
	"github.com/Divya4879/Sassy-AI-Debate-Coach/usecase"
	"github.com/Divya4879/Sassy-AI-Debate-Coach/utils/log"
	"go.uber.org/zap"
)

// Server streams microphone audio from browsers into realtime
// transcription. Transcript events travel through the broker and reach the
// browser via the hub, so any component can publish them.
type Server struct {
	upgrader      websocket.Upgrader
	voice         *usecase.VoiceService
	messageBroker domain.MessageBroker
	hub           *Hub
	sessionID     func(echo.Context) string
	now           func() time.Time
}

// NewServer reads the caller's session id with sessionID, which is expected
// to be populated by the session middleware.
func NewServer(voice *usecase.VoiceService, messageBroker domain.MessageBroker, sessionID func(echo.Context) string) *Server {
	return &Server{
		upgrader:      websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		voice:         voice,
		messageBroker: messageBroker,
		hub:           NewHub(),
		sessionID:     sessionID,
		now:           time.Now,
	}
}

// Run starts the hub and the transcript listener. Both stop with ctx.
func (s *Server) Run(ctx context.Context) error {
	messageChan, err := s.messageBroker.Subscribe(ctx, message_broker.TranscriptsTopic, "")
	if err != nil {
		return err
	}
	s.hub.Run(ctx)
	go s.forwardTranscripts(ctx, messageChan)
	return nil
}

func (s *Server) GetHub() *Hub {
	return s.hub
}

func (s *Server) forwardTranscripts(ctx context.Context, messageChan <-chan domain.Message) {
	log.WithCtx(ctx).Info("🎧 WebSocket server listening to transcript events")

	for {
		select {
		case msg, ok := <-messageChan:
			if !ok {
				log.WithCtx(ctx).Info("🔒 Transcript listener stopped")
				return
			}
			event, err := message_broker.DecodeTranscript(msg)
			if err != nil {
				log.WithCtx(ctx).Error("❌ Failed to decode transcript event", zap.Error(err))
				continue
			}
			payload, err := json.Marshal(event)
			if err != nil {
				log.WithCtx(ctx).Error("❌ Failed to encode websocket message", zap.Error(err))
				continue
			}
			if err := s.hub.SendToSession(event.SessionID, payload); err != nil {
				log.WithCtx(ctx).Debug("Transcript event not delivered",
					zap.String("session_id", event.SessionID),
					zap.String("type", string(event.Type)),
					zap.Error(err))
			}

		case <-ctx.Done():
			log.WithCtx(ctx).Info("🔒 Transcript listener stopped")
			return
		}
	}
}

func (s *Server) publish(ctx context.Context, event domain.TranscriptEvent) {
	event.Timestamp = s.now()
	if err := message_broker.PublishTranscript(ctx, s.messageBroker, event); err != nil {
		log.WithCtx(ctx).Warn("Error publishing transcript event", zap.Error(err))
	}
}
