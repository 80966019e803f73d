package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Divya4879/Sassy-AI-Debate-Coach/adapters/message_broker"
	"github.com/Divya4879/Sassy-AI-Debate-Coach/domain"
	"github.com/Divya4879/Sassy-AI-Debate-Coach/utils/log"
	"go.uber.org/zap"
)

const chunkSize = 4096

type StreamAudioResponse struct {
	Success       bool   `json:"success"`
	Transcription string `json:"transcription"`
}

type streamResult struct {
	text string
	err  error
}

// StreamAudio feeds a chunked request body of 16kHz mono PCM into a realtime
// transcription session. Partials and the final transcript are also
// published for any websocket the same session has open.
func (h *DebateHandler) StreamAudio(c echo.Context) error {
	contentType := c.Request().Header.Get(echo.HeaderContentType)
	if !strings.HasPrefix(contentType, "audio/") && !strings.HasPrefix(contentType, echo.MIMEOctetStream) {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid content type. Expected audio/* or application/octet-stream")
	}

	sessionID := SessionID(c)
	ctx, cancel := context.WithTimeout(c.Request().Context(), MaxAudioDuration)
	defer cancel()
	logger := log.WithCtx(ctx)

	results := make(chan streamResult, 1)
	stream, err := h.voice.StartStreaming(ctx, domain.StreamHandlers{
		OnPartial: func(text string) {
			h.publish(ctx, domain.TranscriptEvent{Type: domain.TranscriptPartial, SessionID: sessionID, Text: text})
		},
		OnFinal: func(text string) { results <- streamResult{text: text} },
		OnError: func(err error) { results <- streamResult{err: err} },
	})
	if errors.Is(err, domain.ErrSpeechUnavailable) {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Real-time transcription not available")
	}
	if err != nil {
		return failure("Transcription failed", err)
	}

	sent := 0
	body := c.Request().Body
	chunk := make([]byte, chunkSize)
	for ctx.Err() == nil {
		n, err := body.Read(chunk)
		if n > 0 {
			if werr := stream.Write(append([]byte(nil), chunk[:n]...)); werr != nil {
				logger.Warn("Error forwarding audio chunk", zap.Error(werr))
				break
			}
			sent += n
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			logger.Warn("Error reading audio chunk", zap.Error(err))
			break
		}
	}
	if err := stream.Close(); err != nil {
		logger.Debug("Closing transcription stream", zap.Error(err))
	}
	logger.Debug("End of audio stream", zap.Int("bytes", sent))

	var result streamResult
	select {
	case result = <-results:
	case <-ctx.Done():
		return echo.NewHTTPError(http.StatusRequestTimeout, "Transcription timeout")
	}
	if result.err != nil {
		h.publish(ctx, domain.TranscriptEvent{Type: domain.TranscriptError, SessionID: sessionID, Error: result.err.Error()})
		return failure("Transcription failed", result.err)
	}

	h.publish(ctx, domain.TranscriptEvent{Type: domain.TranscriptFinal, SessionID: sessionID, Text: result.text})
	return c.JSON(http.StatusOK, StreamAudioResponse{Success: true, Transcription: result.text})
}

func (h *DebateHandler) publish(ctx context.Context, event domain.TranscriptEvent) {
	if h.broker == nil {
		return
	}
	event.Timestamp = h.now()
	if err := message_broker.PublishTranscript(ctx, h.broker, event); err != nil {
		log.WithCtx(ctx).Warn("Error publishing transcript event", zap.Error(err))
	}
}
