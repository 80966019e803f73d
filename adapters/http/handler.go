package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Divya4879/Sassy-AI-Debate-Coach/domain"
	"github.com/Divya4879/Sassy-AI-Debate-Coach/usecase"
	"github.com/Divya4879/Sassy-AI-Debate-Coach/utils/log"
	"go.uber.org/zap"
)

const (
	MaxRequestSize = 10 * 1024 * 1024 // 10MB

	// MaxConcurrent bounds in-flight voice requests.
	MaxConcurrent = 10

	// MaxAudioDuration bounds a streamed upload.
	MaxAudioDuration = 60 * time.Second

	serviceName = "debate-coach"
)

type DebateHandler struct {
	debates  *usecase.DebateService
	voice    *usecase.VoiceService
	personas *domain.PersonaRegistry
	broker   domain.MessageBroker
	now      func() time.Time
}

func NewDebateHandler(debates *usecase.DebateService, voice *usecase.VoiceService, personas *domain.PersonaRegistry, broker domain.MessageBroker) *DebateHandler {
	return &DebateHandler{
		debates:  debates,
		voice:    voice,
		personas: personas,
		broker:   broker,
		now:      time.Now,
	}
}

// Register mounts every JSON route. Routes other than /health run behind
// the session middleware.
func (h *DebateHandler) Register(e *echo.Echo, sessions *Sessions) {
	e.GET("/health", h.HealthCheck)

	g := e.Group("", sessions.Middleware)
	g.GET("/personas", h.ListPersonas)
	g.GET("/voice_status", h.VoiceStatus)
	g.POST("/start_debate", h.StartDebate)
	g.POST("/submit_argument", h.SubmitArgument)
	g.GET("/get_debate_history", h.GetDebateHistory)
	g.POST("/reset_debate", h.ResetDebate)
	g.POST("/analyze_argument", h.AnalyzeArgument)

	voice := g.Group("", ConcurrencyLimit(MaxConcurrent))
	voice.POST("/transcribe_audio", h.TranscribeAudio)
	voice.POST("/text_to_speech", h.TextToSpeech)
	voice.POST("/stream_audio", h.StreamAudio)
}

// StartDebateRequest accepts persona as an alias of theme.
type StartDebateRequest struct {
	Topic   string `json:"topic"`
	Side    string `json:"side"`
	Theme   string `json:"theme"`
	Persona string `json:"persona"`
}

type StartDebateResponse struct {
	Success    bool          `json:"success"`
	AIResponse string        `json:"ai_response"`
	DebateID   string        `json:"debate_id"`
	Theme      string        `json:"theme"`
	Source     domain.Source `json:"source"`
}

type ArgumentRequest struct {
	Argument string `json:"argument"`
	Theme    string `json:"theme"`
}

type ArgumentResponse struct {
	Success    bool          `json:"success"`
	AIResponse string        `json:"ai_response"`
	Theme      string        `json:"theme"`
	Source     domain.Source `json:"source"`
}

type HistoryResponse struct {
	History  []domain.Turn `json:"history"`
	Topic    string        `json:"topic"`
	UserSide string        `json:"user_side"`
	Theme    string        `json:"theme"`
	DebateID string        `json:"debate_id,omitempty"`
}

type TranscriptionResponse struct {
	Success       bool   `json:"success"`
	Transcription string `json:"transcription"`
	Failed        bool   `json:"failed"`
}

type SpeechRequest struct {
	Text  string `json:"text"`
	Theme string `json:"theme"`
}

type SpeechResponse struct {
	Success   bool   `json:"success"`
	AudioPath string `json:"audio_path"`
}

// failure is a 500 whose message names the failed step.
func failure(step string, err error) error {
	return echo.NewHTTPError(http.StatusInternalServerError, step+": "+err.Error()).SetInternal(err)
}

func bind(c echo.Context, v any) error {
	if err := c.Bind(v); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	return nil
}

func (h *DebateHandler) StartDebate(c echo.Context) error {
	var req StartDebateRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	persona := req.Theme
	if persona == "" {
		persona = req.Persona
	}

	opening, err := h.debates.StartDebate(c.Request().Context(), SessionID(c), usecase.StartRequest{
		Topic:     req.Topic,
		UserSide:  req.Side,
		PersonaID: persona,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, StartDebateResponse{
		Success:    true,
		AIResponse: opening.Text,
		DebateID:   opening.DebateID,
		Theme:      opening.PersonaID,
		Source:     opening.Source,
	})
}

func (h *DebateHandler) SubmitArgument(c echo.Context) error {
	var req ArgumentRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	reply, err := h.debates.SubmitArgument(c.Request().Context(), SessionID(c), req.Argument)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, ArgumentResponse{
		Success:    true,
		AIResponse: reply.Text,
		Theme:      reply.PersonaID,
		Source:     reply.Source,
	})
}

func (h *DebateHandler) GetDebateHistory(c echo.Context) error {
	session, err := h.debates.History(c.Request().Context(), SessionID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, HistoryResponse{
		History:  session.Turns,
		Topic:    session.Topic,
		UserSide: session.UserSide,
		Theme:    session.PersonaID,
		DebateID: session.DebateID,
	})
}

func (h *DebateHandler) ResetDebate(c echo.Context) error {
	if err := h.debates.Reset(c.Request().Context(), SessionID(c)); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}

func (h *DebateHandler) AnalyzeArgument(c echo.Context) error {
	var req ArgumentRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	feedback, err := h.debates.Analyze(c.Request().Context(), req.Argument, req.Theme)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, feedback)
}

func (h *DebateHandler) TranscribeAudio(c echo.Context) error {
	file, err := c.FormFile("audio")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "No audio file provided")
	}
	src, err := file.Open()
	if err != nil {
		return failure("Transcription failed", err)
	}
	defer src.Close()

	result, err := h.voice.TranscribeUpload(c.Request().Context(), SessionID(c), src)
	if err != nil {
		if errors.Is(err, usecase.ErrInvalidInput) {
			return err
		}
		return failure("Transcription failed", err)
	}

	return c.JSON(http.StatusOK, TranscriptionResponse{
		Success:       true,
		Transcription: result.Text,
		Failed:        result.Failed,
	})
}

// TextToSpeech waits on the synthesis task with the request context, so a
// client that goes away cancels the work.
func (h *DebateHandler) TextToSpeech(c echo.Context) error {
	var req SpeechRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if req.Text == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "No text provided")
	}
	theme := req.Theme
	if theme == "" {
		theme = domain.DefaultPersonaID
	}

	ctx := c.Request().Context()
	task := h.voice.SpeakAsync(ctx, SessionID(c), req.Text, theme)
	audioPath, err := task.Wait(ctx)
	if err != nil {
		if errors.Is(err, usecase.ErrInvalidInput) {
			return err
		}
		return failure("TTS failed", err)
	}

	return c.JSON(http.StatusOK, SpeechResponse{Success: true, AudioPath: audioPath})
}

func (h *DebateHandler) VoiceStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, h.voice.Status())
}

func (h *DebateHandler) ListPersonas(c echo.Context) error {
	return c.JSON(http.StatusOK, h.personas.List())
}

func (h *DebateHandler) HealthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": h.now().UTC(),
		"service":   serviceName,
	})
}

// ConcurrencyLimit rejects requests beyond limit in flight with 429.
func ConcurrencyLimit(limit int) echo.MiddlewareFunc {
	semaphore := make(chan struct{}, limit)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			select {
			case semaphore <- struct{}{}:
				defer func() { <-semaphore }()
				return next(c)
			default:
				log.WithCtx(c.Request().Context()).Warn("Too many concurrent voice requests", zap.Int("limit", limit))
				return echo.NewHTTPError(http.StatusTooManyRequests, "Too many concurrent requests")
			}
		}
	}
}
