package speech

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/Divya4879/Sassy-AI-Debate-Coach/domain"
	"github.com/Divya4879/Sassy-AI-Debate-Coach/utils/log"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	DefaultAssemblyAIStreamURL = "wss://streaming.assemblyai.com/v3/ws"

	// StreamSampleRate is the PCM rate expected by StreamSession.Write.
	StreamSampleRate = 16000

	minPartialLength = 4
	terminateTimeout = 5 * time.Second
)

var errStreamClosed = errors.New("stream closed")

// AssemblyAIStreaming opens realtime v3 sessions.
type AssemblyAIStreaming struct {
	apiKey string
	url    string
	dialer *websocket.Dialer
}

func NewAssemblyAIStreaming(apiKey string) *AssemblyAIStreaming {
	return &AssemblyAIStreaming{
		apiKey: apiKey,
		url:    DefaultAssemblyAIStreamURL,
		dialer: websocket.DefaultDialer,
	}
}

func (a *AssemblyAIStreaming) WithURL(u string) *AssemblyAIStreaming {
	a.url = u
	return a
}

func (a *AssemblyAIStreaming) Name() string { return "assemblyai" }

func (a *AssemblyAIStreaming) endpoint() (string, error) {
	u, err := url.Parse(a.url)
	if err != nil {
		return "", fmt.Errorf("parsing streaming url: %w", err)
	}
	q := u.Query()
	q.Set("sample_rate", fmt.Sprint(StreamSampleRate))
	q.Set("format_turns", "true")
	q.Set("end_of_turn_confidence_threshold", "0.5")
	q.Set("min_end_of_turn_silence_when_confident", "100")
	q.Set("max_turn_silence", "1500")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (a *AssemblyAIStreaming) StartStreaming(ctx context.Context, handlers domain.StreamHandlers) (domain.StreamSession, error) {
	endpoint, err := a.endpoint()
	if err != nil {
		return nil, err
	}

	header := http.Header{}
	header.Set("Authorization", a.apiKey)
	conn, resp, err := a.dialer.DialContext(ctx, endpoint, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("connecting to realtime transcription: %w (status %d)", err, resp.StatusCode)
		}
		return nil, fmt.Errorf("connecting to realtime transcription: %w", err)
	}

	s := &assemblyAIStream{
		conn:     conn,
		handlers: handlers,
		done:     make(chan struct{}),
		logger:   log.WithCtx(ctx),
	}
	go s.readLoop()
	return s, nil
}

type streamMessage struct {
	Type            string  `json:"type"`
	ID              string  `json:"id"`
	Transcript      string  `json:"transcript"`
	EndOfTurn       bool    `json:"end_of_turn"`
	TurnIsFormatted bool    `json:"turn_is_formatted"`
	AudioDuration   float64 `json:"audio_duration_seconds"`
	Error           string  `json:"error"`
}

type assemblyAIStream struct {
	conn     *websocket.Conn
	handlers domain.StreamHandlers
	logger   *zap.Logger

	writeMu sync.Mutex
	closed  bool

	finals []string
	done   chan struct{}
}

func (s *assemblyAIStream) Write(audio []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if s.closed {
		return errStreamClosed
	}
	return s.conn.WriteMessage(websocket.BinaryMessage, audio)
}

// Close asks the service to flush and terminate, then waits for the final
// event before dropping the connection.
func (s *assemblyAIStream) Close() error {
	s.writeMu.Lock()
	if s.closed {
		s.writeMu.Unlock()
		return nil
	}
	s.closed = true
	err := s.conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"Terminate"}`))
	s.writeMu.Unlock()

	select {
	case <-s.done:
	case <-time.After(terminateTimeout):
		s.logger.Warn("Realtime session did not terminate in time")
	}
	if cerr := s.conn.Close(); err == nil {
		err = cerr
	}
	return err
}

func (s *assemblyAIStream) readLoop() {
	defer close(s.done)

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			s.emitError(fmt.Errorf("realtime transcription: %w", err))
			return
		}

		var msg streamMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			s.logger.Debug("Ignoring undecodable realtime message", zap.Error(err))
			continue
		}

		switch msg.Type {
		case "Begin":
			s.logger.Info("🎤 Realtime session started", zap.String("id", msg.ID))
		case "Turn":
			s.onTurn(msg)
		case "Termination":
			s.logger.Info("🏁 Realtime session ended", zap.Float64("audio_seconds", msg.AudioDuration))
			if s.handlers.OnFinal != nil {
				s.handlers.OnFinal(strings.Join(s.finals, " "))
			}
			return
		default:
			if msg.Error != "" {
				s.emitError(fmt.Errorf("realtime transcription: %s", msg.Error))
				return
			}
		}
	}
}

func (s *assemblyAIStream) onTurn(msg streamMessage) {
	text := strings.TrimSpace(msg.Transcript)
	if !msg.EndOfTurn {
		if len(text) >= minPartialLength && s.handlers.OnPartial != nil {
			s.handlers.OnPartial(text)
		}
		return
	}
	// With format_turns every turn ends twice; keep the formatted copy.
	if msg.TurnIsFormatted && text != "" {
		s.finals = append(s.finals, text)
	}
}

func (s *assemblyAIStream) emitError(err error) {
	if s.handlers.OnError != nil {
		s.handlers.OnError(err)
	}
}
