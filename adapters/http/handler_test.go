package http

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Divya4879/Sassy-AI-Debate-Coach/adapters/hasher"
	"github.com/Divya4879/Sassy-AI-Debate-Coach/adapters/message_broker"
	"github.com/Divya4879/Sassy-AI-Debate-Coach/adapters/store"
	"github.com/Divya4879/Sassy-AI-Debate-Coach/domain"
	"github.com/Divya4879/Sassy-AI-Debate-Coach/usecase"
)

type fakeSpeech struct {
	transcript  string
	unavailable bool
}

func (f *fakeSpeech) Transcribe(context.Context, string) string {
	if f.unavailable {
		return domain.TranscriptionUnavailableText
	}
	return f.transcript
}

func (f *fakeSpeech) Synthesize(_ context.Context, text string, _ string) (domain.AudioClip, error) {
	if f.unavailable {
		return domain.AudioClip{}, domain.ErrSpeechUnavailable
	}
	return domain.AudioClip{Data: []byte(text), Format: domain.FormatMP3}, nil
}

func (f *fakeSpeech) StartStreaming(_ context.Context, h domain.StreamHandlers) (domain.StreamSession, error) {
	if f.unavailable {
		return nil, domain.ErrSpeechUnavailable
	}
	return &collectingStream{handlers: h}, nil
}

func (f *fakeSpeech) Status() domain.VoiceStatus {
	return domain.VoiceStatus{TTSAvailable: !f.unavailable, TranscriptionAvailable: !f.unavailable}
}

type collectingStream struct {
	handlers domain.StreamHandlers
	bytes    int
}

func (s *collectingStream) Write(audio []byte) error {
	s.bytes += len(audio)
	return nil
}

func (s *collectingStream) Close() error {
	if s.bytes == 0 {
		s.handlers.OnError(domain.ErrSpeechUnavailable)
		return nil
	}
	s.handlers.OnFinal("streamed argument")
	return nil
}

type testApp struct {
	url      string
	client   *http.Client
	audioDir string
	broker   *message_broker.ChannelMessageBroker
}

func newTestApp(t *testing.T, speech domain.SpeechProvider) *testApp {
	t.Helper()

	personas := domain.DefaultPersonaRegistry()
	debates := usecase.NewDebateService(store.NewMemorySessionStore(time.Hour), personas, usecase.NewResponder(nil, nil, nil))
	audioDir := t.TempDir()
	voice := usecase.NewVoiceService(speech, hasher.NewFingerprint(), audioDir, t.TempDir())
	broker := message_broker.NewChannelMessageBroker()
	t.Cleanup(func() { broker.Close() })

	e := echo.New()
	e.HTTPErrorHandler = ErrorHandler
	NewDebateHandler(debates, voice, personas, broker).Register(e, NewSessions("test-secret", time.Hour, false))

	ts := httptest.NewServer(e)
	t.Cleanup(ts.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &testApp{url: ts.URL, client: &http.Client{Jar: jar}, audioDir: audioDir, broker: broker}
}

func (a *testApp) do(t *testing.T, method, path string, body any) (int, map[string]any) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, a.url+path, reader)
	require.NoError(t, err)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return a.send(t, req)
}

func (a *testApp) send(t *testing.T, req *http.Request) (int, map[string]any) {
	t.Helper()

	resp, err := a.client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	out := map[string]any{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func TestDebateFlow(t *testing.T) {
	app := newTestApp(t, &fakeSpeech{})

	status, body := app.do(t, http.MethodPost, "/start_debate", map[string]string{
		"topic": "school uniforms", "side": "for", "theme": "sassy",
	})
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, true, body["success"])
	assert.NotEmpty(t, body["ai_response"])
	assert.Equal(t, "sassy", body["theme"])
	assert.Equal(t, string(domain.SourceMock), body["source"])
	debateID := body["debate_id"]

	status, body = app.do(t, http.MethodPost, "/submit_argument", map[string]string{"argument": "Uniforms reduce bullying."})
	require.Equal(t, http.StatusOK, status, body)
	assert.NotEmpty(t, body["ai_response"])

	status, body = app.do(t, http.MethodGet, "/get_debate_history", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "school uniforms", body["topic"])
	assert.Equal(t, "for", body["user_side"])
	assert.Equal(t, debateID, body["debate_id"])
	history := body["history"].([]any)
	require.Len(t, history, 3)
	assert.Equal(t, "user", history[1].(map[string]any)["speaker"])
	assert.Equal(t, "Uniforms reduce bullying.", history[1].(map[string]any)["message"])

	status, body = app.do(t, http.MethodPost, "/reset_debate", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["success"])

	status, body = app.do(t, http.MethodGet, "/get_debate_history", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, body["history"])
	assert.NotContains(t, body, "debate_id")
}

func TestDebateErrors(t *testing.T) {
	app := newTestApp(t, &fakeSpeech{})

	status, body := app.do(t, http.MethodPost, "/submit_argument", map[string]string{"argument": "hi"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "No active debate", body["error"])

	status, body = app.do(t, http.MethodPost, "/start_debate", map[string]string{"side": "for"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "No topic provided", body["error"])

	status, _ = app.do(t, http.MethodPost, "/start_debate", map[string]string{"topic": "t", "side": "for"})
	require.Equal(t, http.StatusOK, status)

	status, body = app.do(t, http.MethodPost, "/submit_argument", map[string]string{"argument": "  "})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "No argument provided", body["error"])

	req, err := http.NewRequest(http.MethodPost, app.url+"/start_debate", strings.NewReader("{not json"))
	require.NoError(t, err)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	status, body = app.send(t, req)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid request body", body["error"])
}

func TestSessionsAreIsolated(t *testing.T) {
	first := newTestApp(t, &fakeSpeech{})
	status, _ := first.do(t, http.MethodPost, "/start_debate", map[string]string{"topic": "t", "side": "for"})
	require.Equal(t, http.StatusOK, status)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	second := *first
	second.client = &http.Client{Jar: jar}

	status, body := second.do(t, http.MethodPost, "/submit_argument", map[string]string{"argument": "hi"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "No active debate", body["error"])
}

func TestAnalyzeArgument(t *testing.T) {
	app := newTestApp(t, &fakeSpeech{})

	status, body := app.do(t, http.MethodPost, "/analyze_argument", map[string]string{"argument": "Uniforms reduce bullying."})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "B", body["grade"])
	assert.NotNil(t, body["fallacies"])
}

func TestVoiceStatusAndPersonas(t *testing.T) {
	app := newTestApp(t, &fakeSpeech{})

	status, body := app.do(t, http.MethodGet, "/voice_status", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["tts_available"])

	resp, err := app.client.Get(app.url + "/personas")
	require.NoError(t, err)
	defer resp.Body.Close()
	var personas []domain.Persona
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&personas))
	assert.Len(t, personas, 9)
}

func TestHealthCheck(t *testing.T) {
	app := newTestApp(t, &fakeSpeech{})

	status, body := app.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, serviceName, body["service"])
	assert.Empty(t, app.client.Jar.Cookies(mustParse(t, app.url)))
}

func TestTranscribeAudio(t *testing.T) {
	app := newTestApp(t, &fakeSpeech{transcript: "Uniforms reduce bullying."})

	upload := func(field string, data []byte) (int, map[string]any) {
		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)
		part, err := w.CreateFormFile(field, "recording.wav")
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
		require.NoError(t, w.Close())

		req, err := http.NewRequest(http.MethodPost, app.url+"/transcribe_audio", &buf)
		require.NoError(t, err)
		req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
		return app.send(t, req)
	}

	status, body := upload("audio", []byte("RIFF....WAVE"))
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "Uniforms reduce bullying.", body["transcription"])
	assert.Equal(t, false, body["failed"])

	status, body = upload("file", []byte("RIFF"))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "No audio file provided", body["error"])

	status, body = upload("audio", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "No audio file provided", body["error"])
}

func TestTranscribeAudio_Unavailable(t *testing.T) {
	app := newTestApp(t, &fakeSpeech{unavailable: true})

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("audio", "recording.wav")
	require.NoError(t, err)
	_, err = part.Write([]byte("RIFF"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req, err := http.NewRequest(http.MethodPost, app.url+"/transcribe_audio", &buf)
	require.NoError(t, err)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())

	status, body := app.send(t, req)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, domain.TranscriptionUnavailableText, body["transcription"])
	assert.Equal(t, true, body["failed"])
}

func TestTextToSpeech(t *testing.T) {
	app := newTestApp(t, &fakeSpeech{})

	status, body := app.do(t, http.MethodPost, "/text_to_speech", map[string]string{"text": "Counterpoint.", "theme": "ruthless"})
	require.Equal(t, http.StatusOK, status, body)
	audioPath := body["audio_path"].(string)
	assert.True(t, strings.HasPrefix(audioPath, usecase.DefaultAudioURLPrefix+"/ai_response_"))
	assert.True(t, strings.HasSuffix(audioPath, ".mp3"))

	data, err := os.ReadFile(filepath.Join(app.audioDir, filepath.Base(audioPath)))
	require.NoError(t, err)
	assert.Equal(t, "Counterpoint.", string(data))

	status, body = app.do(t, http.MethodPost, "/text_to_speech", map[string]string{"text": ""})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "No text provided", body["error"])
}

func TestTextToSpeech_Unavailable(t *testing.T) {
	app := newTestApp(t, &fakeSpeech{unavailable: true})

	status, body := app.do(t, http.MethodPost, "/text_to_speech", map[string]string{"text": "Counterpoint."})
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Contains(t, body["error"], "TTS failed")
}

func TestStreamAudio(t *testing.T) {
	app := newTestApp(t, &fakeSpeech{})
	events, err := app.broker.Subscribe(context.Background(), message_broker.TranscriptsTopic, "")
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, app.url+"/stream_audio", bytes.NewReader(make([]byte, 10000)))
	require.NoError(t, err)
	req.Header.Set(echo.HeaderContentType, "audio/l16")

	status, body := app.send(t, req)
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "streamed argument", body["transcription"])

	event, err := message_broker.DecodeTranscript(<-events)
	require.NoError(t, err)
	assert.Equal(t, domain.TranscriptFinal, event.Type)
	assert.Equal(t, "streamed argument", event.Text)
	assert.NotEmpty(t, event.SessionID)
}

func TestStreamAudio_Rejections(t *testing.T) {
	app := newTestApp(t, &fakeSpeech{})

	req, err := http.NewRequest(http.MethodPost, app.url+"/stream_audio", strings.NewReader("hello"))
	require.NoError(t, err)
	req.Header.Set(echo.HeaderContentType, echo.MIMETextPlain)
	status, _ := app.send(t, req)
	assert.Equal(t, http.StatusBadRequest, status)

	req, err = http.NewRequest(http.MethodPost, app.url+"/stream_audio", bytes.NewReader(nil))
	require.NoError(t, err)
	req.Header.Set(echo.HeaderContentType, echo.MIMEOctetStream)
	status, body := app.send(t, req)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Contains(t, body["error"], "Transcription failed")

	unavailable := newTestApp(t, &fakeSpeech{unavailable: true})
	req, err = http.NewRequest(http.MethodPost, unavailable.url+"/stream_audio", bytes.NewReader([]byte{1, 2}))
	require.NoError(t, err)
	req.Header.Set(echo.HeaderContentType, echo.MIMEOctetStream)
	status, body = unavailable.send(t, req)
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "Real-time transcription not available", body["error"])
}

func TestConcurrencyLimit(t *testing.T) {
	e := echo.New()
	e.HTTPErrorHandler = ErrorHandler
	release := make(chan struct{})
	entered := make(chan struct{})
	e.GET("/slow", func(c echo.Context) error {
		entered <- struct{}{}
		<-release
		return c.NoContent(http.StatusNoContent)
	}, ConcurrencyLimit(1))

	done := make(chan int)
	go func() {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/slow", nil))
		done <- rec.Code
	}()
	<-entered

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/slow", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	close(release)
	assert.Equal(t, http.StatusNoContent, <-done)
}
