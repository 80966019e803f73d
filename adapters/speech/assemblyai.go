package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/Divya4879/Sassy-AI-Debate-Coach/utils/log"
	"go.uber.org/zap"
)

const (
	DefaultAssemblyAIURL = "https://api.assemblyai.com"

	defaultPollInterval = 2 * time.Second
	defaultPollAttempts = 60
)

var ErrTranscriptionTimeout = errors.New("transcription timeout")

// APIError is a non-200 answer from AssemblyAI.
type APIError struct {
	Op     string
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s failed: %d - %s", e.Op, e.Status, e.Body)
}

func (e *APIError) StatusCode() int { return e.Status }

// AssemblyAI transcribes files with the upload → transcript → poll flow.
type AssemblyAI struct {
	apiKey       string
	baseURL      string
	httpClient   *http.Client
	pollInterval time.Duration
	pollAttempts int
}

func NewAssemblyAI(apiKey string) *AssemblyAI {
	return &AssemblyAI{
		apiKey:       apiKey,
		baseURL:      DefaultAssemblyAIURL,
		httpClient:   &http.Client{Timeout: 60 * time.Second},
		pollInterval: defaultPollInterval,
		pollAttempts: defaultPollAttempts,
	}
}

func (a *AssemblyAI) WithBaseURL(url string) *AssemblyAI {
	a.baseURL = strings.TrimRight(url, "/")
	return a
}

func (a *AssemblyAI) WithPolling(interval time.Duration, attempts int) *AssemblyAI {
	a.pollInterval = interval
	a.pollAttempts = attempts
	return a
}

func (a *AssemblyAI) Name() string { return "assemblyai" }

func (a *AssemblyAI) Transcribe(ctx context.Context, audioPath string) (string, error) {
	audio, err := os.ReadFile(audioPath)
	if err != nil {
		return "", fmt.Errorf("reading audio: %w", err)
	}

	logger := log.WithCtx(ctx)
	logger.Debug("📤 Uploading audio file", zap.Int("bytes", len(audio)))

	var uploaded struct {
		UploadURL string `json:"upload_url"`
	}
	if err := a.do(ctx, "upload", http.MethodPost, "/v2/upload", "application/octet-stream", bytes.NewReader(audio), &uploaded); err != nil {
		return "", err
	}

	request, _ := json.Marshal(map[string]any{
		"audio_url":          uploaded.UploadURL,
		"language_detection": true,
		"punctuate":          true,
		"format_text":        true,
	})
	var created transcriptResponse
	if err := a.do(ctx, "transcription request", http.MethodPost, "/v2/transcript", "application/json", bytes.NewReader(request), &created); err != nil {
		return "", err
	}
	logger.Debug("🔄 Transcription requested", zap.String("transcript_id", created.ID))

	for attempt := 1; attempt <= a.pollAttempts; attempt++ {
		var result transcriptResponse
		err := a.do(ctx, "status check", http.MethodGet, "/v2/transcript/"+created.ID, "", nil, &result)
		switch {
		case err != nil && ctx.Err() != nil:
			return "", ctx.Err()
		case err != nil:
			logger.Warn("⚠️ Status check failed", zap.Int("attempt", attempt), zap.Error(err))
		case result.Status == "completed":
			if strings.TrimSpace(result.Text) == "" {
				return "", errors.New("no text in transcription result")
			}
			return result.Text, nil
		case result.Status == "error":
			return "", fmt.Errorf("transcription error: %s", result.Error)
		default:
			logger.Debug("⏳ Transcription pending", zap.String("status", result.Status), zap.Int("attempt", attempt))
		}

		if attempt == a.pollAttempts {
			break
		}
		select {
		case <-time.After(a.pollInterval):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	return "", ErrTranscriptionTimeout
}

type transcriptResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Text   string `json:"text"`
	Error  string `json:"error"`
}

func (a *AssemblyAI) do(ctx context.Context, op, method, path, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("creating %s request: %w", op, err)
	}
	req.Header.Set("Authorization", a.apiKey)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading %s response: %w", op, err)
	}
	if resp.StatusCode != http.StatusOK {
		return &APIError{Op: op, Status: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding %s response: %w", op, err)
	}
	return nil
}
