package usecase

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/Divya4879/Sassy-AI-Debate-Coach/domain"
	"github.com/Divya4879/Sassy-AI-Debate-Coach/utils/log"
	"go.uber.org/zap"
)

const DefaultAudioURLPrefix = "/static/audio"

// maxUploadBytes bounds a single recorded argument.
const maxUploadBytes = 10 << 20

type Transcription struct {
	Text   string
	Failed bool
}

type VoiceService struct {
	speech    domain.SpeechProvider
	hasher    domain.Hasher
	audioDir  string
	tempDir   string
	urlPrefix string
	now       func() time.Time
}

func NewVoiceService(speech domain.SpeechProvider, hasher domain.Hasher, audioDir, tempDir string) *VoiceService {
	return &VoiceService{
		speech:    speech,
		hasher:    hasher,
		audioDir:  audioDir,
		tempDir:   tempDir,
		urlPrefix: DefaultAudioURLPrefix,
		now:       time.Now,
	}
}

func (v *VoiceService) WithClock(now func() time.Time) *VoiceService {
	v.now = now
	return v
}

func (v *VoiceService) Status() domain.VoiceStatus {
	return v.speech.Status()
}

// StartStreaming opens a realtime transcription session. It returns
// domain.ErrSpeechUnavailable when no streaming transcriber is configured.
func (v *VoiceService) StartStreaming(ctx context.Context, handlers domain.StreamHandlers) (domain.StreamSession, error) {
	return v.speech.StartStreaming(ctx, handlers)
}

// TranscribeUpload stores the upload under a per-session temp name, hands it
// to the speech provider and always removes it afterwards.
func (v *VoiceService) TranscribeUpload(ctx context.Context, sessionID string, audio io.Reader) (Transcription, error) {
	data, err := io.ReadAll(io.LimitReader(audio, maxUploadBytes+1))
	if err != nil {
		return Transcription{}, fmt.Errorf("reading upload: %w", err)
	}
	if len(data) == 0 {
		return Transcription{}, fmt.Errorf("%w: no audio file provided", ErrInvalidInput)
	}
	if len(data) > maxUploadBytes {
		return Transcription{}, fmt.Errorf("%w: audio file too large", ErrInvalidInput)
	}

	if err := os.MkdirAll(v.tempDir, 0o755); err != nil {
		return Transcription{}, fmt.Errorf("creating temp dir: %w", err)
	}
	name := fmt.Sprintf("temp_audio_%s_%s.wav", safeName(sessionID), v.hasher.Hash(data))
	tmp := filepath.Join(v.tempDir, name)
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return Transcription{}, fmt.Errorf("writing temp audio: %w", err)
	}
	defer func() {
		if err := os.Remove(tmp); err != nil && !os.IsNotExist(err) {
			log.WithCtx(ctx).Warn("Failed to remove temp audio", zap.String("file", tmp), zap.Error(err))
		}
	}()

	text := v.speech.Transcribe(ctx, tmp)
	failed := domain.IsTranscriptionFailure(text)

	log.WithCtx(ctx).Info("Audio transcribed",
		zap.Int("bytes", len(data)),
		zap.Bool("failed", failed))

	return Transcription{Text: text, Failed: failed}, nil
}

// Speak synthesizes text in the persona's voice and returns the public URL
// of the written file.
func (v *VoiceService) Speak(ctx context.Context, sessionID, text, personaID string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: no text provided", ErrInvalidInput)
	}

	clip, err := v.speech.Synthesize(ctx, text, personaID)
	if err != nil {
		return "", fmt.Errorf("synthesizing speech: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if err := os.MkdirAll(v.audioDir, 0o755); err != nil {
		return "", fmt.Errorf("creating audio dir: %w", err)
	}
	name := fmt.Sprintf("ai_response_%s_%d.%s", safeName(sessionID), v.now().Unix(), clip.Format)
	if err := os.WriteFile(filepath.Join(v.audioDir, name), clip.Data, 0o644); err != nil {
		return "", fmt.Errorf("writing audio: %w", err)
	}

	log.WithCtx(ctx).Debug("Speech written", zap.String("file", name), zap.Int("bytes", len(clip.Data)))
	return path.Join(v.urlPrefix, name), nil
}

// SpeechTask is a synthesis running in the background.
type SpeechTask struct {
	done   chan struct{}
	cancel context.CancelFunc
	url    string
	err    error
}

// SpeakAsync runs Speak on its own goroutine. Canceling ctx or calling
// Cancel stops it.
func (v *VoiceService) SpeakAsync(ctx context.Context, sessionID, text, personaID string) *SpeechTask {
	taskCtx, cancel := context.WithCancel(ctx)
	task := &SpeechTask{done: make(chan struct{}), cancel: cancel}
	go func() {
		defer close(task.done)
		defer cancel()
		task.url, task.err = v.Speak(taskCtx, sessionID, text, personaID)
	}()
	return task
}

func (t *SpeechTask) Done() <-chan struct{} { return t.done }

func (t *SpeechTask) Cancel() { t.cancel() }

// Wait blocks until the task finishes or ctx ends; in the latter case the
// task is canceled.
func (t *SpeechTask) Wait(ctx context.Context) (string, error) {
	select {
	case <-t.done:
		return t.url, t.err
	case <-ctx.Done():
		t.cancel()
		return "", ctx.Err()
	}
}

func safeName(id string) string {
	if id == "" {
		return "anonymous"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, id)
}
