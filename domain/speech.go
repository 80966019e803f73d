package domain

import (
	"context"
	"errors"
	"strings"
)

var ErrSpeechUnavailable = errors.New("speech capability unavailable")

// Sentinel texts returned by SpeechProvider.Transcribe instead of errors.
const (
	TranscriptionUnavailableText = "Voice transcription unavailable. Please type your argument instead."
	TranscriptionFailedText      = "❌ Transcription failed. Please type your argument instead."
	transcriptionFailurePrefix   = "❌"
)

// IsTranscriptionFailure reports whether text is one of the failure
// sentinels rather than a real transcript.
func IsTranscriptionFailure(text string) bool {
	return text == TranscriptionUnavailableText || strings.HasPrefix(text, transcriptionFailurePrefix)
}

type AudioFormat string

const (
	FormatMP3 AudioFormat = "mp3"
	FormatWAV AudioFormat = "wav"
)

type AudioClip struct {
	Data   []byte
	Format AudioFormat
}

type Transcriber interface {
	Name() string
	Transcribe(ctx context.Context, audioPath string) (string, error)
}

// StreamHandlers receive realtime transcription events. A session delivers
// zero or more partials followed by exactly one final or one error.
type StreamHandlers struct {
	OnPartial func(text string)
	OnFinal   func(text string)
	OnError   func(err error)
}

// StreamSession accepts raw 16kHz mono PCM. Close ends the audio and
// triggers the final event.
type StreamSession interface {
	Write(audio []byte) error
	Close() error
}

type StreamingTranscriber interface {
	Name() string
	StartStreaming(ctx context.Context, handlers StreamHandlers) (StreamSession, error)
}

type Synthesizer interface {
	Name() string
	Synthesize(ctx context.Context, text string, voice Gender) (AudioClip, error)
}

// VoiceStatus is reported to the browser so it can hide unusable controls.
type VoiceStatus struct {
	TTSAvailable            bool   `json:"tts_available"`
	ThemeVoicesAvailable    bool   `json:"theme_voices_available"`
	TranscriptionAvailable  bool   `json:"assemblyai_available"`
	StreamingAvailable      bool   `json:"assemblyai_streaming_available"`
	VoiceRecordingAvailable bool   `json:"voice_recording_available"`
	RealtimeAvailable       bool   `json:"realtime_available"`
	TranscriptionProvider   string `json:"transcription_provider,omitempty"`
	StreamingProvider       string `json:"streaming_provider,omitempty"`
	SynthesisProvider       string `json:"synthesis_provider,omitempty"`
}

// SpeechProvider is the single speech capability the rest of the app sees.
type SpeechProvider interface {
	// Transcribe never fails; on failure it returns a sentinel text
	// recognised by IsTranscriptionFailure.
	Transcribe(ctx context.Context, audioPath string) string
	Synthesize(ctx context.Context, text string, personaID string) (AudioClip, error)
	StartStreaming(ctx context.Context, handlers StreamHandlers) (StreamSession, error)
	Status() VoiceStatus
}
