package voice

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/Divya4879/Sassy-AI-Debate-Coach/domain"
	"github.com/Divya4879/Sassy-AI-Debate-Coach/utils/log"
	"go.uber.org/zap"
)

var ErrNothingToSay = errors.New("nothing left to say after removing emoji")

var emojiRe = regexp.MustCompile(`[\x{1F000}-\x{1FAFF}\x{2600}-\x{27BF}\x{2300}-\x{23FF}\x{2B00}-\x{2BFF}\x{2640}-\x{2642}\x{200D}\x{FE0F}\x{3030}]+`)

// StripEmoji removes pictographs so synthesizers do not read them aloud.
func StripEmoji(text string) string {
	return strings.Join(strings.Fields(emojiRe.ReplaceAllString(text, "")), " ")
}

// Provider is the SpeechProvider the application sees. Any capability may
// be nil, in which case the matching call degrades instead of failing.
type Provider struct {
	personas    *domain.PersonaRegistry
	transcriber domain.Transcriber
	streamer    domain.StreamingTranscriber
	synthesizer domain.Synthesizer
}

func NewProvider(personas *domain.PersonaRegistry, transcriber domain.Transcriber, streamer domain.StreamingTranscriber, synthesizer domain.Synthesizer) *Provider {
	return &Provider{
		personas:    personas,
		transcriber: transcriber,
		streamer:    streamer,
		synthesizer: synthesizer,
	}
}

// Close releases any capability holding a client connection.
func (p *Provider) Close() error {
	var errs []error
	seen := map[any]bool{}
	for _, c := range []any{p.transcriber, p.streamer, p.synthesizer} {
		closer, ok := c.(io.Closer)
		if !ok || seen[c] {
			continue
		}
		seen[c] = true
		errs = append(errs, closer.Close())
	}
	return errors.Join(errs...)
}

// Transcribe returns the transcript, or one of the failure sentinels.
func (p *Provider) Transcribe(ctx context.Context, audioPath string) string {
	if p.transcriber == nil {
		return domain.TranscriptionUnavailableText
	}

	text, err := p.transcriber.Transcribe(ctx, audioPath)
	if err != nil {
		log.WithCtx(ctx).Warn("❌ Transcription failed",
			zap.String("provider", p.transcriber.Name()),
			zap.Error(err))
		return domain.TranscriptionFailedText
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.TranscriptionFailedText
	}
	return text
}

func (p *Provider) Synthesize(ctx context.Context, text string, personaID string) (domain.AudioClip, error) {
	if p.synthesizer == nil {
		return domain.AudioClip{}, domain.ErrSpeechUnavailable
	}

	clean := StripEmoji(text)
	if clean == "" {
		return domain.AudioClip{}, ErrNothingToSay
	}

	persona := p.personas.Lookup(personaID)
	clip, err := p.synthesizer.Synthesize(ctx, clean, persona.Voice)
	if err != nil {
		return domain.AudioClip{}, fmt.Errorf("%s: %w", p.synthesizer.Name(), err)
	}
	log.WithCtx(ctx).Debug("🎤 Speech synthesized",
		zap.String("persona", persona.ID),
		zap.String("voice", string(persona.Voice)),
		zap.Int("bytes", len(clip.Data)))
	return clip, nil
}

// StartStreaming opens a realtime session whose callbacks honour the
// partials-then-one-final-or-error contract.
func (p *Provider) StartStreaming(ctx context.Context, handlers domain.StreamHandlers) (domain.StreamSession, error) {
	if p.streamer == nil {
		return nil, domain.ErrSpeechUnavailable
	}
	session, err := p.streamer.StartStreaming(ctx, Guard(handlers))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p.streamer.Name(), err)
	}
	return session, nil
}

func (p *Provider) Status() domain.VoiceStatus {
	status := domain.VoiceStatus{
		TTSAvailable:            p.synthesizer != nil,
		ThemeVoicesAvailable:    p.synthesizer != nil,
		TranscriptionAvailable:  p.transcriber != nil,
		StreamingAvailable:      p.streamer != nil,
		VoiceRecordingAvailable: p.transcriber != nil,
		RealtimeAvailable:       p.streamer != nil,
	}
	if p.transcriber != nil {
		status.TranscriptionProvider = p.transcriber.Name()
	}
	if p.streamer != nil {
		status.StreamingProvider = p.streamer.Name()
	}
	if p.synthesizer != nil {
		status.SynthesisProvider = p.synthesizer.Name()
	}
	return status
}
