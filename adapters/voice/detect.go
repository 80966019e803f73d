package voice

import (
	"context"
	"strings"

	"github.com/Divya4879/Sassy-AI-Debate-Coach/adapters/speech"
	"github.com/Divya4879/Sassy-AI-Debate-Coach/adapters/tts"
	"github.com/Divya4879/Sassy-AI-Debate-Coach/domain"
	"github.com/Divya4879/Sassy-AI-Debate-Coach/utils/log"
	"go.uber.org/zap"
)

const (
	EngineAuto   = "auto"
	EngineGoogle = "google"
	EngineEspeak = "espeak"
	EngineNone   = "none"
)

type Options struct {
	AssemblyAIKey       string
	GoogleSpeechEnabled bool
	// TTSEngine is one of auto, google, espeak or none.
	TTSEngine string
}

// Detect probes every capability once and returns the composite provider.
// Nothing here fails: an unusable capability is logged and left out.
func Detect(ctx context.Context, personas *domain.PersonaRegistry, opts Options) *Provider {
	logger := log.WithCtx(ctx)

	var (
		transcriber domain.Transcriber
		streamer    domain.StreamingTranscriber
		synthesizer domain.Synthesizer
	)

	if opts.AssemblyAIKey != "" {
		transcriber = speech.NewAssemblyAI(opts.AssemblyAIKey)
		streamer = speech.NewAssemblyAIStreaming(opts.AssemblyAIKey)
	} else if opts.GoogleSpeechEnabled {
		google, err := speech.NewGoogleSpeech(ctx)
		if err != nil {
			logger.Warn("⚠️ Google speech unavailable", zap.Error(err))
		} else {
			transcriber = google
			streamer = google
		}
	}

	engine := strings.ToLower(strings.TrimSpace(opts.TTSEngine))
	if engine == "" {
		engine = EngineAuto
	}
	if engine == EngineAuto || engine == EngineGoogle {
		if opts.GoogleSpeechEnabled || engine == EngineGoogle {
			google, err := tts.NewGoogleTTS(ctx)
			if err != nil {
				logger.Warn("⚠️ Google TTS unavailable", zap.Error(err))
			} else {
				synthesizer = google
			}
		}
	}
	if synthesizer == nil && (engine == EngineAuto || engine == EngineEspeak) {
		if espeak := tts.LookupEspeak(); espeak != nil {
			synthesizer = espeak
		} else {
			logger.Info("No espeak binary on PATH")
		}
	}

	p := NewProvider(personas, transcriber, streamer, synthesizer)
	status := p.Status()
	logger.Info("🔧 Voice capabilities",
		zap.Bool("transcription", status.TranscriptionAvailable),
		zap.String("transcription_provider", status.TranscriptionProvider),
		zap.Bool("streaming", status.StreamingAvailable),
		zap.Bool("tts", status.TTSAvailable),
		zap.String("tts_provider", status.SynthesisProvider))
	return p
}
