package speech

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"

	"github.com/Divya4879/Sassy-AI-Debate-Coach/domain"
	"github.com/Divya4879/Sassy-AI-Debate-Coach/utils/log"
	"go.uber.org/zap"
)

const googleLanguageCode = "en-US"

// GoogleSpeech uses application default credentials.
type GoogleSpeech struct {
	client *speech.Client
}

func NewGoogleSpeech(ctx context.Context) (*GoogleSpeech, error) {
	client, err := speech.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating Google speech client: %w", err)
	}
	return &GoogleSpeech{client: client}, nil
}

func (g *GoogleSpeech) Name() string { return "google" }

func (g *GoogleSpeech) Close() error { return g.client.Close() }

// Transcribe sends a WAV file in one Recognize call; the encoding is read
// from the file header.
func (g *GoogleSpeech) Transcribe(ctx context.Context, audioPath string) (string, error) {
	audio, err := os.ReadFile(audioPath)
	if err != nil {
		return "", fmt.Errorf("reading audio: %w", err)
	}

	resp, err := g.client.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			LanguageCode:               googleLanguageCode,
			EnableAutomaticPunctuation: true,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: audio},
		},
	})
	if err != nil {
		return "", fmt.Errorf("recognizing speech: %w", err)
	}

	var parts []string
	for _, result := range resp.GetResults() {
		if alts := result.GetAlternatives(); len(alts) > 0 {
			parts = append(parts, strings.TrimSpace(alts[0].GetTranscript()))
		}
	}
	text := strings.TrimSpace(strings.Join(parts, " "))
	if text == "" {
		return "", errors.New("no text in transcription result")
	}
	return text, nil
}

func (g *GoogleSpeech) StartStreaming(ctx context.Context, handlers domain.StreamHandlers) (domain.StreamSession, error) {
	streamCtx, cancel := context.WithCancel(ctx)
	streamingClient, err := g.client.StreamingRecognize(streamCtx)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("creating streaming client: %w", err)
	}

	err = streamingClient.Send(&speechpb.StreamingRecognizeRequest{
		StreamingRequest: &speechpb.StreamingRecognizeRequest_StreamingConfig{
			StreamingConfig: &speechpb.StreamingRecognitionConfig{
				Config: &speechpb.RecognitionConfig{
					Encoding:                   speechpb.RecognitionConfig_LINEAR16,
					SampleRateHertz:            StreamSampleRate,
					LanguageCode:               googleLanguageCode,
					EnableAutomaticPunctuation: true,
				},
				InterimResults: true,
			},
		},
	})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("sending streaming config: %w", err)
	}

	s := &googleStream{
		client:   streamingClient,
		handlers: handlers,
		cancel:   cancel,
		done:     make(chan struct{}),
		logger:   log.WithCtx(ctx),
	}
	go s.receive()
	return s, nil
}

type googleStream struct {
	client   speechpb.Speech_StreamingRecognizeClient
	handlers domain.StreamHandlers
	cancel   context.CancelFunc
	logger   *zap.Logger

	mu     sync.Mutex
	closed bool

	finals []string
	done   chan struct{}
}

func (s *googleStream) Write(audio []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errStreamClosed
	}
	return s.client.Send(&speechpb.StreamingRecognizeRequest{
		StreamingRequest: &speechpb.StreamingRecognizeRequest_AudioContent{AudioContent: audio},
	})
}

func (s *googleStream) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	err := s.client.CloseSend()
	s.mu.Unlock()

	<-s.done
	s.cancel()
	return err
}

func (s *googleStream) receive() {
	defer close(s.done)

	for {
		resp, err := s.client.Recv()
		if errors.Is(err, io.EOF) {
			if s.handlers.OnFinal != nil {
				s.handlers.OnFinal(strings.Join(s.finals, " "))
			}
			return
		}
		if err != nil {
			if s.handlers.OnError != nil {
				s.handlers.OnError(fmt.Errorf("streaming recognize: %w", err))
			}
			return
		}

		for _, result := range resp.GetResults() {
			alts := result.GetAlternatives()
			if len(alts) == 0 {
				continue
			}
			text := strings.TrimSpace(alts[0].GetTranscript())
			if result.GetIsFinal() {
				if text != "" {
					s.finals = append(s.finals, text)
				}
				continue
			}
			if len(text) >= minPartialLength && s.handlers.OnPartial != nil {
				s.handlers.OnPartial(text)
			}
		}
	}
}
