package tts

import (
	"context"
	"fmt"

	texttospeech "cloud.google.com/go/texttospeech/apiv1"
	"cloud.google.com/go/texttospeech/apiv1/texttospeechpb"

	"github.com/Divya4879/Sassy-AI-Debate-Coach/domain"
)

const (
	googleMaleVoice   = "en-US-Chirp3-HD-Charon"
	googleFemaleVoice = "en-US-Chirp3-HD-Leda"
)

// GoogleTTS uses application default credentials.
type GoogleTTS struct {
	client *texttospeech.Client
}

func NewGoogleTTS(ctx context.Context) (*GoogleTTS, error) {
	client, err := texttospeech.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating Google tts client: %w", err)
	}
	return &GoogleTTS{client: client}, nil
}

func (g *GoogleTTS) Name() string { return "google" }

func (g *GoogleTTS) Close() error { return g.client.Close() }

func (g *GoogleTTS) Synthesize(ctx context.Context, text string, voice domain.Gender) (domain.AudioClip, error) {
	resp, err := g.client.SynthesizeSpeech(ctx, synthesizeRequest(text, voice))
	if err != nil {
		return domain.AudioClip{}, fmt.Errorf("synthesizing speech: %w", err)
	}
	return domain.AudioClip{Data: resp.GetAudioContent(), Format: domain.FormatMP3}, nil
}

func synthesizeRequest(text string, voice domain.Gender) *texttospeechpb.SynthesizeSpeechRequest {
	name, gender := googleMaleVoice, texttospeechpb.SsmlVoiceGender_MALE
	if voice == domain.Female {
		name, gender = googleFemaleVoice, texttospeechpb.SsmlVoiceGender_FEMALE
	}
	return &texttospeechpb.SynthesizeSpeechRequest{
		Input: &texttospeechpb.SynthesisInput{
			InputSource: &texttospeechpb.SynthesisInput_Text{
				Text: text,
			},
		},
		Voice: &texttospeechpb.VoiceSelectionParams{
			LanguageCode: "en-US",
			Name:         name,
			SsmlGender:   gender,
		},
		AudioConfig: &texttospeechpb.AudioConfig{
			AudioEncoding: texttospeechpb.AudioEncoding_MP3,
		},
	}
}
