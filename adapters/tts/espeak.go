package tts

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/Divya4879/Sassy-AI-Debate-Coach/domain"
)

const espeakRate = "180"

var espeakBinaries = []string{"espeak-ng", "espeak"}

// Espeak shells out to a local espeak-ng or espeak binary and produces WAV.
type Espeak struct {
	binary string
}

// LookupEspeak returns nil when neither binary is on PATH.
func LookupEspeak() *Espeak {
	for _, name := range espeakBinaries {
		if path, err := exec.LookPath(name); err == nil {
			return &Espeak{binary: path}
		}
	}
	return nil
}

func (e *Espeak) Name() string { return filepath.Base(e.binary) }

func (e *Espeak) Synthesize(ctx context.Context, text string, voice domain.Gender) (domain.AudioClip, error) {
	dir, err := os.MkdirTemp("", "espeak-*")
	if err != nil {
		return domain.AudioClip{}, fmt.Errorf("creating temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	out := filepath.Join(dir, "speech.wav")
	cmd := exec.CommandContext(ctx, e.binary, espeakArgs(voice, out)...)
	cmd.Stdin = bytes.NewBufferString(text)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return domain.AudioClip{}, fmt.Errorf("%s failed: %w: %s", e.Name(), err, stderr.String())
	}

	data, err := os.ReadFile(out)
	if err != nil {
		return domain.AudioClip{}, fmt.Errorf("reading synthesized audio: %w", err)
	}
	return domain.AudioClip{Data: data, Format: domain.FormatWAV}, nil
}

// espeakArgs reads the text from stdin.
func espeakArgs(voice domain.Gender, out string) []string {
	v := "en-us+m3"
	if voice == domain.Female {
		v = "en-us+f3"
	}
	return []string{"-v", v, "-s", espeakRate, "-w", out, "--stdin"}
}
