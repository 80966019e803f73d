package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	cfg := FromEnv(func(string) string { return "" })

	assert.Equal(t, ":5000", cfg.Server.Addr)
	assert.Equal(t, "memory", cfg.Server.SessionStore)
	assert.Equal(t, 24*time.Hour, cfg.Server.SessionTTL)
	assert.True(t, cfg.Server.TLSEnabled)
	assert.Equal(t, "llama3-8b-8192", cfg.LLM.GroqModel)
	assert.Equal(t, 30*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, "auto", cfg.Voice.TTSEngine)
	assert.Equal(t, "static/audio", cfg.Paths.AudioDir)
	assert.Empty(t, cfg.LLM.GroqAPIKey)
	assert.False(t, cfg.Debug)
}

func TestFromEnv_Overrides(t *testing.T) {
	vars := map[string]string{
		"ADDR":                  ":8443",
		"SESSION_STORE":         "Mongo",
		"SESSION_TTL":           "2h",
		"TLS_ENABLED":           "false",
		"GROQ_API_KEY":          " gsk-1 ",
		"LLM_TIMEOUT":           "not-a-duration",
		"GOOGLE_SPEECH_ENABLED": "1",
		"TTS_ENGINE":            "ESPEAK",
		"DEBUG":                 "true",
	}
	cfg := FromEnv(func(k string) string { return vars[k] })

	assert.Equal(t, ":8443", cfg.Server.Addr)
	assert.Equal(t, "mongo", cfg.Server.SessionStore)
	assert.Equal(t, 2*time.Hour, cfg.Server.SessionTTL)
	assert.False(t, cfg.Server.TLSEnabled)
	assert.Equal(t, "gsk-1", cfg.LLM.GroqAPIKey)
	assert.Equal(t, 30*time.Second, cfg.LLM.Timeout)
	assert.True(t, cfg.Voice.GoogleSpeechEnabled)
	assert.Equal(t, "espeak", cfg.Voice.TTSEngine)
	assert.True(t, cfg.Debug)
}

func TestLoadEnvFiles(t *testing.T) {
	dir := t.TempDir()
	keys := filepath.Join(dir, "api_keys.env")
	require.NoError(t, os.WriteFile(keys, []byte("DEBATE_COACH_TEST_KEY=from-file\n"), 0o600))

	t.Setenv("DEBATE_COACH_TEST_KEY", "")
	os.Unsetenv("DEBATE_COACH_TEST_KEY")

	LoadEnvFiles(filepath.Join(dir, "missing.env"), keys)
	assert.Equal(t, "from-file", os.Getenv("DEBATE_COACH_TEST_KEY"))
}
