package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/subosito/gotenv"
)

// EnvFiles are loaded, when present, before reading the environment. Values
// already set in the environment win.
var EnvFiles = []string{".env", "api_keys.env"}

type Config struct {
	Server Server
	LLM    LLM
	Voice  Voice
	Paths  Paths
	Debug  bool
}

type Server struct {
	Addr          string
	SessionSecret string
	SessionTTL    time.Duration
	// SessionStore is memory or mongo.
	SessionStore  string
	MongoURI      string
	MongoDatabase string
	TLSEnabled    bool
	TLSCert       string
	TLSKey        string
}

type LLM struct {
	GroqAPIKey      string
	GroqModel       string
	GeminiAPIKey    string
	GeminiModel     string
	AnthropicAPIKey string
	ClaudeModel     string
	Timeout         time.Duration
}

type Voice struct {
	AssemblyAIKey       string
	GoogleSpeechEnabled bool
	TTSEngine           string
}

type Paths struct {
	StaticDir string
	AudioDir  string
	TempDir   string
}

// LoadEnvFiles loads whichever of files exist.
func LoadEnvFiles(files ...string) {
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			_ = gotenv.Load(f)
		}
	}
}

// Load reads EnvFiles and then the environment. Missing credentials leave
// the matching provider disabled; they never fail startup.
func Load() Config {
	LoadEnvFiles(EnvFiles...)
	return FromEnv(os.Getenv)
}

func FromEnv(getenv func(string) string) Config {
	e := env(getenv)
	return Config{
		Server: Server{
			Addr:          e.str("ADDR", ":5000"),
			SessionSecret: e.str("SESSION_SECRET", ""),
			SessionTTL:    e.duration("SESSION_TTL", 24*time.Hour),
			SessionStore:  strings.ToLower(e.str("SESSION_STORE", "memory")),
			MongoURI:      e.str("MONGO_URI", "mongodb://localhost:27017"),
			MongoDatabase: e.str("MONGO_DATABASE", "debate_coach"),
			TLSEnabled:    e.bool("TLS_ENABLED", true),
			TLSCert:       e.str("TLS_CERT", "cert.pem"),
			TLSKey:        e.str("TLS_KEY", "key.pem"),
		},
		LLM: LLM{
			GroqAPIKey:      e.str("GROQ_API_KEY", ""),
			GroqModel:       e.str("GROQ_MODEL", "llama3-8b-8192"),
			GeminiAPIKey:    e.str("GEMINI_API_KEY", ""),
			GeminiModel:     e.str("GEMINI_MODEL", ""),
			AnthropicAPIKey: e.str("ANTHROPIC_API_KEY", ""),
			ClaudeModel:     e.str("CLAUDE_MODEL", ""),
			Timeout:         e.duration("LLM_TIMEOUT", 30*time.Second),
		},
		Voice: Voice{
			AssemblyAIKey:       e.str("ASSEMBLYAI_API_KEY", ""),
			GoogleSpeechEnabled: e.bool("GOOGLE_SPEECH_ENABLED", false),
			TTSEngine:           strings.ToLower(e.str("TTS_ENGINE", "auto")),
		},
		Paths: Paths{
			StaticDir: e.str("STATIC_DIR", "static"),
			AudioDir:  e.str("AUDIO_DIR", "static/audio"),
			TempDir:   e.str("TEMP_DIR", os.TempDir()),
		},
		Debug: e.bool("DEBUG", false),
	}
}

type env func(string) string

func (e env) str(key, def string) string {
	if v := strings.TrimSpace(e(key)); v != "" {
		return v
	}
	return def
}

func (e env) bool(key string, def bool) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(e(key)))
	if err != nil {
		return def
	}
	return v
}

func (e env) duration(key string, def time.Duration) time.Duration {
	v, err := time.ParseDuration(strings.TrimSpace(e(key)))
	if err != nil || v <= 0 {
		return def
	}
	return v
}
