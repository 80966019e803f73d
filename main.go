package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Divya4879/Sassy-AI-Debate-Coach/adapters/hasher"
	httpadapter "github.com/Divya4879/Sassy-AI-Debate-Coach/adapters/http"
	"github.com/Divya4879/Sassy-AI-Debate-Coach/adapters/llm"
	"github.com/Divya4879/Sassy-AI-Debate-Coach/adapters/message_broker"
	"github.com/Divya4879/Sassy-AI-Debate-Coach/adapters/store"
	"github.com/Divya4879/Sassy-AI-Debate-Coach/adapters/tlscert"
	"github.com/Divya4879/Sassy-AI-Debate-Coach/adapters/voice"
	"github.com/Divya4879/Sassy-AI-Debate-Coach/adapters/websocket"
	"github.com/Divya4879/Sassy-AI-Debate-Coach/config"
	"github.com/Divya4879/Sassy-AI-Debate-Coach/domain"
	"github.com/Divya4879/Sassy-AI-Debate-Coach/usecase"
	"github.com/Divya4879/Sassy-AI-Debate-Coach/utils/log"
)

const shutdownTimeout = 10 * time.Second

var rootCmd = &cobra.Command{
	Use:           "debate-coach",
	Short:         "Debate practice server with persona opponents and voice",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web server",
	RunE:  runServe,
}

var gencertCmd = &cobra.Command{
	Use:   "gencert",
	Short: "Generate a self-signed localhost certificate if none exists",
	RunE:  runGencert,
}

var personasCmd = &cobra.Command{
	Use:   "personas",
	Short: "List the available debate personas",
	Run: func(cmd *cobra.Command, args []string) {
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tVOICE\tSTYLE")
		for _, p := range domain.DefaultPersonaRegistry().List() {
			fmt.Fprintf(w, "%s\t%s\t%s\n", p.ID, p.Voice, p.Style)
		}
		w.Flush()
	},
}

var (
	flagAddr     string
	flagNoTLS    bool
	flagCertPath string
	flagKeyPath  string
)

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(gencertCmd)
	rootCmd.AddCommand(personasCmd)

	for _, cmd := range []*cobra.Command{rootCmd, serveCmd} {
		cmd.Flags().StringVar(&flagAddr, "addr", "", "Listen address (overrides ADDR)")
		cmd.Flags().BoolVar(&flagNoTLS, "no-tls", false, "Serve plain HTTP")
	}
	gencertCmd.Flags().StringVar(&flagCertPath, "cert", "", "Certificate path (default TLS_CERT)")
	gencertCmd.Flags().StringVar(&flagKeyPath, "key", "", "Key path (default TLS_KEY)")
}

func main() {
	defer log.Sync()

	if err := rootCmd.Execute(); err != nil {
		log.With().Error("Command failed", zap.Error(err))
		log.Sync()
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	if flagAddr != "" {
		cfg.Server.Addr = flagAddr
	}
	if flagNoTLS {
		cfg.Server.TLSEnabled = false
	}
	log.Init(cfg.Debug)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	logger := log.WithCtx(ctx)

	sessionStore, closeStore, err := openStore(ctx, cfg.Server)
	if err != nil {
		return err
	}
	defer closeStore()

	personas := domain.DefaultPersonaRegistry()
	primary, secondary := llm.NewProviders(ctx, llm.Config{
		GroqAPIKey:      cfg.LLM.GroqAPIKey,
		GroqModel:       cfg.LLM.GroqModel,
		GeminiAPIKey:    cfg.LLM.GeminiAPIKey,
		GeminiModel:     cfg.LLM.GeminiModel,
		AnthropicAPIKey: cfg.LLM.AnthropicAPIKey,
		ClaudeModel:     cfg.LLM.ClaudeModel,
	})
	responder := usecase.NewResponder(primary, secondary, usecase.NewMockResponder()).WithTimeout(cfg.LLM.Timeout)
	debates := usecase.NewDebateService(sessionStore, personas, responder)

	speech := voice.Detect(ctx, personas, voice.Options{
		AssemblyAIKey:       cfg.Voice.AssemblyAIKey,
		GoogleSpeechEnabled: cfg.Voice.GoogleSpeechEnabled,
		TTSEngine:           cfg.Voice.TTSEngine,
	})
	defer speech.Close()
	voiceService := usecase.NewVoiceService(speech, hasher.NewFingerprint(), cfg.Paths.AudioDir, cfg.Paths.TempDir)

	broker := message_broker.NewChannelMessageBroker()
	defer broker.Close()

	wsServer := websocket.NewServer(voiceService, broker, httpadapter.SessionID)
	if err := wsServer.Run(ctx); err != nil {
		return fmt.Errorf("starting websocket server: %w", err)
	}

	useTLS := cfg.Server.TLSEnabled && ensureCert(cfg.Server.TLSCert, cfg.Server.TLSKey)
	sessions := httpadapter.NewSessions(cfg.Server.SessionSecret, cfg.Server.SessionTTL, useTLS)

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = httpadapter.ErrorHandler

	// Security middleware
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.Secure())
	e.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(20))) // 20 requests per second per client
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{
			echo.HeaderOrigin,
			echo.HeaderContentType,
			echo.HeaderAccept,
			"Content-Length",
		},
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))
	e.Use(middleware.BodyLimit("10MB"))

	e.Static("/static", cfg.Paths.StaticDir)
	e.File("/", filepath.Join(cfg.Paths.StaticDir, "index.html"))

	httpadapter.NewDebateHandler(debates, voiceService, personas, broker).Register(e, sessions)
	e.GET("/ws/transcribe", wsServer.Handler, sessions.Middleware)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("🚀 Starting server",
			zap.String("addr", cfg.Server.Addr),
			zap.Bool("tls", useTLS),
			zap.String("session_store", cfg.Server.SessionStore))
		if useTLS {
			errCh <- e.StartTLS(cfg.Server.Addr, cfg.Server.TLSCert, cfg.Server.TLSKey)
			return
		}
		errCh <- e.Start(cfg.Server.Addr)
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("🛑 Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func openStore(ctx context.Context, cfg config.Server) (domain.SessionStore, func(), error) {
	if cfg.SessionStore != "mongo" {
		return store.NewMemorySessionStore(cfg.SessionTTL), func() {}, nil
	}

	mongoStore, err := store.NewMongoSessionStore(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.SessionTTL)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting session store: %w", err)
	}
	return mongoStore, func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := mongoStore.Close(closeCtx); err != nil {
			log.With().Warn("Closing session store", zap.Error(err))
		}
	}, nil
}

// ensureCert reports whether a usable certificate pair is in place.
func ensureCert(certPath, keyPath string) bool {
	created, err := tlscert.EnsureSelfSigned(certPath, keyPath)
	if err != nil {
		log.With().Warn("⚠️ TLS certificate unavailable, serving plain HTTP", zap.Error(err))
		return false
	}
	if created {
		log.With().Info("🔐 Generated self-signed certificate",
			zap.String("cert", certPath),
			zap.String("key", keyPath))
	}
	return true
}

func runGencert(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	certPath, keyPath := cfg.Server.TLSCert, cfg.Server.TLSKey
	if flagCertPath != "" {
		certPath = flagCertPath
	}
	if flagKeyPath != "" {
		keyPath = flagKeyPath
	}

	created, err := tlscert.EnsureSelfSigned(certPath, keyPath)
	if err != nil {
		return err
	}
	if created {
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s and %s\n", certPath, keyPath)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "%s and %s already exist\n", certPath, keyPath)
	}
	return nil
}
