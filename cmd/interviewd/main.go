// interviewd: WebSocket service for AI mock interviews
// Accepts browser connections and drives the speech → chat → speech pipeline
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/voxhire/go-interview/internal/config"
	"github.com/voxhire/go-interview/internal/log"
	"github.com/voxhire/go-interview/pkg/evaluation"
	"github.com/voxhire/go-interview/pkg/gateway"
	"github.com/voxhire/go-interview/pkg/inference"
	"github.com/voxhire/go-interview/pkg/interview"
	"github.com/voxhire/go-interview/pkg/stt"
	"github.com/voxhire/go-interview/pkg/tts"
)

var (
	version = "1.0.0"
	port    = flag.String("port", config.DefaultPort, "HTTP server port")
	debug   = flag.Bool("debug", false, "Enable debug logging and request logs")
)

func main() {
	flag.Parse()

	level := config.LogLevel()
	if *debug {
		level = "debug"
	}
	log.Init(level)

	if envPort := os.Getenv("PORT"); envPort != "" {
		*port = envPort
	}

	apiKey := config.OpenAIKey()

	sttProvider, err := newSTTProvider(apiKey)
	if err != nil {
		log.Error("could not create STT provider", "error", err)
		os.Exit(1)
	}
	defer sttProvider.Close()

	chatProvider, err := inference.NewClient(
		inference.WithAPIKey(apiKey),
		inference.WithLogger(log.L()),
	)
	if err != nil {
		log.Error("could not create chat provider", "error", err)
		os.Exit(1)
	}
	defer chatProvider.Close()

	ttsProvider, err := tts.NewOpenAI(
		tts.WithAPIKey(apiKey),
		tts.WithVoice(tts.VoiceNova),
		tts.WithLogger(log.L()),
	)
	if err != nil {
		log.Error("could not create TTS provider", "error", err)
		os.Exit(1)
	}
	defer ttsProvider.Close()

	probeProviders(sttProvider, chatProvider, ttsProvider)

	gw := gateway.New(gateway.Config{
		STT:         sttProvider,
		Interviews:  interview.NewEngine(chatProvider, log.L()),
		TTS:         ttsProvider,
		Evaluations: evaluation.NewEngine(chatProvider, log.L()),
		SpoolDir:    config.SpoolDir(),
		Logger:      log.L(),
	})

	app := fiber.New(fiber.Config{
		AppName:               "interviewd",
		DisableStartupMessage: true,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Content-Type,Authorization",
	}))
	if *debug {
		app.Use(logger.New())
	}

	gw.RegisterRoutes(app)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":   "ok",
			"version":  version,
			"sessions": gw.SessionCount(),
		})
	})

	app.Get("/metrics", func(c *fiber.Ctx) error {
		stats := gw.GetStats()
		return c.SendString(fmt.Sprintf(`# HELP interviewd_sessions Connected session count
# TYPE interviewd_sessions gauge
interviewd_sessions %d

# HELP interviewd_messages_received Total messages received
# TYPE interviewd_messages_received counter
interviewd_messages_received %d

# HELP interviewd_messages_sent Total messages sent
# TYPE interviewd_messages_sent counter
interviewd_messages_sent %d

# HELP interviewd_pipeline_runs Total pipeline runs
# TYPE interviewd_pipeline_runs counter
interviewd_pipeline_runs %d

# HELP interviewd_pipeline_errors Total pipeline failures
# TYPE interviewd_pipeline_errors counter
interviewd_pipeline_errors %d
`, stats.SessionCount, stats.MessagesReceived, stats.MessagesSent, stats.PipelineRuns, stats.PipelineErrors))
	})

	go func() {
		addr := ":" + *port
		log.Info("starting interviewd",
			"version", version,
			"addr", addr,
			"stt_provider", config.STTProvider(),
		)
		log.Info("endpoints",
			"websocket", fmt.Sprintf("ws://localhost:%s/ws/interview", *port),
			"health", fmt.Sprintf("http://localhost:%s/health", *port),
		)

		if err := app.Listen(addr); err != nil {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Error("shutdown error", "error", err)
	}
}

// probeProviders runs one health check per provider at startup.
// Failures are logged, not fatal; providers may recover before first use.
func probeProviders(s stt.Provider, chat inference.Provider, t tts.Provider) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	checks := []struct {
		name  string
		check func(context.Context) error
	}{
		{"stt", s.Health},
		{"chat", chat.Health},
		{"tts", t.Health},
	}

	for _, c := range checks {
		if err := c.check(ctx); err != nil {
			log.Warn("provider health check failed", "provider", c.name, "error", err)
		} else {
			log.Info("provider healthy", "provider", c.name)
		}
	}
}

// newSTTProvider builds the configured speech-to-text backend.
func newSTTProvider(openAIKey string) (stt.Provider, error) {
	switch config.STTProvider() {
	case "google":
		return stt.NewGoogle(
			stt.WithAPIKey(config.EnvRequired("GOOGLE_API_KEY")),
			stt.WithLogger(log.L()),
		)
	default:
		return stt.NewWhisper(
			stt.WithAPIKey(openAIKey),
			stt.WithLogger(log.L()),
		)
	}
}
