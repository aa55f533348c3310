package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/2004yashu-cpu/audio-translator/adapters/memory"
	mongoadapter "github.com/2004yashu-cpu/audio-translator/adapters/mongo"
	"github.com/2004yashu-cpu/audio-translator/adapters/stt"
	"github.com/2004yashu-cpu/audio-translator/adapters/translate"
	"github.com/2004yashu-cpu/audio-translator/adapters/tts"
	"github.com/2004yashu-cpu/audio-translator/domain/repositories"
	"github.com/2004yashu-cpu/audio-translator/internal/api"
	"github.com/2004yashu-cpu/audio-translator/internal/audio"
	"github.com/2004yashu-cpu/audio-translator/internal/websocket"
	"github.com/2004yashu-cpu/audio-translator/usecase"
)

func main() {
	// Load environment variables from .env file if present
	_ = godotenv.Load()

	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	// Create Echo instance
	e := echo.New()

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	// Initialize adapters
	speechToText := buildSpeechToText(logger)
	backend := buildTranslator(logger)
	textToSpeech, voices := buildTextToSpeech(logger)
	runs, mongoClient := buildRunRepository(logger)

	spool, err := audio.NewSpool(os.Getenv("AUDIO_SPOOL_DIR"), logger)
	if err != nil {
		logger.Fatal("Failed to create audio spool", zap.Error(err))
	}
	spool.Start(5*time.Minute, 30*time.Minute)
	defer spool.Stop()

	normalizer := audio.NewNormalizer(audio.NewNormalizerConfigFromEnv(), logger)

	// Initialize usecase services
	pipelineConfig := usecase.NewPipelineConfigFromEnv()
	translator := usecase.NewPivotTranslator(backend, logger)
	pipelineService := usecase.NewPipelineService(
		pipelineConfig,
		speechToText,
		translator,
		textToSpeech,
		runs,
		spool,
		normalizer,
		logger,
	)

	// Initialize WebSocket hub for microphone sessions
	hub := websocket.NewHub(pipelineService, logger)
	go hub.Run()

	// Initialize API routes
	api.InitRoutes(e, hub, pipelineService, voices, logger)

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	// Graceful shutdown
	go func() {
		if err := e.Start(":" + port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("shutting down the server", zap.Error(err))
		}
	}()

	logger.Info("Server started",
		zap.String("port", port),
		zap.Bool("translation_enabled", pipelineConfig.EnableTranslation),
		zap.Bool("voice_output_enabled", pipelineConfig.EnableVoiceOutput),
		zap.Bool("microphone_allowed", pipelineConfig.AllowMicrophone))

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	if mongoClient != nil {
		if err := mongoClient.Close(ctx); err != nil {
			logger.Error("Failed to close MongoDB connection", zap.Error(err))
		}
	}

	logger.Info("Server exited")
}

// buildSpeechToText selects the transcription backend. STT_BACKEND forces a
// choice; otherwise the first backend with credentials wins, falling back to
// the mock for local development.
func buildSpeechToText(logger *zap.Logger) repositories.SpeechToText {
	backend := os.Getenv("STT_BACKEND")
	if backend == "" {
		switch {
		case os.Getenv("OPENAI_API_KEY") != "":
			backend = "whisper"
		case os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") != "":
			backend = "google"
		default:
			backend = "mock"
		}
	}

	switch backend {
	case "whisper":
		whisper, err := stt.NewWhisperSpeechToText(stt.NewWhisperConfigFromEnv(), logger)
		if err != nil {
			logger.Fatal("Failed to initialize Whisper backend", zap.Error(err))
		}
		logger.Info("Using Whisper speech-to-text backend")
		return whisper
	case "google":
		logger.Info("Using Google Cloud speech-to-text backend")
		return &stt.GoogleSpeechToText{}
	default:
		logger.Warn("Using mock speech-to-text backend")
		return stt.NewMockSpeechToText(logger)
	}
}

// buildTranslator selects the translation backend
func buildTranslator(logger *zap.Logger) repositories.Translator {
	backend := os.Getenv("TRANSLATE_BACKEND")
	if backend == "" {
		if os.Getenv("GEMINI_API_KEY") != "" {
			backend = "gemini"
		} else {
			backend = "google"
		}
	}

	switch backend {
	case "gemini":
		gemini, err := translate.NewGeminiTranslate(logger)
		if err != nil {
			logger.Fatal("Failed to initialize Gemini translation backend", zap.Error(err))
		}
		logger.Info("Using Gemini translation backend")
		return gemini
	case "mock":
		logger.Warn("Using mock translation backend")
		return translate.NewMockTranslate(logger)
	default:
		logger.Info("Using Google translation backend")
		return translate.NewGoogleTranslate(translate.NewGoogleTranslateConfigFromEnv(), logger)
	}
}

// buildTextToSpeech selects the synthesis backend. When ElevenLabs is
// configured its voice listing is exposed on the API as well.
func buildTextToSpeech(logger *zap.Logger) (repositories.TextToSpeech, api.VoiceLister) {
	if os.Getenv("ELEVEN_LABS_API_KEY") != "" {
		elevenLabs, err := tts.NewElevenLabsTTS(tts.NewElevenLabsConfigFromEnv(), logger)
		if err != nil {
			logger.Fatal("Failed to initialize ElevenLabs backend", zap.Error(err))
		}
		logger.Info("Using ElevenLabs text-to-speech backend")
		return elevenLabs, elevenLabs
	}

	logger.Warn("Using mock text-to-speech backend")
	return tts.NewMockTextToSpeech(logger), nil
}

// buildRunRepository uses MongoDB when MONGODB_URI is set and an in-memory
// store otherwise. The mongo client is returned so shutdown can close it.
func buildRunRepository(logger *zap.Logger) (repositories.RunRepository, *mongoadapter.Client) {
	if os.Getenv("MONGODB_URI") == "" {
		logger.Info("Using in-memory run repository")
		return memory.NewRunRepository(), nil
	}

	client, err := mongoadapter.NewClient(logger)
	if err != nil {
		logger.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	logger.Info("Using MongoDB run repository")
	return mongoadapter.NewRunRepository(client.Database), client
}
