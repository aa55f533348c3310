package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/2004yashu-cpu/audio-translator/domain/entities"
	"github.com/2004yashu-cpu/audio-translator/domain/repositories"
	"github.com/2004yashu-cpu/audio-translator/internal/audio"
	"github.com/2004yashu-cpu/audio-translator/internal/auth"
	"github.com/2004yashu-cpu/audio-translator/internal/websocket"
	"github.com/2004yashu-cpu/audio-translator/usecase"
)

// maxUploadBytes caps uploaded clip size at 25MB
const maxUploadBytes = 25 << 20

// VoiceLister is implemented by synthesis adapters that can enumerate
// their available voices
type VoiceLister interface {
	GetAvailableVoices(ctx context.Context) ([]map[string]interface{}, error)
}

// InitRoutes initializes all API routes
func InitRoutes(e *echo.Echo, hub *websocket.Hub, pipeline *usecase.PipelineService, voices VoiceLister, logger *zap.Logger) {
	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"service": "audio-translator",
		})
	})

	// API v1 routes
	v1 := e.Group("/api/v1")

	v1.GET("/languages", getLanguages)

	v1.POST("/transcriptions", func(c echo.Context) error {
		return createTranscription(c, pipeline, logger)
	})
	v1.POST("/translations", func(c echo.Context) error {
		return createTranslation(c, pipeline, logger)
	})
	v1.POST("/speech", func(c echo.Context) error {
		return createSpeech(c, pipeline, logger)
	})

	v1.GET("/runs", func(c echo.Context) error {
		return listRuns(c, pipeline)
	})
	v1.GET("/runs/:id", func(c echo.Context) error {
		return getRun(c, pipeline)
	})
	v1.GET("/runs/:id/transcript", func(c echo.Context) error {
		return downloadRunText(c, pipeline, "transcript")
	})
	v1.GET("/runs/:id/translation", func(c echo.Context) error {
		return downloadRunText(c, pipeline, "translation")
	})

	if voices != nil {
		v1.GET("/voices", func(c echo.Context) error {
			return listVoices(c, voices, logger)
		})
	}

	v1.POST("/stream/sessions", func(c echo.Context) error {
		return createStreamSession(c, pipeline, logger)
	})

	// WebSocket endpoint with JWT validation
	e.GET("/ws", func(c echo.Context) error {
		return websocketWithAuth(hub, c, logger)
	})
}

func getLanguages(c echo.Context) error {
	codes := entities.SupportedLanguages()
	languages := make([]LanguageInfo, 0, len(codes))
	for _, code := range codes {
		languages = append(languages, LanguageInfo{
			Code: string(code),
			Name: code.Name(),
		})
	}
	sort.Slice(languages, func(i, j int) bool {
		return languages[i].Name < languages[j].Name
	})
	return c.JSON(http.StatusOK, map[string]interface{}{
		"languages": languages,
	})
}

// createTranscription runs the full clip pipeline on an uploaded file
func createTranscription(c echo.Context, pipeline *usecase.PipelineService, logger *zap.Logger) error {
	fileHeader, err := c.FormFile("audio")
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "missing_audio",
			Message: "An audio file is required in the 'audio' field",
		})
	}
	if fileHeader.Size > maxUploadBytes {
		return c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{
			Error:   "file_too_large",
			Message: "Audio file exceeds the upload limit",
		})
	}

	language, err := entities.ParseLanguage(c.FormValue("language"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_language",
			Message: err.Error(),
		})
	}

	var translateTo entities.Language
	if raw := c.FormValue("translate_to"); raw != "" {
		translateTo, err = entities.ParseLanguage(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "invalid_language",
				Message: err.Error(),
			})
		}
	}

	vadFilter := true
	if raw := c.FormValue("vad"); raw != "" {
		if parsed, parseErr := strconv.ParseBool(raw); parseErr == nil {
			vadFilter = parsed
		}
	}

	src, err := fileHeader.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "unreadable_upload",
			Message: "Failed to read uploaded file",
		})
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, maxUploadBytes))
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "unreadable_upload",
			Message: "Failed to read uploaded file",
		})
	}

	run, err := pipeline.ProcessClip(c.Request().Context(), usecase.ClipRequest{
		Data:        data,
		Extension:   filepath.Ext(fileHeader.Filename),
		Language:    language,
		TranslateTo: translateTo,
		VADFilter:   vadFilter,
	})
	if err != nil {
		logger.Error("Clip pipeline failed", zap.Error(err))
		switch {
		case errors.Is(err, usecase.ErrTranslationDisabled):
			return c.JSON(http.StatusForbidden, ErrorResponse{
				Error:   "translation_disabled",
				Message: err.Error(),
			})
		case errors.Is(err, audio.ErrConversionFailed):
			return c.JSON(http.StatusBadGateway, ErrorResponse{
				Error:   "conversion_failed",
				Message: "Failed to convert the uploaded audio",
			})
		default:
			return c.JSON(http.StatusBadGateway, ErrorResponse{
				Error:   "pipeline_failed",
				Message: err.Error(),
			})
		}
	}

	if run.Status == entities.RunStatusRejected {
		return c.JSON(http.StatusUnprocessableEntity, run)
	}
	return c.JSON(http.StatusOK, run)
}

// createTranslation runs the text-only pivot translation
func createTranslation(c echo.Context, pipeline *usecase.PipelineService, logger *zap.Logger) error {
	var req TranslateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}

	source, err := entities.ParseLanguage(req.Source)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_language",
			Message: err.Error(),
		})
	}
	target, err := entities.ParseLanguage(req.Target)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_language",
			Message: err.Error(),
		})
	}

	run, err := pipeline.TranslateText(c.Request().Context(), req.Text, source, target)
	if err != nil {
		if errors.Is(err, usecase.ErrTranslationDisabled) {
			return c.JSON(http.StatusForbidden, ErrorResponse{
				Error:   "translation_disabled",
				Message: err.Error(),
			})
		}
		logger.Error("Translation failed", zap.Error(err))
		return c.JSON(http.StatusBadGateway, ErrorResponse{
			Error:   "translation_failed",
			Message: err.Error(),
		})
	}

	return c.JSON(http.StatusOK, TranslateResponse{
		RunID:       run.ID,
		Translation: run.Translation,
	})
}

// createSpeech synthesizes speech for the given text. An unsupported
// synthesis language is a warning, not a failure.
func createSpeech(c echo.Context, pipeline *usecase.PipelineService, logger *zap.Logger) error {
	var req SpeechRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}

	language, err := entities.ParseLanguage(req.Language)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_language",
			Message: err.Error(),
		})
	}

	audioData, err := pipeline.Synthesize(c.Request().Context(), req.Text, language)
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrSynthesisUnsupported):
			return c.JSON(http.StatusOK, WarningResponse{
				Warning: fmt.Sprintf("Voice output not supported for %s", language.Name()),
			})
		case errors.Is(err, usecase.ErrVoiceOutputDisabled):
			return c.JSON(http.StatusForbidden, ErrorResponse{
				Error:   "voice_output_disabled",
				Message: err.Error(),
			})
		default:
			logger.Error("Speech synthesis failed", zap.Error(err))
			return c.JSON(http.StatusBadGateway, ErrorResponse{
				Error:   "synthesis_failed",
				Message: err.Error(),
			})
		}
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="speech.mp3"`)
	return c.Blob(http.StatusOK, "audio/mpeg", audioData)
}

func listRuns(c echo.Context, pipeline *usecase.PipelineService) error {
	limit := 20
	if raw := c.QueryParam("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	runs, err := pipeline.ListRecentRuns(c.Request().Context(), limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to list runs",
		})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"runs": runs,
	})
}

func getRun(c echo.Context, pipeline *usecase.PipelineService) error {
	run, err := pipeline.GetRun(c.Request().Context(), c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to get run",
		})
	}
	if run == nil {
		return c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "Run not found",
		})
	}
	return c.JSON(http.StatusOK, run)
}

// downloadRunText serves the transcript or translation of a run as a plain
// text attachment
func downloadRunText(c echo.Context, pipeline *usecase.PipelineService, field string) error {
	run, err := pipeline.GetRun(c.Request().Context(), c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to get run",
		})
	}
	if run == nil {
		return c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "Run not found",
		})
	}

	text := run.Transcript
	if field == "translation" {
		text = run.Translation
	}
	if text == "" {
		return c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: fmt.Sprintf("Run has no %s", field),
		})
	}

	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="%s_%s.txt"`, field, run.ID))
	return c.Blob(http.StatusOK, "text/plain; charset=utf-8", []byte(text))
}

func listVoices(c echo.Context, voices VoiceLister, logger *zap.Logger) error {
	available, err := voices.GetAvailableVoices(c.Request().Context())
	if err != nil {
		logger.Error("Failed to list voices", zap.Error(err))
		return c.JSON(http.StatusBadGateway, ErrorResponse{
			Error:   "voices_unavailable",
			Message: "Failed to list available voices",
		})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"voices": available,
	})
}

// createStreamSession issues a JWT for one microphone streaming session
func createStreamSession(c echo.Context, pipeline *usecase.PipelineService, logger *zap.Logger) error {
	if !pipeline.Config().AllowMicrophone {
		return c.JSON(http.StatusForbidden, ErrorResponse{
			Error:   "microphone_disabled",
			Message: "Microphone input is disabled",
		})
	}

	sessionID := uuid.New().String()
	token, err := auth.GenerateStreamToken(sessionID)
	if err != nil {
		logger.Error("Failed to generate stream token",
			zap.String("session_id", sessionID),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "token_generation_failed",
			Message: "Failed to generate session token",
		})
	}

	// Expiration matches the JWT claims
	expiresAt := time.Now().Add(1 * time.Hour)

	logger.Info("Stream session created", zap.String("session_id", sessionID))

	return c.JSON(http.StatusOK, StreamSessionResponse{
		SessionID: sessionID,
		Token:     token,
		ExpiresAt: expiresAt,
	})
}

// websocketWithAuth handles WebSocket connections with JWT authentication
func websocketWithAuth(hub *websocket.Hub, c echo.Context, logger *zap.Logger) error {
	// Browsers cannot set headers on WebSocket dials, so the token is
	// accepted from the Authorization header or the query string
	var token string
	authHeader := c.Request().Header.Get("Authorization")
	if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
		token = authHeader[7:]
	}
	if token == "" {
		token = c.QueryParam("token")
	}

	if token == "" {
		logger.Warn("WebSocket connection rejected: missing token")
		return c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "missing_token",
			Message: "A stream session token is required",
		})
	}

	claims, err := auth.ValidateToken(token)
	if err != nil {
		logger.Warn("WebSocket connection rejected: invalid token", zap.Error(err))
		return c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "invalid_token",
			Message: "Invalid or expired session token",
		})
	}

	if claims.Role != "stream" || claims.SessionID == "" {
		logger.Warn("WebSocket connection rejected: invalid claims",
			zap.String("role", claims.Role))
		return c.JSON(http.StatusForbidden, ErrorResponse{
			Error:   "invalid_token_claims",
			Message: "Token is not a stream session token",
		})
	}

	logger.Info("WebSocket connection authenticated",
		zap.String("session_id", claims.SessionID))

	return websocket.HandleWebSocketWithAuth(hub, c, claims.SessionID, logger)
}
