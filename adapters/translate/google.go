package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/2004yashu-cpu/audio-translator/domain/entities"
	"github.com/2004yashu-cpu/audio-translator/domain/repositories"
)

const (
	defaultTranslateBaseURL = "https://translate.googleapis.com"
	defaultTranslateTimeout = 30 * time.Second
)

// GoogleTranslateConfig holds configuration for the GoogleTranslate adapter
// Optional fields with defaults:
// - BaseURL: The base URL of the translate endpoint (default: "https://translate.googleapis.com")
// - Timeout: Per-request timeout (default: 30s)
type GoogleTranslateConfig struct {
	BaseURL string
	Timeout time.Duration
}

// NewGoogleTranslateConfigFromEnv creates a GoogleTranslateConfig from
// environment variables
func NewGoogleTranslateConfigFromEnv() GoogleTranslateConfig {
	config := GoogleTranslateConfig{
		BaseURL: os.Getenv("GOOGLE_TRANSLATE_BASE_URL"),
	}
	if timeoutStr := os.Getenv("GOOGLE_TRANSLATE_TIMEOUT"); timeoutStr != "" {
		if timeout, err := time.ParseDuration(timeoutStr); err == nil && timeout > 0 {
			config.Timeout = timeout
		}
	}
	return config
}

// GoogleTranslate implements Translator against the public translate web
// endpoint, the same backend the original notes app delegated to. One
// request per call, no batching and no retry.
type GoogleTranslate struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

var _ repositories.Translator = (*GoogleTranslate)(nil)

// NewGoogleTranslate creates a new translate adapter, applying defaults
// where needed
func NewGoogleTranslate(config GoogleTranslateConfig, logger *zap.Logger) *GoogleTranslate {
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = defaultTranslateBaseURL
	}
	timeout := config.Timeout
	if timeout == 0 {
		timeout = defaultTranslateTimeout
	}
	return &GoogleTranslate{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// Translate translates text for a single language pair
func (g *GoogleTranslate) Translate(ctx context.Context, text string, source, target entities.Language) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil
	}

	query := url.Values{}
	query.Set("client", "gtx")
	query.Set("sl", string(source))
	query.Set("tl", string(target))
	query.Set("dt", "t")
	query.Set("q", text)

	endpoint := fmt.Sprintf("%s/translate_a/single?%s", g.baseURL, query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create translate request: %w", err)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("translate request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read translate response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		g.logger.Error("Translate endpoint returned error",
			zap.Int("statusCode", resp.StatusCode),
			zap.String("source", string(source)),
			zap.String("target", string(target)))
		return "", fmt.Errorf("translate endpoint returned %d", resp.StatusCode)
	}

	translated, err := parseTranslateResponse(body)
	if err != nil {
		return "", err
	}

	g.logger.Debug("Translate call completed",
		zap.String("source", string(source)),
		zap.String("target", string(target)),
		zap.Int("length", len(translated)))

	return translated, nil
}

// parseTranslateResponse extracts the translated text from the endpoint's
// nested-array payload: [[["<translated>","<original>",...],...],...]
func parseTranslateResponse(body []byte) (string, error) {
	var payload []json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("failed to decode translate response: %w", err)
	}
	if len(payload) == 0 {
		return "", fmt.Errorf("empty translate response")
	}

	var segments [][]json.RawMessage
	if err := json.Unmarshal(payload[0], &segments); err != nil {
		return "", fmt.Errorf("failed to decode translate segments: %w", err)
	}

	var sb strings.Builder
	for _, segment := range segments {
		if len(segment) == 0 {
			continue
		}
		var piece string
		if err := json.Unmarshal(segment[0], &piece); err != nil {
			continue
		}
		sb.WriteString(piece)
	}

	return sb.String(), nil
}
