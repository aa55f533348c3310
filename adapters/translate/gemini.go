package translate

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/2004yashu-cpu/audio-translator/domain/entities"
	"github.com/2004yashu-cpu/audio-translator/domain/repositories"
)

const (
	defaultGeminiModel   = "gemini-2.0-flash"
	defaultGeminiTimeout = 30 * time.Second
)

// GeminiTranslate implements Translator on top of the Gemini API, as an
// alternative backend to the translate web endpoint
type GeminiTranslate struct {
	client *genai.Client
	logger *zap.Logger
	model  string
}

var _ repositories.Translator = (*GeminiTranslate)(nil)

// NewGeminiTranslate creates a new Gemini translation adapter
func NewGeminiTranslate(logger *zap.Logger) (*GeminiTranslate, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable is required")
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := os.Getenv("GEMINI_MODEL")
	if model == "" {
		model = defaultGeminiModel
	}

	return &GeminiTranslate{
		client: client,
		logger: logger,
		model:  model,
	}, nil
}

// Translate translates text for a single language pair via a constrained
// prompt. No retry: the pipeline does not retry anything.
func (g *GeminiTranslate) Translate(ctx context.Context, text string, source, target entities.Language) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil
	}

	prompt := fmt.Sprintf(
		"Translate the following text from %s to %s. Reply with the translation only, no explanations.\n\n%s",
		source.Name(), target.Name(), text)

	contents := []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}
	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(0.1)),
	}

	ctx, cancel := context.WithTimeout(ctx, defaultGeminiTimeout)
	defer cancel()

	response, err := g.client.Models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return "", fmt.Errorf("gemini translation failed: %w", err)
	}

	if len(response.Candidates) == 0 || response.Candidates[0].Content == nil || len(response.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini returned no translation")
	}

	var sb strings.Builder
	for _, part := range response.Candidates[0].Content.Parts {
		if part.Text != "" {
			sb.WriteString(part.Text)
		}
	}

	translated := strings.TrimSpace(sb.String())
	if translated == "" {
		return "", fmt.Errorf("gemini returned an empty translation")
	}

	g.logger.Debug("Gemini translation completed",
		zap.String("source", string(source)),
		zap.String("target", string(target)),
		zap.Int("length", len(translated)))

	return translated, nil
}
