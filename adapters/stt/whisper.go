package stt

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/2004yashu-cpu/audio-translator/domain/repositories"
)

const defaultWhisperModel = openai.Whisper1

// WhisperConfig holds configuration for the Whisper adapter
// Required fields:
// - APIKey: Your OpenAI API key
// Optional fields with defaults:
// - BaseURL: API base URL, for OpenAI-compatible whisper servers
// - Model: The transcription model (default: whisper-1)
type WhisperConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// NewWhisperConfigFromEnv creates a WhisperConfig from environment variables
func NewWhisperConfigFromEnv() WhisperConfig {
	return WhisperConfig{
		APIKey:  os.Getenv("OPENAI_API_KEY"),
		BaseURL: os.Getenv("OPENAI_API_BASE_URL"),
		Model:   os.Getenv("WHISPER_MODEL"),
	}
}

// ValidateWhisperConfig validates the WhisperConfig
func ValidateWhisperConfig(config WhisperConfig) error {
	if config.APIKey == "" {
		return fmt.Errorf("OpenAI API key is required")
	}
	return nil
}

// WhisperSpeechToText implements SpeechToText using the Whisper
// transcription API. It handles complete clips; streaming sessions buffer
// audio and transcribe once on End.
type WhisperSpeechToText struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

var _ repositories.SpeechToText = (*WhisperSpeechToText)(nil)

// NewWhisperSpeechToText creates a new Whisper transcription adapter
func NewWhisperSpeechToText(config WhisperConfig, logger *zap.Logger) (*WhisperSpeechToText, error) {
	if err := ValidateWhisperConfig(config); err != nil {
		return nil, err
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
		logger.Info("Using custom whisper base URL", zap.String("baseURL", config.BaseURL))
	}

	model := config.Model
	if model == "" {
		model = defaultWhisperModel
	}

	return &WhisperSpeechToText{
		client: openai.NewClientWithConfig(clientConfig),
		model:  model,
		logger: logger,
	}, nil
}

// TranscribeAudio converts a complete clip to text. The language hint is
// passed down as a two-letter code; the VAD flag is accepted for interface
// parity but segmentation is the backend's own concern here.
func (w *WhisperSpeechToText) TranscribeAudio(ctx context.Context, audioData []byte, config repositories.AudioConfig) (string, error) {
	if len(audioData) == 0 {
		return "", fmt.Errorf("no audio data received")
	}

	resp, err := w.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    w.model,
		FilePath: "clip.wav",
		Reader:   bytes.NewReader(audioData),
		Language: string(config.Language),
	})
	if err != nil {
		return "", fmt.Errorf("whisper transcription failed: %w", err)
	}

	text := strings.TrimSpace(resp.Text)
	w.logger.Info("Whisper transcription completed",
		zap.String("language", string(config.Language)),
		zap.Int("audioSize", len(audioData)),
		zap.Int("textLength", len(text)))

	return text, nil
}

// InitTranscribeStreaming starts a buffering session; the whole buffer is
// wrapped as WAV and transcribed when End is called.
func (w *WhisperSpeechToText) InitTranscribeStreaming(ctx context.Context, config repositories.AudioConfig) (repositories.SpeechToTextStreaming, error) {
	return &whisperStream{
		parent: w,
		ctx:    ctx,
		config: config,
	}, nil
}

type whisperStream struct {
	parent *WhisperSpeechToText
	ctx    context.Context
	config repositories.AudioConfig
	buf    bytes.Buffer
}

func (s *whisperStream) Stream(data []byte) error {
	_, err := s.buf.Write(data)
	return err
}

func (s *whisperStream) End() (string, error) {
	if s.buf.Len() == 0 {
		return "", fmt.Errorf("no audio data received")
	}

	data := s.buf.Bytes()
	if s.config.Encoding == "pcm" || s.config.Encoding == "LINEAR16" {
		wrapped, err := pcmToWAV(data, s.config.SampleRate)
		if err != nil {
			return "", err
		}
		data = wrapped
	}

	return s.parent.TranscribeAudio(s.ctx, data, s.config)
}

// pcmToWAV wraps raw 16-bit little-endian mono PCM in a WAV container
func pcmToWAV(pcm []byte, sampleRate int) ([]byte, error) {
	if sampleRate <= 0 {
		sampleRate = 16000
	}

	tmp, err := os.CreateTemp("", "whisper-*.wav")
	if err != nil {
		return nil, fmt.Errorf("failed to stage wav container: %w", err)
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	enc := wav.NewEncoder(tmp, sampleRate, 16, 1, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: sampleRate},
		SourceBitDepth: 16,
		Data:           make([]int, len(pcm)/2),
	}
	for i := range buf.Data {
		buf.Data[i] = int(int16(uint16(pcm[2*i]) | uint16(pcm[2*i+1])<<8))
	}
	if err := enc.Write(buf); err != nil {
		return nil, fmt.Errorf("failed to encode wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize wav: %w", err)
	}

	return os.ReadFile(tmp.Name())
}
