package repositories

import (
	"context"

	"github.com/2004yashu-cpu/audio-translator/domain/entities"
)

// SpeechToText abstracts speech recognition services
type SpeechToText interface {
	// TranscribeAudio converts a complete audio clip to text
	TranscribeAudio(ctx context.Context, audioData []byte, config AudioConfig) (string, error)
	// InitTranscribeStreaming initializes a streaming transcription session
	InitTranscribeStreaming(ctx context.Context, config AudioConfig) (SpeechToTextStreaming, error)
}

// AudioConfig represents audio configuration for speech recognition
type AudioConfig struct {
	SampleRate int               `json:"sample_rate"`
	Encoding   string            `json:"encoding"`
	Language   entities.Language `json:"language"`
	// VADFilter enables voice-activity-gated segmentation where the
	// backend supports it; silent regions are skipped.
	VADFilter bool `json:"vad_filter"`
}

type SpeechToTextStreaming interface {
	Stream(data []byte) error
	End() (string, error)
}
