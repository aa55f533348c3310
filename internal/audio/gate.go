package audio

import (
	"fmt"
	"math"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"go.uber.org/zap"
)

const (
	// DefaultMinDuration is the minimum clip length for uploaded audio.
	DefaultMinDuration = 0.5
	// MicrophoneMinDuration is the stricter minimum for microphone capture.
	MicrophoneMinDuration = 1.0

	// silenceThreshold is the mean absolute amplitude, on a [-1,1] scale,
	// below which a clip is treated as silent.
	silenceThreshold = 1e-4
)

// Verdict is the result of checking a clip against the validity gate.
type Verdict struct {
	Valid    bool    `json:"valid"`
	Duration float64 `json:"duration_seconds"`
	Reason   string  `json:"reason,omitempty"`
}

// Gate rejects clips unlikely to yield a meaningful transcription before
// the transcription backend is invoked.
type Gate struct {
	minDuration float64
	logger      *zap.Logger
}

// NewGate creates a gate with the given minimum clip duration in seconds.
// Non-positive values fall back to DefaultMinDuration.
func NewGate(minDuration float64, logger *zap.Logger) *Gate {
	if minDuration <= 0 {
		minDuration = DefaultMinDuration
	}
	return &Gate{
		minDuration: minDuration,
		logger:      logger,
	}
}

// Check applies the duration and silence thresholds to a decoded mono
// waveform. The duration gate fires before the silence gate.
func (g *Gate) Check(samples []float64, sampleRate int) Verdict {
	if sampleRate <= 0 || len(samples) == 0 {
		return Verdict{Reason: "empty waveform"}
	}

	duration := float64(len(samples)) / float64(sampleRate)
	if duration < g.minDuration {
		return Verdict{
			Duration: duration,
			Reason:   fmt.Sprintf("audio too short: %.2fs < %.2fs", duration, g.minDuration),
		}
	}

	var sum float64
	for _, s := range samples {
		sum += math.Abs(s)
	}
	if sum/float64(len(samples)) < silenceThreshold {
		return Verdict{
			Duration: duration,
			Reason:   "audio is effectively silent",
		}
	}

	return Verdict{Valid: true, Duration: duration}
}

// CheckFile decodes a WAV file and runs Check on its waveform. Decode
// failures yield an invalid verdict rather than an error.
func (g *Gate) CheckFile(path string) Verdict {
	f, err := os.Open(path)
	if err != nil {
		g.logger.Warn("Failed to open audio file for validity check",
			zap.String("path", path),
			zap.Error(err))
		return Verdict{Reason: "unreadable audio file"}
	}
	defer f.Close()

	decoder := wav.NewDecoder(f)
	buf, err := decoder.FullPCMBuffer()
	if err != nil || buf == nil || buf.Format == nil || buf.Format.SampleRate <= 0 {
		g.logger.Warn("Failed to decode audio file",
			zap.String("path", path),
			zap.Error(err))
		return Verdict{Reason: "undecodable audio"}
	}

	return g.Check(normalizeSamples(buf), buf.Format.SampleRate)
}

// normalizeSamples scales integer PCM samples to [-1,1].
func normalizeSamples(buf *goaudio.IntBuffer) []float64 {
	bitDepth := buf.SourceBitDepth
	if bitDepth <= 0 || bitDepth > 32 {
		bitDepth = 16
	}
	scale := float64(int64(1) << (bitDepth - 1))

	samples := make([]float64, len(buf.Data))
	for i, v := range buf.Data {
		samples[i] = float64(v) / scale
	}
	return samples
}
