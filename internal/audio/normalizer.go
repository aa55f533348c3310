package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

const (
	defaultFFmpegPath = "ffmpeg"
	defaultSampleRate = 16000
)

// ErrConversionFailed signals that the media conversion subprocess failed or
// produced no usable output.
var ErrConversionFailed = errors.New("audio conversion failed")

// NormalizerConfig holds configuration for the ffmpeg-based normalizer.
// Optional fields with defaults:
// - FFmpegPath: the ffmpeg binary to invoke (default: "ffmpeg")
// - SampleRate: the output sample rate in Hz (default: 16000)
type NormalizerConfig struct {
	FFmpegPath string
	SampleRate int
}

// NewNormalizerConfigFromEnv creates a NormalizerConfig from environment variables
func NewNormalizerConfigFromEnv() NormalizerConfig {
	config := NormalizerConfig{
		FFmpegPath: os.Getenv("FFMPEG_PATH"),
	}
	if rateStr := os.Getenv("AUDIO_SAMPLE_RATE"); rateStr != "" {
		if rate, err := strconv.Atoi(rateStr); err == nil && rate > 0 {
			config.SampleRate = rate
		}
	}
	return config
}

// Normalizer converts uploaded audio to mono 16kHz WAV by invoking ffmpeg
// as a child process. The exit status and output file are checked; a failed
// conversion surfaces as ErrConversionFailed.
type Normalizer struct {
	ffmpegPath string
	sampleRate int
	logger     *zap.Logger
}

// NewNormalizer creates a new Normalizer, applying defaults where needed
func NewNormalizer(config NormalizerConfig, logger *zap.Logger) *Normalizer {
	ffmpegPath := config.FFmpegPath
	if ffmpegPath == "" {
		ffmpegPath = defaultFFmpegPath
	}
	sampleRate := config.SampleRate
	if sampleRate == 0 {
		sampleRate = defaultSampleRate
	}
	return &Normalizer{
		ffmpegPath: ffmpegPath,
		sampleRate: sampleRate,
		logger:     logger,
	}
}

// Normalize downmixes and resamples the input file, returning the path of
// the normalized WAV file next to the input.
func (n *Normalizer) Normalize(ctx context.Context, inPath string) (string, error) {
	outPath := strings.TrimSuffix(inPath, filepath.Ext(inPath)) + "_clean.wav"

	cmd := exec.CommandContext(ctx, n.ffmpegPath,
		"-y",
		"-i", inPath,
		"-ac", "1",
		"-ar", strconv.Itoa(n.sampleRate),
		outPath,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	n.logger.Debug("Running audio conversion",
		zap.String("ffmpeg", n.ffmpegPath),
		zap.String("input", inPath),
		zap.String("output", outPath))

	if err := cmd.Run(); err != nil {
		n.logger.Error("Audio conversion subprocess failed",
			zap.String("input", inPath),
			zap.String("stderr", lastLine(stderr.String())),
			zap.Error(err))
		return "", fmt.Errorf("%w: %v", ErrConversionFailed, err)
	}

	info, err := os.Stat(outPath)
	if err != nil || info.Size() == 0 {
		return "", fmt.Errorf("%w: no output file produced", ErrConversionFailed)
	}

	return outPath, nil
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) == 0 {
		return ""
	}
	return lines[len(lines)-1]
}
