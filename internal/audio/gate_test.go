package audio

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"go.uber.org/zap/zaptest"
)

// makeSamples builds a constant-amplitude mono waveform of the given length.
func makeSamples(duration float64, sampleRate int, amplitude float64) []float64 {
	n := int(duration * float64(sampleRate))
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = amplitude
	}
	return samples
}

func TestGateCheck(t *testing.T) {
	logger := zaptest.NewLogger(t)
	gate := NewGate(0, logger)

	tests := []struct {
		name       string
		samples    []float64
		sampleRate int
		wantValid  bool
	}{
		{
			name:       "too short",
			samples:    makeSamples(0.3, 16000, 0.8),
			sampleRate: 16000,
			wantValid:  false,
		},
		{
			name:       "long but silent",
			samples:    makeSamples(2.0, 16000, 1e-5),
			sampleRate: 16000,
			wantValid:  false,
		},
		{
			name:       "long and audible",
			samples:    makeSamples(2.0, 16000, 0.2),
			sampleRate: 16000,
			wantValid:  true,
		},
		{
			name:       "empty waveform",
			samples:    nil,
			sampleRate: 16000,
			wantValid:  false,
		},
		{
			name:       "zero sample rate",
			samples:    makeSamples(2.0, 16000, 0.2),
			sampleRate: 0,
			wantValid:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verdict := gate.Check(tt.samples, tt.sampleRate)
			if verdict.Valid != tt.wantValid {
				t.Errorf("Expected valid=%v, got valid=%v (reason: %s)",
					tt.wantValid, verdict.Valid, verdict.Reason)
			}
			if !verdict.Valid && verdict.Reason == "" {
				t.Error("Expected a reason for an invalid verdict")
			}
		})
	}
}

func TestGateCheckDurationGateFiresFirst(t *testing.T) {
	logger := zaptest.NewLogger(t)
	gate := NewGate(0, logger)

	// A clip that is both short and silent reports the duration problem
	verdict := gate.Check(makeSamples(0.2, 16000, 0), 16000)
	if verdict.Valid {
		t.Fatal("Expected invalid verdict")
	}
	if verdict.Reason == "audio is effectively silent" {
		t.Error("Expected the duration gate to fire before the silence gate")
	}
}

func TestGateCheckReportsDuration(t *testing.T) {
	logger := zaptest.NewLogger(t)
	gate := NewGate(0, logger)

	verdict := gate.Check(makeSamples(1.5, 16000, 0.3), 16000)
	if math.Abs(verdict.Duration-1.5) > 0.01 {
		t.Errorf("Expected duration 1.5s, got %.3fs", verdict.Duration)
	}
}

func TestGateCustomMinDuration(t *testing.T) {
	logger := zaptest.NewLogger(t)
	gate := NewGate(MicrophoneMinDuration, logger)

	// 0.8s passes the default gate but not the microphone gate
	verdict := gate.Check(makeSamples(0.8, 16000, 0.3), 16000)
	if verdict.Valid {
		t.Error("Expected 0.8s clip to fail the microphone minimum")
	}

	verdict = gate.Check(makeSamples(1.2, 16000, 0.3), 16000)
	if !verdict.Valid {
		t.Errorf("Expected 1.2s clip to pass, got reason: %s", verdict.Reason)
	}
}

func TestGateCheckFile(t *testing.T) {
	logger := zaptest.NewLogger(t)
	gate := NewGate(0, logger)

	path := filepath.Join(t.TempDir(), "clip.wav")
	writeTestWAV(t, path, 2.0, 16000, 8000)

	verdict := gate.CheckFile(path)
	if !verdict.Valid {
		t.Errorf("Expected valid verdict, got reason: %s", verdict.Reason)
	}
	if math.Abs(verdict.Duration-2.0) > 0.01 {
		t.Errorf("Expected duration 2.0s, got %.3fs", verdict.Duration)
	}
}

func TestGateCheckFileUnreadable(t *testing.T) {
	logger := zaptest.NewLogger(t)
	gate := NewGate(0, logger)

	verdict := gate.CheckFile(filepath.Join(t.TempDir(), "missing.wav"))
	if verdict.Valid {
		t.Error("Expected invalid verdict for a missing file")
	}
	if verdict.Reason != "unreadable audio file" {
		t.Errorf("Expected unreadable reason, got: %s", verdict.Reason)
	}
}

func TestGateCheckFileCorrupt(t *testing.T) {
	logger := zaptest.NewLogger(t)
	gate := NewGate(0, logger)

	path := filepath.Join(t.TempDir(), "corrupt.wav")
	if err := os.WriteFile(path, []byte("not a wav file"), 0644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}

	verdict := gate.CheckFile(path)
	if verdict.Valid {
		t.Error("Expected invalid verdict for a corrupt file")
	}
}

// writeTestWAV writes a 16-bit mono WAV file with a constant sample value.
func writeTestWAV(t *testing.T, path string, duration float64, sampleRate, amplitude int) {
	t.Helper()

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create test WAV: %v", err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, 16, 1, 1)
	n := int(duration * float64(sampleRate))
	data := make([]int, n)
	for i := range data {
		data[i] = amplitude
	}
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("Failed to write test WAV: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("Failed to close test WAV: %v", err)
	}
}
