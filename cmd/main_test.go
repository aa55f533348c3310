package main

import (
	"os"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/2004yashu-cpu/audio-translator/adapters/tts"
)

func TestBuildTextToSpeech_ElevenLabsWhenKeySet(t *testing.T) {
	os.Setenv("ELEVEN_LABS_API_KEY", "test-api-key")
	defer os.Unsetenv("ELEVEN_LABS_API_KEY")

	backend, voices := buildTextToSpeech(zaptest.NewLogger(t))

	if _, ok := backend.(*tts.ElevenLabsTTS); !ok {
		t.Errorf("Expected ElevenLabs backend, got %T", backend)
	}
	if voices == nil {
		t.Error("Expected voice listing exposed with ElevenLabs backend")
	}
}

func TestBuildTextToSpeech_MockWithoutKey(t *testing.T) {
	os.Unsetenv("ELEVEN_LABS_API_KEY")

	backend, voices := buildTextToSpeech(zaptest.NewLogger(t))

	if _, ok := backend.(*tts.MockTextToSpeech); !ok {
		t.Errorf("Expected mock backend, got %T", backend)
	}
	if voices != nil {
		t.Errorf("Expected no voice listing with mock backend, got %T", voices)
	}
}
