package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/2004yashu-cpu/audio-translator/adapters/memory"
	"github.com/2004yashu-cpu/audio-translator/domain/entities"
	"github.com/2004yashu-cpu/audio-translator/domain/repositories"
	"github.com/2004yashu-cpu/audio-translator/internal/audio"
	"github.com/2004yashu-cpu/audio-translator/usecase"
)

func TestHub_NewHub(t *testing.T) {
	hub := NewHub(nil, zap.NewNop())

	if hub == nil {
		t.Fatal("NewHub returned nil")
	}

	if hub.clients == nil {
		t.Error("Hub clients map not initialized")
	}

	if hub.register == nil {
		t.Error("Hub register channel not initialized")
	}

	if hub.unregister == nil {
		t.Error("Hub unregister channel not initialized")
	}

	if hub.validator == nil {
		t.Error("Hub message validator not initialized")
	}
}

func TestHub_RegisterUnregister(t *testing.T) {
	hub := NewHub(nil, zap.NewNop())
	go hub.Run()

	client := &Client{
		hub:       hub,
		send:      make(chan WriteData, 1),
		sessionID: "session-1",
		logger:    zap.NewNop(),
	}

	hub.register <- client

	deadline := time.After(time.Second)
	for {
		hub.mu.RLock()
		_, ok := hub.clients["session-1"]
		hub.mu.RUnlock()
		if ok {
			break
		}
		select {
		case <-deadline:
			t.Fatal("Client was not registered")
		case <-time.After(5 * time.Millisecond):
		}
	}

	hub.unregister <- client

	deadline = time.After(time.Second)
	for {
		hub.mu.RLock()
		_, ok := hub.clients["session-1"]
		hub.mu.RUnlock()
		if !ok {
			break
		}
		select {
		case <-deadline:
			t.Fatal("Client was not unregistered")
		case <-time.After(5 * time.Millisecond):
		}
	}

	// The send channel is closed on unregister
	select {
	case _, open := <-client.send:
		if open {
			t.Error("Expected send channel to be closed")
		}
	case <-time.After(time.Second):
		t.Error("Expected send channel to be closed")
	}
}

func TestClient_SendJSONDropsWhenFull(t *testing.T) {
	client := &Client{
		send:      make(chan WriteData, 1),
		sessionID: "session-1",
		logger:    zap.NewNop(),
	}

	client.sendJSON(CreatePongMessage("first"))
	// The buffer is full now; this must not block
	done := make(chan struct{})
	go func() {
		client.sendJSON(CreatePongMessage("second"))
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sendJSON blocked on a full buffer")
	}

	msg := <-client.send
	if msg.Type != websocket.TextMessage {
		t.Errorf("Expected text message, got %d", msg.Type)
	}
	var pong PongMessage
	if err := json.Unmarshal(msg.Payload, &pong); err != nil {
		t.Fatalf("Failed to decode queued message: %v", err)
	}
	if pong.Data != "first" {
		t.Errorf("Expected the first message kept, got %q", pong.Data)
	}
}

func TestClient_BinaryChunkWithoutSession(t *testing.T) {
	client := &Client{
		hub:       NewHub(nil, zap.NewNop()),
		send:      make(chan WriteData, 1),
		sessionID: "session-1",
		logger:    zap.NewNop(),
	}

	// No capture session is active; the chunk is dropped, not counted
	client.processBinaryAudioChunk([]byte{1, 2, 3, 4})
	if client.bytesReceived != 0 {
		t.Errorf("Expected no bytes counted, got %d", client.bytesReceived)
	}
}

// ctxBoundSpeechToText records the context handed to InitTranscribeStreaming
// and fails every stream call once that context is cancelled, like the real
// Whisper and Google clients do.
type ctxBoundSpeechToText struct {
	initCtx context.Context
}

func (s *ctxBoundSpeechToText) TranscribeAudio(ctx context.Context, audioData []byte, config repositories.AudioConfig) (string, error) {
	return "", nil
}

func (s *ctxBoundSpeechToText) InitTranscribeStreaming(ctx context.Context, config repositories.AudioConfig) (repositories.SpeechToTextStreaming, error) {
	s.initCtx = ctx
	return &ctxBoundStream{ctx: ctx}, nil
}

type ctxBoundStream struct {
	ctx context.Context
}

func (s *ctxBoundStream) Stream(data []byte) error {
	return s.ctx.Err()
}

func (s *ctxBoundStream) End() (string, error) {
	if err := s.ctx.Err(); err != nil {
		return "", err
	}
	return "hello there", nil
}

type identityTranslator struct{}

func (identityTranslator) Translate(ctx context.Context, text string, source, target entities.Language) (string, error) {
	return text, nil
}

func newCaptureTestHub(t *testing.T, stt repositories.SpeechToText) *Hub {
	t.Helper()

	spool, err := audio.NewSpool(t.TempDir(), zap.NewNop())
	if err != nil {
		t.Fatalf("Failed to create spool: %v", err)
	}

	config := usecase.PipelineConfig{
		EnableTranslation: true,
		AllowMicrophone:   true,
		MinClipDuration:   audio.DefaultMinDuration,
	}

	pipeline := usecase.NewPipelineService(
		config,
		stt,
		usecase.NewPivotTranslator(identityTranslator{}, zap.NewNop()),
		nil,
		memory.NewRunRepository(),
		spool,
		audio.NewNormalizer(audio.NewNormalizerConfigFromEnv(), zap.NewNop()),
		zap.NewNop(),
	)

	return NewHub(pipeline, zap.NewNop())
}

func TestClient_CaptureSessionOutlivesStartHandler(t *testing.T) {
	stt := &ctxBoundSpeechToText{}

	client := &Client{
		hub:       newCaptureTestHub(t, stt),
		send:      make(chan WriteData, 16),
		sessionID: "session-1",
		logger:    zap.NewNop(),
	}

	client.handleListeningStart(&ListeningStartMessage{
		BaseMessage: BaseMessage{Type: MessageTypeListeningStart},
		Language:    "en",
		SampleRate:  16000,
	})

	if stt.initCtx == nil {
		t.Fatal("Streaming transcription was not initialized")
	}
	if err := stt.initCtx.Err(); err != nil {
		t.Fatalf("Capture context cancelled right after listening_start: %v", err)
	}

	// Two seconds of 16-bit mono PCM at 16 kHz clears the microphone gate
	client.processBinaryAudioChunk(make([]byte, 64000))

	client.handleListeningEnd()

	select {
	case msg := <-client.send:
		var result ResultMessage
		if err := json.Unmarshal(msg.Payload, &result); err != nil {
			t.Fatalf("Failed to decode message: %v", err)
		}
		if result.Type != MessageTypeResult {
			t.Fatalf("Expected result message, got %q: %s", result.Type, msg.Payload)
		}
		if result.Transcript != "hello there" {
			t.Errorf("Expected transcript %q, got %q", "hello there", result.Transcript)
		}
	case <-time.After(time.Second):
		t.Fatal("No message received after listening_end")
	}

	// The deferred cancel releases the context once End has used it
	if stt.initCtx.Err() == nil {
		t.Error("Expected capture context cancelled after listening_end")
	}
	if client.sttStream != nil {
		t.Error("Expected capture session cleared after listening_end")
	}
}

func TestClient_CloseCaptureCancelsSession(t *testing.T) {
	stt := &ctxBoundSpeechToText{}

	client := &Client{
		hub:       newCaptureTestHub(t, stt),
		send:      make(chan WriteData, 4),
		sessionID: "session-1",
		logger:    zap.NewNop(),
	}

	client.handleListeningStart(&ListeningStartMessage{
		BaseMessage: BaseMessage{Type: MessageTypeListeningStart},
		Language:    "en",
	})

	if stt.initCtx == nil {
		t.Fatal("Streaming transcription was not initialized")
	}

	client.closeCapture()

	if stt.initCtx.Err() == nil {
		t.Error("Expected capture context cancelled after disconnect")
	}
	if client.sttStream != nil {
		t.Error("Expected capture session cleared after disconnect")
	}
}

func TestClient_StreamSynthesizedAudioNeverBlocks(t *testing.T) {
	client := &Client{
		send:         make(chan WriteData, 2),
		sessionID:    "session-1",
		logger:       zap.NewNop(),
		pendingAudio: make([]byte, 64*1024),
	}

	// Nothing drains the send channel; the speaking_start marker and the
	// first chunk fill it, and the next chunk must abort instead of block
	done := make(chan struct{})
	go func() {
		client.streamSynthesizedAudio(&ResultMessage{})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("streamSynthesizedAudio blocked on a full buffer")
	}

	if client.pendingAudio != nil {
		t.Error("Expected pending audio cleared after abort")
	}
}
