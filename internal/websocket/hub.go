package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/2004yashu-cpu/audio-translator/domain/entities"
	"github.com/2004yashu-cpu/audio-translator/domain/repositories"
	"github.com/2004yashu-cpu/audio-translator/internal/audio"
	"github.com/2004yashu-cpu/audio-translator/usecase"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512 * 1024 // 512KB for audio chunks
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Hub maintains the set of active microphone clients
type Hub struct {
	// Registered clients keyed by stream session ID.
	clients map[string]*Client

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	mu sync.RWMutex

	pipeline  *usecase.PipelineService
	validator *MessageValidator
	logger    *zap.Logger
}

// NewHub creates a new WebSocket hub
func NewHub(pipeline *usecase.PipelineService, logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		pipeline:   pipeline,
		validator:  NewMessageValidator(),
		logger:     logger,
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.sessionID] = client
			h.mu.Unlock()
			h.logger.Info("Client registered", zap.String("sessionID", client.sessionID))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.sessionID]; ok {
				delete(h.clients, client.sessionID)
				close(client.send)
			}
			h.mu.Unlock()
			h.logger.Info("Client unregistered", zap.String("sessionID", client.sessionID))
		}
	}
}

type WriteData struct {
	// Type is the websocket message type.
	// Expect websocket.TextMessage or websocket.BinaryMessage
	Type    int
	Payload []byte
}

// Client is a middleman between the websocket connection and the hub.
type Client struct {
	hub *Hub

	// The websocket connection.
	conn *websocket.Conn

	// Buffered channel of outbound messages.
	send chan WriteData

	// Stream session ID from the JWT.
	sessionID string

	logger *zap.Logger

	// Capture session state
	sttStream      repositories.SpeechToTextStreaming
	captureCancel  context.CancelFunc
	sourceLang     entities.Language
	targetLang     entities.Language
	synthesize     bool
	sampleRate     int
	bytesReceived  int
	listeningStart time.Time
	pendingAudio   []byte

	mutex sync.Mutex
}

// HandleWebSocketWithAuth handles websocket requests with a pre-validated
// stream session ID
func HandleWebSocketWithAuth(hub *Hub, c echo.Context, sessionID string, logger *zap.Logger) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		logger.Error("WebSocket upgrade failed", zap.Error(err))
		return err
	}

	client := &Client{
		hub:       hub,
		conn:      conn,
		send:      make(chan WriteData, 256),
		sessionID: sessionID,
		logger:    logger,
	}

	client.hub.register <- client

	// Allow collection of memory referenced by the caller by doing all work in
	// new goroutines.
	go client.writePump()
	go client.readPump()

	return nil
}

// readPump pumps messages from the websocket connection to the hub.
func (c *Client) readPump() {
	defer func() {
		c.closeCapture()
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", zap.Error(err))
			}
			break
		}

		switch messageType {
		case websocket.TextMessage:
			c.processMessage(message)
		case websocket.BinaryMessage:
			c.processBinaryAudioChunk(message)
		default:
			c.logger.Warn("Received unknown message type", zap.Int("type", messageType))
		}
	}
}

// writePump pumps messages from the hub to the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(message.Type, message.Payload); err != nil {
				c.logger.Error("Failed to write message", zap.Error(err))
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// processMessage processes incoming control messages
func (c *Client) processMessage(message []byte) {
	parsed, err := c.hub.validator.ValidateMessage(message)
	if err != nil {
		c.logger.Warn("Invalid message", zap.Error(err))
		c.sendJSON(CreateErrorMessage("invalid_message", err.Error(), ""))
		return
	}

	switch msg := parsed.(type) {
	case *ListeningStartMessage:
		c.handleListeningStart(msg)
	case *ListeningEndMessage:
		c.handleListeningEnd()
	case *PingMessage:
		c.sendJSON(CreatePongMessage(msg.Data))
	}
}

// processBinaryAudioChunk streams binary audio data into the active session
func (c *Client) processBinaryAudioChunk(data []byte) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.sttStream == nil {
		c.logger.Warn("Received audio chunk without active capture session",
			zap.String("sessionID", c.sessionID))
		return
	}

	c.bytesReceived += len(data)

	if err := c.sttStream.Stream(data); err != nil {
		c.logger.Error("Failed to stream audio data",
			zap.String("sessionID", c.sessionID),
			zap.Error(err))
	}
}

// handleListeningStart opens a capture session
func (c *Client) handleListeningStart(msg *ListeningStartMessage) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if !c.hub.pipeline.Config().AllowMicrophone {
		c.sendJSON(CreateErrorMessage("microphone_disabled", "microphone input is disabled", ""))
		return
	}

	// A new start supersedes any session still open
	if c.captureCancel != nil {
		c.captureCancel()
		c.captureCancel = nil
		c.sttStream = nil
	}

	// The context must outlive this handler: the transcription stream holds
	// it until listening_end, so it is cancelled there or on disconnect.
	ctx, cancel := context.WithCancel(context.Background())

	sampleRate := msg.SampleRate
	if sampleRate == 0 {
		sampleRate = 16000
	}
	encoding := msg.Encoding
	if encoding == "" {
		encoding = "pcm"
	}

	config := repositories.AudioConfig{
		SampleRate: sampleRate,
		Encoding:   encoding,
		Language:   entities.Language(msg.Language),
		VADFilter:  true,
	}

	stream, err := c.hub.pipeline.StreamingTranscriber().InitTranscribeStreaming(ctx, config)
	if err != nil {
		cancel()
		c.logger.Error("Failed to initialize streaming transcription",
			zap.String("sessionID", c.sessionID),
			zap.Error(err))
		c.sendJSON(CreateErrorMessage("transcription_init_failed", "failed to initialize transcription", ""))
		return
	}

	c.sttStream = stream
	c.captureCancel = cancel
	c.sourceLang = entities.Language(msg.Language)
	c.targetLang = entities.Language(msg.TranslateTo)
	c.synthesize = msg.Synthesize
	c.sampleRate = sampleRate
	c.bytesReceived = 0
	c.listeningStart = time.Now()

	c.logger.Info("Capture session started",
		zap.String("sessionID", c.sessionID),
		zap.String("language", msg.Language),
		zap.String("translateTo", msg.TranslateTo))
}

// handleListeningEnd finalizes the capture session and sends results
func (c *Client) handleListeningEnd() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.sttStream == nil {
		c.sendJSON(CreateErrorMessage("no_session", "no active capture session", ""))
		return
	}

	stream := c.sttStream
	c.sttStream = nil

	// The session context stays alive until End has used it
	if cancel := c.captureCancel; cancel != nil {
		c.captureCancel = nil
		defer cancel()
	}

	// 16-bit mono PCM: two bytes per sample. The microphone gate is
	// stricter than the upload gate.
	duration := float64(c.bytesReceived) / float64(2*c.sampleRate)
	if duration < audio.MicrophoneMinDuration {
		c.sendJSON(CreateErrorMessage("audio_too_short",
			fmt.Sprintf("audio too short: %.2fs < %.2fs", duration, audio.MicrophoneMinDuration), ""))
		return
	}

	run := entities.NewTranslationRun(uuid.New().String(),
		entities.RunSourceMicrophone, c.sourceLang, c.targetLang)
	run.ClipDuration = duration

	transcript, err := stream.End()
	if err != nil {
		c.logger.Error("Failed to end transcription stream",
			zap.String("sessionID", c.sessionID),
			zap.Error(err))
		run.Fail(err)
		c.recordRun(run)
		c.sendJSON(CreateErrorMessage("transcription_failed", "failed to transcribe audio", err.Error()))
		return
	}
	run.Transcript = transcript

	result := &ResultMessage{
		BaseMessage: BaseMessage{
			Type:      MessageTypeResult,
			Timestamp: time.Now().Format(time.RFC3339),
		},
		RunID:      run.ID,
		Transcript: transcript,
		Duration:   duration,
	}

	if c.targetLang != "" && c.hub.pipeline.Config().EnableTranslation {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		translated, err := c.hub.pipeline.Translator().TranslateViaEnglish(ctx, transcript, c.sourceLang, c.targetLang)
		cancel()
		if err != nil {
			c.logger.Error("Translation failed",
				zap.String("sessionID", c.sessionID),
				zap.Error(err))
			run.Fail(err)
			c.recordRun(run)
			c.sendJSON(CreateErrorMessage("translation_failed", "failed to translate transcript", err.Error()))
			return
		}
		run.Translation = translated
		result.Translation = translated
	}

	run.Complete()
	c.recordRun(run)

	if c.synthesize {
		c.handleSynthesis(result)
	}

	c.sendJSON(result)

	if c.synthesize && result.Warning == "" {
		c.streamSynthesizedAudio(result)
	}
}

// handleSynthesis prepares synthesized speech for the result, downgrading
// unsupported-language failures to a warning on the result message
func (c *Client) handleSynthesis(result *ResultMessage) {
	text := result.Translation
	lang := c.targetLang
	if text == "" {
		text = result.Transcript
		lang = c.sourceLang
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	audioData, err := c.hub.pipeline.Synthesize(ctx, text, lang)
	if err != nil {
		if errors.Is(err, repositories.ErrSynthesisUnsupported) || errors.Is(err, usecase.ErrVoiceOutputDisabled) {
			result.Warning = err.Error()
			return
		}
		c.logger.Error("Speech synthesis failed",
			zap.String("sessionID", c.sessionID),
			zap.Error(err))
		result.Warning = "speech synthesis failed"
		return
	}

	c.pendingAudio = audioData
}

// closeCapture tears down any open capture session, such as when the
// connection drops mid-listen
func (c *Client) closeCapture() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.captureCancel != nil {
		c.captureCancel()
		c.captureCancel = nil
	}
	c.sttStream = nil
}

// streamSynthesizedAudio frames the MP3 buffer between speaking markers.
// Sends never block: a dead or stalled connection aborts the remaining
// frames instead of wedging the read pump.
func (c *Client) streamSynthesizedAudio(result *ResultMessage) {
	if len(c.pendingAudio) == 0 {
		return
	}

	c.sendJSON(&BaseMessage{
		Type:      MessageTypeSpeakingStart,
		Timestamp: time.Now().Format(time.RFC3339),
	})

	const chunkSize = 4096
	for start := 0; start < len(c.pendingAudio); start += chunkSize {
		end := start + chunkSize
		if end > len(c.pendingAudio) {
			end = len(c.pendingAudio)
		}
		select {
		case c.send <- WriteData{
			Type:    websocket.BinaryMessage,
			Payload: c.pendingAudio[start:end],
		}:
		default:
			c.logger.Warn("Send buffer full, aborting synthesized audio",
				zap.String("sessionID", c.sessionID),
				zap.Int("remaining", len(c.pendingAudio)-start))
			c.pendingAudio = nil
			return
		}
	}
	c.pendingAudio = nil

	c.sendJSON(&BaseMessage{
		Type:      MessageTypeSpeakingEnd,
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

func (c *Client) recordRun(run *entities.TranslationRun) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c.hub.pipeline.RecordStreamRun(ctx, run)
}

func (c *Client) sendJSON(v interface{}) {
	payload, err := json.Marshal(v)
	if err != nil {
		c.logger.Error("Failed to marshal message", zap.Error(err))
		return
	}
	select {
	case c.send <- WriteData{Type: websocket.TextMessage, Payload: payload}:
	default:
		c.logger.Warn("Send buffer full, dropping message",
			zap.String("sessionID", c.sessionID))
	}
}
