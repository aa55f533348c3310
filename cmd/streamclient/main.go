package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/gorilla/websocket"
)

// streamclient exercises the microphone streaming protocol against a running
// server: it opens a stream session, replays a WAV file as binary chunks, and
// prints the transcript and translation the server sends back.

type StreamSessionResponse struct {
	SessionID string    `json:"session_id"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

func main() {
	host := flag.String("host", "localhost:8080", "server host:port")
	audioPath := flag.String("audio", "sample_audio.wav", "path to a 16kHz mono WAV file")
	language := flag.String("language", "en", "spoken language code")
	translateTo := flag.String("translate-to", "", "target language code, empty to skip translation")
	synthesize := flag.Bool("synthesize", false, "request synthesized speech for the translation")
	flag.Parse()

	token, sessionID, err := createStreamSession(*host)
	if err != nil {
		log.Fatal("Failed to create stream session:", err)
	}
	log.Printf("Stream session created: %s", sessionID)

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	u := url.URL{Scheme: "ws", Host: *host, Path: "/ws"}
	log.Printf("connecting to %s", u.String())

	headers := http.Header{}
	headers.Add("Authorization", "Bearer "+token)

	c, _, err := websocket.DefaultDialer.Dial(u.String(), headers)
	if err != nil {
		log.Fatal("dial:", err)
	}
	defer c.Close()

	done := make(chan struct{})

	go handleIncomingMessage(c, done, *synthesize)

	streamAudioFile(c, *audioPath, *language, *translateTo, *synthesize)

	// Wait for the result or an interrupt
	select {
	case <-done:
		return
	case <-interrupt:
		log.Println("interrupt")
		err := c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		if err != nil {
			log.Println("write close:", err)
			return
		}
		select {
		case <-done:
		case <-time.After(time.Second):
		}
		return
	}
}

func createStreamSession(host string) (string, string, error) {
	resp, err := http.Post("http://"+host+"/api/v1/stream/sessions", "application/json", bytes.NewReader(nil))
	if err != nil {
		return "", "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", "", err
	}

	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("stream session request failed: %s", string(body))
	}

	var session StreamSessionResponse
	if err := json.Unmarshal(body, &session); err != nil {
		return "", "", err
	}

	return session.Token, session.SessionID, nil
}

func streamAudioFile(c *websocket.Conn, path, language, translateTo string, synthesize bool) {
	audioData, err := os.ReadFile(path)
	if err != nil {
		log.Printf("Error reading audio file: %v", err)
		return
	}
	log.Printf("Read audio file: %s (%d bytes)", path, len(audioData))

	startMessage := map[string]interface{}{
		"type":        "listening_start",
		"language":    language,
		"sample_rate": 16000,
		"encoding":    "wav",
		"synthesize":  synthesize,
	}
	if translateTo != "" {
		startMessage["translate_to"] = translateTo
	}

	if err := sendJSONMessage(c, startMessage); err != nil {
		log.Printf("Error sending listening_start: %v", err)
		return
	}
	time.Sleep(200 * time.Millisecond)

	chunkSize := 4096
	totalChunks := (len(audioData) + chunkSize - 1) / chunkSize
	log.Printf("Sending %d audio chunks (chunk size: %d bytes)", totalChunks, chunkSize)

	for i := 0; i < totalChunks; i++ {
		start := i * chunkSize
		end := start + chunkSize
		if end > len(audioData) {
			end = len(audioData)
		}

		if err := c.WriteMessage(websocket.BinaryMessage, audioData[start:end]); err != nil {
			log.Printf("Error sending audio chunk %d: %v", i, err)
			return
		}
		time.Sleep(50 * time.Millisecond)
	}

	endMessage := map[string]interface{}{
		"type": "listening_end",
	}
	if err := sendJSONMessage(c, endMessage); err != nil {
		log.Printf("Error sending listening_end: %v", err)
		return
	}

	log.Println("Finished streaming, waiting for result...")
}

func sendJSONMessage(c *websocket.Conn, message map[string]interface{}) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}
	return c.WriteMessage(websocket.TextMessage, data)
}

func handleIncomingMessage(c *websocket.Conn, done chan struct{}, expectSpeech bool) {
	defer close(done)
	var audioFile *os.File
	var audioChunkCount int

	for {
		messageType, message, err := c.ReadMessage()
		if err != nil {
			log.Println("read:", err)
			return
		}

		if messageType == websocket.TextMessage {
			var msg map[string]interface{}
			if err := json.Unmarshal(message, &msg); err != nil {
				log.Println("unmarshal error:", err)
				continue
			}

			msgType, _ := msg["type"].(string)
			switch msgType {
			case "result":
				log.Printf("Transcript: %v", msg["transcript"])
				if translation, ok := msg["translation"]; ok && translation != "" {
					log.Printf("Translation: %v", translation)
				}
				warning, _ := msg["warning"].(string)
				if warning != "" {
					log.Printf("Warning: %v", warning)
				}
				log.Printf("Run ID: %v, duration: %vs", msg["run_id"], msg["duration"])
				// Speech frames follow the result only when synthesis was
				// requested and the server did not warn it off
				if !expectSpeech || warning != "" {
					return
				}
			case "speaking_start":
				audioChunkCount = 0
				dir := "speech_output"
				if err := os.MkdirAll(dir, 0755); err != nil {
					log.Printf("Error creating output directory: %v", err)
					return
				}
				name := filepath.Join(dir, fmt.Sprintf("%d.mp3", time.Now().Unix()))
				audioFile, err = os.Create(name)
				if err != nil {
					log.Printf("Error creating output file: %v", err)
					return
				}
				log.Printf("Receiving synthesized speech into %s", name)
			case "speaking_end":
				if audioFile != nil {
					audioFile.Close()
					audioFile = nil
				}
				log.Printf("Synthesized speech complete (%d chunks)", audioChunkCount)
				return
			case "error":
				log.Printf("Server error: %v", msg["message"])
				return
			default:
				log.Printf("Received message: %s", string(message))
			}
		} else if messageType == websocket.BinaryMessage {
			audioChunkCount++
			if audioFile != nil {
				if _, err := audioFile.Write(message); err != nil {
					log.Printf("Error writing audio chunk: %v", err)
				}
			}
		}
	}
}
