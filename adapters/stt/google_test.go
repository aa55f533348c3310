package stt_test

import (
	"github.com/2004yashu-cpu/audio-translator/adapters/stt"
	"github.com/2004yashu-cpu/audio-translator/domain/repositories"
)

var _ repositories.SpeechToText = &stt.GoogleSpeechToText{}
