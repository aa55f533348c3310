package usecase

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/2004yashu-cpu/audio-translator/domain/entities"
	"github.com/2004yashu-cpu/audio-translator/domain/repositories"
	"github.com/2004yashu-cpu/audio-translator/internal/audio"
	"github.com/2004yashu-cpu/audio-translator/internal/pipeline"
)

// Sentinel errors surfaced to the transport layer
var (
	ErrTranslationDisabled = errors.New("translation is disabled")
	ErrVoiceOutputDisabled = errors.New("voice output is disabled")
)

// PipelineConfig enumerates the feature set of a pipeline deployment.
// Feature differences are configuration, not code forks.
type PipelineConfig struct {
	EnableTranslation bool
	EnableVoiceOutput bool
	AllowMicrophone   bool
	MinClipDuration   float64 // seconds, for uploaded clips
}

// NewPipelineConfigFromEnv creates a PipelineConfig from environment
// variables. Every feature defaults to enabled.
func NewPipelineConfigFromEnv() PipelineConfig {
	config := PipelineConfig{
		EnableTranslation: envBool("ENABLE_TRANSLATION", true),
		EnableVoiceOutput: envBool("ENABLE_VOICE_OUTPUT", true),
		AllowMicrophone:   envBool("ALLOW_MICROPHONE", true),
		MinClipDuration:   audio.DefaultMinDuration,
	}
	if v := os.Getenv("MIN_CLIP_DURATION_SECONDS"); v != "" {
		if d, err := strconv.ParseFloat(v, 64); err == nil && d > 0 {
			config.MinClipDuration = d
		}
	}
	return config
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

// ClipRequest is one uploaded audio clip plus its pipeline parameters
type ClipRequest struct {
	Data        []byte
	Extension   string
	Language    entities.Language
	TranslateTo entities.Language // empty means transcription only
	VADFilter   bool
}

// PipelineService runs the clip pipeline: spool, normalize, gate,
// transcribe, translate. One run per request, no retries, temp files
// deleted on every exit path.
type PipelineService struct {
	config       PipelineConfig
	speechToText repositories.SpeechToText
	translator   *PivotTranslator
	textToSpeech repositories.TextToSpeech
	runs         repositories.RunRepository
	spool        *audio.Spool
	normalizer   *audio.Normalizer
	gate         *audio.Gate
	runner       *pipeline.Runner
	logger       *zap.Logger
}

// NewPipelineService creates a new pipeline service
func NewPipelineService(
	config PipelineConfig,
	stt repositories.SpeechToText,
	translator *PivotTranslator,
	tts repositories.TextToSpeech,
	runs repositories.RunRepository,
	spool *audio.Spool,
	normalizer *audio.Normalizer,
	logger *zap.Logger,
) *PipelineService {
	return &PipelineService{
		config:       config,
		speechToText: stt,
		translator:   translator,
		textToSpeech: tts,
		runs:         runs,
		spool:        spool,
		normalizer:   normalizer,
		gate:         audio.NewGate(config.MinClipDuration, logger),
		runner:       pipeline.NewRunner(logger),
		logger:       logger,
	}
}

// Config returns the deployment's feature configuration
func (s *PipelineService) Config() PipelineConfig {
	return s.config
}

// Translator returns the pivot translator for callers that bypass the clip
// pipeline, such as the streaming hub and the text-only endpoint.
func (s *PipelineService) Translator() *PivotTranslator {
	return s.translator
}

// StreamingTranscriber exposes the speech backend for microphone sessions
func (s *PipelineService) StreamingTranscriber() repositories.SpeechToText {
	return s.speechToText
}

// ProcessClip runs one uploaded clip through the full pipeline. A clip the
// validity gate rejects yields a run with RunStatusRejected and a nil error;
// backend and conversion failures yield the failed run plus the error.
func (s *PipelineService) ProcessClip(ctx context.Context, req ClipRequest) (*entities.TranslationRun, error) {
	if err := req.Language.Validate(); err != nil {
		return nil, err
	}
	if req.TranslateTo != "" {
		if !s.config.EnableTranslation {
			return nil, ErrTranslationDisabled
		}
		if err := req.TranslateTo.Validate(); err != nil {
			return nil, err
		}
	}

	run := entities.NewTranslationRun(uuid.New().String(), entities.RunSourceUpload, req.Language, req.TranslateTo)
	if err := s.runs.Create(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to create run record: %w", err)
	}

	state := pipeline.State{}
	records, err := s.runner.Execute(ctx, s.clipSteps(req, run), state)
	run.Stages = records

	switch {
	case err == nil:
		run.Complete()
	case run.Status == entities.RunStatusRejected:
		// gate verdict already recorded, not a failure
		err = nil
	default:
		run.Fail(err)
	}

	if updateErr := s.runs.Update(ctx, run); updateErr != nil {
		s.logger.Error("Failed to update run record",
			zap.String("runID", run.ID),
			zap.Error(updateErr))
	}

	return run, err
}

// errRejected aborts the pipeline without marking the run as failed
var errRejected = errors.New("clip rejected by validity gate")

func (s *PipelineService) clipSteps(req ClipRequest, run *entities.TranslationRun) []pipeline.Step {
	var cleanupSpool func()

	steps := []pipeline.Step{
		{
			Name: "spool",
			Run: func(ctx context.Context, state pipeline.State) error {
				path, cleanup, err := s.spool.Write(req.Data, req.Extension)
				if err != nil {
					return err
				}
				cleanupSpool = cleanup
				state["raw_path"] = path
				return nil
			},
			Cleanup: func(state pipeline.State) {
				if cleanupSpool != nil {
					cleanupSpool()
				}
			},
		},
		{
			Name: "normalize",
			Run: func(ctx context.Context, state pipeline.State) error {
				cleanPath, err := s.normalizer.Normalize(ctx, state.String("raw_path"))
				if err != nil {
					return err
				}
				state["clean_path"] = cleanPath
				return nil
			},
		},
		{
			Name: "gate",
			Run: func(ctx context.Context, state pipeline.State) error {
				verdict := s.gate.CheckFile(state.String("clean_path"))
				run.ClipDuration = verdict.Duration
				if !verdict.Valid {
					run.Reject(verdict.Reason)
					return errRejected
				}
				return nil
			},
		},
		{
			Name: "transcribe",
			Run: func(ctx context.Context, state pipeline.State) error {
				data, err := os.ReadFile(state.String("clean_path"))
				if err != nil {
					return fmt.Errorf("failed to read normalized clip: %w", err)
				}
				transcript, err := s.speechToText.TranscribeAudio(ctx, data, repositories.AudioConfig{
					SampleRate: 16000,
					Encoding:   "WAV",
					Language:   req.Language,
					VADFilter:  req.VADFilter,
				})
				if err != nil {
					return fmt.Errorf("transcription failed: %w", err)
				}
				run.Transcript = transcript
				return nil
			},
		},
	}

	if req.TranslateTo != "" {
		steps = append(steps, pipeline.Step{
			Name: "translate",
			Run: func(ctx context.Context, state pipeline.State) error {
				translated, err := s.translator.TranslateViaEnglish(ctx, run.Transcript, req.Language, req.TranslateTo)
				if err != nil {
					return err
				}
				run.Translation = translated
				return nil
			},
		})
	}

	return steps
}

// TranslateText runs the text-only pipeline: no audio, just the pivot
// translation, still recorded as a run.
func (s *PipelineService) TranslateText(ctx context.Context, text string, source, target entities.Language) (*entities.TranslationRun, error) {
	if !s.config.EnableTranslation {
		return nil, ErrTranslationDisabled
	}

	run := entities.NewTranslationRun(uuid.New().String(), entities.RunSourceText, source, target)
	run.Transcript = text
	if err := s.runs.Create(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to create run record: %w", err)
	}

	started := time.Now()
	translated, err := s.translator.TranslateViaEnglish(ctx, text, source, target)
	rec := entities.StageRecord{Name: "translate", StartedAt: started, FinishedAt: time.Now()}
	if err != nil {
		rec.Error = err.Error()
		run.RecordStage(rec)
		run.Fail(err)
	} else {
		run.RecordStage(rec)
		run.Translation = translated
		run.Complete()
	}

	if updateErr := s.runs.Update(ctx, run); updateErr != nil {
		s.logger.Error("Failed to update run record",
			zap.String("runID", run.ID),
			zap.Error(updateErr))
	}

	return run, err
}

// Synthesize converts text to speech in the target language, returning an
// MP3 buffer. ErrSynthesisUnsupported passes through for callers to
// downgrade to a warning.
func (s *PipelineService) Synthesize(ctx context.Context, text string, language entities.Language) ([]byte, error) {
	if !s.config.EnableVoiceOutput {
		return nil, ErrVoiceOutputDisabled
	}
	if err := language.Validate(); err != nil {
		return nil, err
	}
	return s.textToSpeech.Synthesize(ctx, text, language)
}

// GetRun returns a single run record by ID
func (s *PipelineService) GetRun(ctx context.Context, id string) (*entities.TranslationRun, error) {
	return s.runs.GetByID(ctx, id)
}

// ListRecentRuns returns the most recent run records
func (s *PipelineService) ListRecentRuns(ctx context.Context, limit int) ([]*entities.TranslationRun, error) {
	return s.runs.ListRecent(ctx, limit)
}

// RecordStreamRun persists a run produced by a microphone streaming session
func (s *PipelineService) RecordStreamRun(ctx context.Context, run *entities.TranslationRun) {
	if err := s.runs.Create(ctx, run); err != nil {
		s.logger.Error("Failed to record stream run",
			zap.String("runID", run.ID),
			zap.Error(err))
	}
}
