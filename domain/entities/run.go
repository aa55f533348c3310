package entities

import (
	"errors"
	"time"
)

// RunStatus represents the outcome of a pipeline run
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusRejected  RunStatus = "rejected" // clip failed the validity gate
	RunStatusFailed    RunStatus = "failed"
)

// RunSource identifies how the audio entered the pipeline
type RunSource string

const (
	RunSourceUpload     RunSource = "upload"
	RunSourceMicrophone RunSource = "microphone"
	RunSourceText       RunSource = "text" // text-only translation, no audio
)

// StageRecord captures timing and outcome of a single pipeline stage
type StageRecord struct {
	Name       string    `json:"name" bson:"name"`
	StartedAt  time.Time `json:"started_at" bson:"started_at"`
	FinishedAt time.Time `json:"finished_at" bson:"finished_at"`
	Error      string    `json:"error,omitempty" bson:"error,omitempty"`
}

// TranslationRun records one pass through the pipeline: an audio clip (or raw
// text) in, a transcript and optional translation out.
type TranslationRun struct {
	ID              string        `json:"id" bson:"_id,omitempty"`
	Source          RunSource     `json:"source" bson:"source"`
	SourceLanguage  Language      `json:"source_language" bson:"source_language"`
	TargetLanguage  Language      `json:"target_language,omitempty" bson:"target_language,omitempty"`
	Status          RunStatus     `json:"status" bson:"status"`
	Transcript      string        `json:"transcript,omitempty" bson:"transcript,omitempty"`
	Translation     string        `json:"translation,omitempty" bson:"translation,omitempty"`
	ClipDuration    float64       `json:"clip_duration_seconds,omitempty" bson:"clip_duration_seconds,omitempty"`
	RejectionReason string        `json:"rejection_reason,omitempty" bson:"rejection_reason,omitempty"`
	Error           string        `json:"error,omitempty" bson:"error,omitempty"`
	Stages          []StageRecord `json:"stages,omitempty" bson:"stages,omitempty"`
	CreatedAt       time.Time     `json:"created_at" bson:"created_at"`
	FinishedAt      *time.Time    `json:"finished_at,omitempty" bson:"finished_at,omitempty"`
}

// NewTranslationRun creates a run in its initial state
func NewTranslationRun(id string, source RunSource, src, tgt Language) *TranslationRun {
	return &TranslationRun{
		ID:             id,
		Source:         source,
		SourceLanguage: src,
		TargetLanguage: tgt,
		Status:         RunStatusRunning,
		CreatedAt:      time.Now(),
	}
}

// RecordStage appends a stage record to the run
func (r *TranslationRun) RecordStage(rec StageRecord) {
	r.Stages = append(r.Stages, rec)
}

// Complete marks the run as successfully finished
func (r *TranslationRun) Complete() {
	now := time.Now()
	r.Status = RunStatusCompleted
	r.FinishedAt = &now
}

// Reject marks the run as halted by the validity gate
func (r *TranslationRun) Reject(reason string) {
	now := time.Now()
	r.Status = RunStatusRejected
	r.RejectionReason = reason
	r.FinishedAt = &now
}

// Fail marks the run as failed with the given cause
func (r *TranslationRun) Fail(err error) {
	now := time.Now()
	r.Status = RunStatusFailed
	if err != nil {
		r.Error = err.Error()
	}
	r.FinishedAt = &now
}

// Validate validates the run data
func (r *TranslationRun) Validate() error {
	if r.ID == "" {
		return errors.New("run id is required")
	}
	if err := r.SourceLanguage.Validate(); err != nil {
		return err
	}
	if r.TargetLanguage != "" {
		if err := r.TargetLanguage.Validate(); err != nil {
			return err
		}
	}
	switch r.Status {
	case RunStatusRunning, RunStatusCompleted, RunStatusRejected, RunStatusFailed:
	default:
		return errors.New("invalid run status")
	}
	return nil
}
