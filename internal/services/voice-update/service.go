// Package voiceupdate records a spoken correction, uploads it to the session
// and merges the returned field state into the review entities.
package voiceupdate

import (
	"context"
	"fmt"
	"sync"
	"time"

	"formassist/internal/common/errors"
	"formassist/internal/common/logger"
	"formassist/internal/common/metrics"
	"formassist/internal/models"
)

type Service struct {
	config   *Config
	client   VoiceClient
	recorder Recorder
	handler  *errors.ErrorHandler
	logger   logger.Logger
}

func NewService(deps ServiceDependencies, config *Config) (*Service, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if deps.Client == nil {
		return nil, fmt.Errorf("voice client is required")
	}
	if deps.Recorder == nil {
		return nil, fmt.Errorf("recorder is required")
	}
	if deps.Logger == nil {
		deps.Logger = logger.NewNoOpLogger()
	}
	if deps.Handler == nil {
		deps.Handler = errors.NewErrorHandler(deps.Logger, nil)
	}
	return &Service{
		config:   config,
		client:   deps.Client,
		recorder: deps.Recorder,
		handler:  deps.Handler,
		logger:   deps.Logger,
	}, nil
}

// NewWidget binds a recorder toggle to one session. Updates are delivered
// to updater.
func (s *Service) NewWidget(sessionID string, updater Updater) *Widget {
	return &Widget{svc: s, sessionID: sessionID, updater: updater, now: time.Now, state: StateIdle}
}

// Widget alternates between idle and recording. At most one recording is
// active and each stop uploads exactly once.
type Widget struct {
	svc       *Service
	sessionID string
	updater   Updater
	now       func() time.Time

	mu           sync.Mutex
	state        State
	active       Recording
	transcript   string
	transcriptAt time.Time
	successAt    time.Time
}

// Toggle starts a recording when idle and stops and uploads it when
// recording. It is rejected while an upload is processing.
func (w *Widget) Toggle(ctx context.Context) (*Outcome, error) {
	w.mu.Lock()
	switch w.state {
	case StateIdle:
		w.mu.Unlock()
		return w.start(ctx)
	case StateRecording:
		rec := w.active
		w.active = nil
		w.state = StateProcessing
		w.mu.Unlock()
		return w.stop(ctx, rec)
	default:
		w.mu.Unlock()
		return nil, errors.NewRecordingActiveError()
	}
}

func (w *Widget) start(ctx context.Context) (*Outcome, error) {
	rec, err := w.svc.recorder.Start(ctx)
	if err != nil {
		return nil, w.svc.handler.Handle("voice.start", errors.NewPermissionDeniedError(err))
	}

	w.mu.Lock()
	if w.state != StateIdle {
		w.mu.Unlock()
		_, _ = rec.Stop()
		return nil, errors.NewRecordingActiveError()
	}
	w.state = StateRecording
	w.active = rec
	w.transcript = ""
	w.successAt = time.Time{}
	w.mu.Unlock()

	metrics.RecordingsActive.Inc()
	w.svc.logger.Info("Recording started", map[string]interface{}{"sessionId": w.sessionID})
	return &Outcome{State: StateRecording}, nil
}

func (w *Widget) stop(ctx context.Context, rec Recording) (*Outcome, error) {
	metrics.RecordingsActive.Dec()
	defer w.setState(StateIdle)

	audio, err := rec.Stop()
	if err != nil {
		return nil, w.svc.handler.Handle("voice.stop", errors.NewInvalidInputError("recording", err.Error()))
	}

	seq := w.updater.Begin()
	uctx, cancel := context.WithTimeout(ctx, w.svc.config.UploadTimeout)
	defer cancel()

	w.svc.logger.Info("Uploading voice clip", map[string]interface{}{
		"sessionId": w.sessionID,
		"bytes":     len(audio),
		"seq":       seq,
	})
	resp, err := w.svc.client.UploadVoice(uctx, w.sessionID, audio)
	if err != nil {
		return nil, w.svc.handler.Handle("voice.upload", err)
	}

	out := &Outcome{State: StateIdle, Transcript: resp.Transcription}
	if resp.Transcription != "" {
		w.mu.Lock()
		w.transcript = resp.Transcription
		w.transcriptAt = w.now()
		w.mu.Unlock()
		w.svc.handler.Info(resp.Transcription, w.svc.config.TranscriptExpiry)
	}
	if resp.CurrentState != nil {
		out.Applied = w.updater.Apply(seq, resp.CurrentState, models.SourceVoice)
		w.mu.Lock()
		w.successAt = w.now()
		w.mu.Unlock()
	}
	return out, nil
}

func (w *Widget) setState(s State) {
	w.mu.Lock()
	w.state = s
	w.mu.Unlock()
}

func (w *Widget) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Transcript returns the last transcription until it expires.
func (w *Widget) Transcript() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.transcript == "" || w.now().Sub(w.transcriptAt) >= w.svc.config.TranscriptExpiry {
		return ""
	}
	return w.transcript
}

// ShowSuccess reports whether the "entities extracted" indicator is lit.
func (w *Widget) ShowSuccess() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return !w.successAt.IsZero() && w.now().Sub(w.successAt) < w.svc.config.SuccessExpiry
}
