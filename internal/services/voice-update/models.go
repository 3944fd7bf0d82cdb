package voiceupdate

import (
	"context"

	"formassist/internal/common/errors"
	"formassist/internal/common/logger"
	"formassist/internal/models"
)

// State of a widget.
type State string

const (
	StateIdle       State = "idle"
	StateRecording  State = "recording"
	StateProcessing State = "processing"
)

// Recorder opens the microphone. Any Start error is reported to the user as
// denied microphone access.
type Recorder interface {
	Start(ctx context.Context) (Recording, error)
}

// Recording is an open capture. Stop ends it and returns the audio.
type Recording interface {
	Stop() ([]byte, error)
}

// VoiceClient uploads a clip to the session.
type VoiceClient interface {
	UploadVoice(ctx context.Context, sessionID string, audio []byte) (*models.VoiceResponse, error)
}

// Updater receives entity updates in start order; entitymerge.Tracker
// implements it.
type Updater interface {
	Begin() uint64
	Apply(seq uint64, updates models.EntityMap, source string) int
}

// Outcome describes what one Toggle did.
type Outcome struct {
	State      State  `json:"state"`
	Transcript string `json:"transcript,omitempty"`
	Applied    int    `json:"applied"`
}

type ServiceDependencies struct {
	Client   VoiceClient
	Recorder Recorder
	Handler  *errors.ErrorHandler
	Logger   logger.Logger
}
