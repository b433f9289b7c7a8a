package controller

import (
	"errors"

	"wavebot/audio"
)

// User-input and state errors. None of these mutate a session.
var (
	ErrNotInVoiceChannel      = errors.New("not in a voice channel")
	ErrNoActiveSession        = errors.New("no active session")
	ErrWrongChannel           = errors.New("session is bound to another voice channel")
	ErrNoSearchResults        = errors.New("no search results")
	ErrNothingPlaying         = audio.ErrNothingPlaying
	ErrAlreadyActiveElsewhere = errors.New("session already active in another voice channel")
	ErrInvalidFilter          = errors.New("filter values must be positive")
)

// WrongChannelError carries the channel the session is locked to.
type WrongChannelError struct {
	HomeChannelID string
}

func (e *WrongChannelError) Error() string {
	return "session is bound to voice channel " + e.HomeChannelID
}

func (e *WrongChannelError) Is(target error) bool {
	return target == ErrWrongChannel
}

// RemoteError is a failure reported by the audio node or the voice gateway.
// Its message is the remote message, unchanged.
type RemoteError struct {
	Op  string
	Err error
}

func (e *RemoteError) Error() string {
	return e.Err.Error()
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

func remote(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, audio.ErrNothingPlaying) {
		return ErrNothingPlaying
	}
	return &RemoteError{Op: op, Err: err}
}
