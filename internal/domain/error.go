package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrAlreadyExists      = errors.New("entity already exists")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrInvalidExecContext = errors.New("invalid sql execution context")
	ErrReadDatabaseRow    = errors.New("failed to read database row")

	// Transcription stage errors
	ErrSTTNotConfigured = errors.New("speech-to-text credential not configured")
	ErrOversizedMedia   = errors.New("recording exceeds download size limit")
	ErrEmptyTranscript  = errors.New("speech-to-text returned empty text")
	ErrMediaUnavailable = errors.New("recording could not be downloaded")

	// Scheduler errors
	ErrSchedulerClosed = errors.New("task scheduler is closed")
)
