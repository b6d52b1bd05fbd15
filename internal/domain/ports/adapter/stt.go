package adapter

import "context"

// TranscribeHints carries optional format hints for the STT provider.
type TranscribeHints struct {
	Filename string // e.g. "call.mp3", used for container detection
	Language string // BCP-47 hint, empty for auto-detect
}

// SpeechToTextAdapter is the port for the speech-to-text provider.
type SpeechToTextAdapter interface {
	// Transcribe converts raw audio bytes into plain text.
	Transcribe(ctx context.Context, audio []byte, hints TranscribeHints) (string, error)
}
