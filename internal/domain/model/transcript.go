package model

import "strings"

type SpeakerRole string

const (
	RoleIVR      SpeakerRole = "ivr"
	RoleCustomer SpeakerRole = "customer"
	RoleManager  SpeakerRole = "manager"
	RoleUnknown  SpeakerRole = "unknown"
)

// ValidSpeakerRole reports whether the model returned a role we recognize.
func ValidSpeakerRole(r SpeakerRole) bool {
	switch r {
	case RoleIVR, RoleCustomer, RoleManager, RoleUnknown:
		return true
	}
	return false
}

// SpeakerTurn is one speaker-attributed utterance in a segmented transcript.
type SpeakerTurn struct {
	Speaker SpeakerRole `json:"speaker"`
	Text    string      `json:"text"`
}

// Transcript is the in-memory result of the transcription stage. Segmentation
// is strictly an enhancement: when Segmented is false the raw text is all we
// have, and Text falls back to it.
type Transcript struct {
	Raw       string
	Turns     []SpeakerTurn
	Segmented bool
}

// Text renders the transcript for downstream analysis: role-attributed lines
// of the form "role: utterance" when segmented, the raw text otherwise.
func (t *Transcript) Text() string {
	if t == nil {
		return ""
	}
	if !t.Segmented || len(t.Turns) == 0 {
		return t.Raw
	}
	var b strings.Builder
	for i, turn := range t.Turns {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(string(turn.Speaker))
		b.WriteString(": ")
		b.WriteString(turn.Text)
	}
	return b.String()
}
