package agents

import (
	"time"

	"github.com/google/uuid"
)

type Speaker string

const (
	SpeakerCandidate Speaker = "candidate"
	SpeakerAgent     Speaker = "agent"
)

// Message is one entry in a conversation history.
type Message struct {
	ID      string
	Speaker Speaker
	Text    string
	At      time.Time
}

func NewCandidateMessage(text string, at time.Time) Message {
	return Message{ID: uuid.NewString(), Speaker: SpeakerCandidate, Text: text, At: at}
}

func NewAgentMessage(text string, at time.Time) Message {
	return Message{ID: uuid.NewString(), Speaker: SpeakerAgent, Text: text, At: at}
}
