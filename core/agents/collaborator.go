package agents

import (
	"context"

	"github.com/koscakluka/ema-interview/core/session"
)

// Mode selects which conversation a dialogue serves.
type Mode int

const (
	ModePreInterview Mode = iota
	ModeInterview
	ModePostAssessment
)

func (m Mode) String() string {
	switch m {
	case ModePreInterview:
		return "pre-interview"
	case ModeInterview:
		return "interview"
	case ModePostAssessment:
		return "post-assessment"
	default:
		return "unknown"
	}
}

// Opening is the collaborator's answer to opening a conversation. Messages,
// when present, replace the local history; otherwise Reply is shown.
type Opening struct {
	Messages []Message
	Reply    string
	Action   ActionCode
}

type Reply struct {
	Text   string
	Action ActionCode
}

type Dialogue interface {
	OpenDialogue(ctx context.Context, id session.ID, mode Mode) (*Opening, error)
	ContinueDialogue(ctx context.Context, id session.ID, text string) (*Reply, error)
}

type AssessmentGenerator interface {
	GenerateAssessment(ctx context.Context, id session.ID) ([]AssessmentQuestion, error)
}

type ResultReporter interface {
	ReportAssessmentResult(ctx context.Context, id session.ID, result AssessmentResult) error
}

type TranscriptPersister interface {
	PersistTranscript(ctx context.Context, id session.ID) error
}

// Collaborator is the full remote agent service.
type Collaborator interface {
	Dialogue
	AssessmentGenerator
	ResultReporter
	TranscriptPersister
}
