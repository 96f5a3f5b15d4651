package orchestration

import (
	"context"
	"errors"

	"github.com/koscakluka/ema-interview/core/agents"
	"github.com/koscakluka/ema-interview/core/session"
)

// ErrNotConfigured is returned by collaborator calls that were never wired.
var ErrNotConfigured = errors.New("collaborator not configured")

// collaboratorSet assembles a collaborator from separately configured parts.
type collaboratorSet struct {
	agents.Dialogue
	agents.AssessmentGenerator
	agents.ResultReporter
	agents.TranscriptPersister
}

func newCollaboratorSet(base agents.Collaborator) *collaboratorSet {
	return &collaboratorSet{
		Dialogue:            base,
		AssessmentGenerator: base,
		ResultReporter:      base,
		TranscriptPersister: base,
	}
}

type missingCollaborator struct{}

func (missingCollaborator) OpenDialogue(context.Context, session.ID, agents.Mode) (*agents.Opening, error) {
	return nil, ErrNotConfigured
}

func (missingCollaborator) ContinueDialogue(context.Context, session.ID, string) (*agents.Reply, error) {
	return nil, ErrNotConfigured
}

func (missingCollaborator) GenerateAssessment(context.Context, session.ID) ([]agents.AssessmentQuestion, error) {
	return nil, ErrNotConfigured
}

func (missingCollaborator) ReportAssessmentResult(context.Context, session.ID, agents.AssessmentResult) error {
	return ErrNotConfigured
}

func (missingCollaborator) PersistTranscript(context.Context, session.ID) error {
	return ErrNotConfigured
}
