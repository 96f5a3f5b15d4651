package orchestration

import (
	"github.com/benbjohnson/clock"
	"github.com/koscakluka/ema-interview/core/agents"
	"github.com/koscakluka/ema-interview/core/session"
	"github.com/koscakluka/ema-interview/core/speech"
	"github.com/koscakluka/ema-interview/core/store"
)

type OrchestratorOption func(*Orchestrator)

// WithCollaborator sets every collaborator role at once. Later role
// specific options override single roles.
func WithCollaborator(collaborator agents.Collaborator) OrchestratorOption {
	return func(o *Orchestrator) {
		o.collaborator = newCollaboratorSet(collaborator)
	}
}

func WithDialogue(dialogue agents.Dialogue) OrchestratorOption {
	return func(o *Orchestrator) {
		o.collaborators().Dialogue = dialogue
	}
}

func WithAssessmentGenerator(generator agents.AssessmentGenerator) OrchestratorOption {
	return func(o *Orchestrator) {
		o.collaborators().AssessmentGenerator = generator
	}
}

func WithResultReporter(reporter agents.ResultReporter) OrchestratorOption {
	return func(o *Orchestrator) {
		o.collaborators().ResultReporter = reporter
	}
}

func WithTranscriptPersister(persister agents.TranscriptPersister) OrchestratorOption {
	return func(o *Orchestrator) {
		o.collaborators().TranscriptPersister = persister
	}
}

// collaborators returns the role set, converting a plain collaborator
// into one first.
func (o *Orchestrator) collaborators() *collaboratorSet {
	set, ok := o.collaborator.(*collaboratorSet)
	if !ok {
		set = newCollaboratorSet(o.collaborator)
		o.collaborator = set
	}
	return set
}

func WithSessionStore(s store.SessionStore) OrchestratorOption {
	return func(o *Orchestrator) {
		o.store = s
	}
}

// WithSessionSeed sets the identity the first session starts with.
func WithSessionSeed(seed session.ID) OrchestratorOption {
	return func(o *Orchestrator) {
		o.sessionSeed = seed
	}
}

func WithSpeech(capability speech.Capability) OrchestratorOption {
	return func(o *Orchestrator) {
		o.speech = capability
	}
}

// WithAutoSpeak makes conversations read every agent reply aloud when a
// speaker is configured.
func WithAutoSpeak(enabled bool) OrchestratorOption {
	return func(o *Orchestrator) {
		o.autoSpeak = enabled
	}
}

func WithClock(c clock.Clock) OrchestratorOption {
	return func(o *Orchestrator) {
		o.clock = c
	}
}

func WithTimings(timings Timings) OrchestratorOption {
	return func(o *Orchestrator) {
		o.timings = timings
	}
}

func WithTexts(texts Texts) OrchestratorOption {
	return func(o *Orchestrator) {
		o.texts = texts
	}
}

// WithStageChangedCallback is called after every transition, outside of any
// orchestrator lock.
func WithStageChangedCallback(callback func(from, to Stage)) OrchestratorOption {
	return func(o *Orchestrator) {
		if callback != nil {
			o.onStageChanged = callback
		}
	}
}

// WithUpdateCallback is called whenever observable state may have changed.
func WithUpdateCallback(callback func()) OrchestratorOption {
	return func(o *Orchestrator) {
		if callback != nil {
			o.onUpdate = callback
		}
	}
}
