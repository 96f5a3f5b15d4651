package events

import "github.com/koscakluka/ema-interview/core/agents"

const (
	// KindAssessmentCompleted identifies a finished assessment.
	KindAssessmentCompleted Kind = "assessment.completed"
	// KindRestartRequested identifies a request to start a new session.
	KindRestartRequested Kind = "completion.restart_requested"
)

// AssessmentCompleted carries the final assessment result.
type AssessmentCompleted struct {
	Base
	Result agents.AssessmentResult
}

// NewAssessmentCompleted creates an assessment completed event.
func NewAssessmentCompleted(result agents.AssessmentResult) AssessmentCompleted {
	return AssessmentCompleted{Base: NewBase(KindAssessmentCompleted), Result: result}
}

// RestartRequested marks a request to start over.
type RestartRequested struct{ Base }

// NewRestartRequested creates a restart requested event.
func NewRestartRequested() RestartRequested {
	return RestartRequested{Base: NewBase(KindRestartRequested)}
}
