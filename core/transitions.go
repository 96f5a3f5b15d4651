package orchestration

import (
	"github.com/koscakluka/ema-interview/core/agents"
	"github.com/koscakluka/ema-interview/core/events"
)

// nextStage returns the stage event leads to from current. Events a stage
// does not accept report false and must be ignored.
func nextStage(current Stage, event events.Event) (Stage, bool) {
	switch current {
	case StageScheduling:
		switch event.(type) {
		case events.StartNowRequested:
			return StagePreInterviewChat, true
		case events.ScheduleConfirmed:
			return StageWaiting, true
		}

	case StageWaiting:
		if _, ok := event.(events.CountdownReached); ok {
			return StagePreInterviewChat, true
		}

	case StagePreInterviewChat:
		if signaled, ok := event.(events.ActionSignaled); ok {
			switch {
			case signaled.Action == agents.ActionStartInterview:
				return StageInterview, true
			case signaled.Action.StartsAssessment():
				return StageAssessment, true
			}
		}

	case StageInterview:
		switch e := event.(type) {
		case events.CallEnded:
			return StageAssessment, true
		case events.ActionSignaled:
			if e.Action.StartsAssessment() {
				return StageAssessment, true
			}
		}

	case StageAssessment:
		if _, ok := event.(events.AssessmentCompleted); ok {
			return StagePostAssessmentQnA, true
		}

	case StagePostAssessmentQnA:
		if signaled, ok := event.(events.ActionSignaled); ok && signaled.Action == agents.ActionFinishInterview {
			return StageCompletion, true
		}

	case StageCompletion:
		if _, ok := event.(events.RestartRequested); ok {
			return StageScheduling, true
		}
	}

	return current, false
}
