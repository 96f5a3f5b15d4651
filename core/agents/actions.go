package agents

import "strings"

// ActionCode is a control signal attached to a dialogue reply. The set is
// closed; anything the collaborator sends outside of it is Unrecognized.
type ActionCode int

const (
	ActionNone ActionCode = iota
	ActionStartInterview
	ActionStartQuiz
	ActionShowQuiz
	ActionFinishInterview
	ActionUnrecognized
)

// ParseActionCode never fails: empty input is ActionNone and unknown codes
// are ActionUnrecognized.
func ParseActionCode(raw string) ActionCode {
	switch strings.TrimSpace(raw) {
	case "":
		return ActionNone
	case "START_INTERVIEW":
		return ActionStartInterview
	case "START_QUIZ":
		return ActionStartQuiz
	case "SHOW_QUIZ":
		return ActionShowQuiz
	case "FINISH_INTERVIEW":
		return ActionFinishInterview
	default:
		return ActionUnrecognized
	}
}

func (a ActionCode) String() string {
	switch a {
	case ActionNone:
		return "NONE"
	case ActionStartInterview:
		return "START_INTERVIEW"
	case ActionStartQuiz:
		return "START_QUIZ"
	case ActionShowQuiz:
		return "SHOW_QUIZ"
	case ActionFinishInterview:
		return "FINISH_INTERVIEW"
	default:
		return "UNRECOGNIZED"
	}
}

// StartsAssessment reports whether the code asks to move to the assessment.
func (a ActionCode) StartsAssessment() bool {
	return a == ActionStartQuiz || a == ActionShowQuiz
}

// IsActionable reports whether the code may trigger a stage transition.
func (a ActionCode) IsActionable() bool {
	return a != ActionNone && a != ActionUnrecognized
}
