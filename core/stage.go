package orchestration

// Stage is the current screen of an interview session.
type Stage int

const (
	StageScheduling Stage = iota
	StageWaiting
	StagePreInterviewChat
	StageInterview
	StageAssessment
	StagePostAssessmentQnA
	StageCompletion
)

func (s Stage) String() string {
	switch s {
	case StageScheduling:
		return "scheduling"
	case StageWaiting:
		return "waiting"
	case StagePreInterviewChat:
		return "pre-interview-chat"
	case StageInterview:
		return "interview"
	case StageAssessment:
		return "assessment"
	case StagePostAssessmentQnA:
		return "post-assessment-qna"
	case StageCompletion:
		return "completion"
	default:
		return "unknown"
	}
}
