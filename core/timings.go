package orchestration

import (
	"time"

	"github.com/koscakluka/ema-interview/core/agents"
)

// Timings holds every duration the session flow depends on.
type Timings struct {
	// Tick is the sampling period of countdowns and item timers.
	Tick time.Duration
	// PreloadLead is how long before the start the assessment is generated.
	PreloadLead time.Duration
	// AdvanceLead is how long before the start waiting ends.
	AdvanceLead time.Duration
	// QuestionTime is the time allowed for each assessment item.
	QuestionTime time.Duration

	ActionDelay          time.Duration
	FinishDelay          time.Duration
	InterviewActionDelay time.Duration
}

func DefaultTimings() Timings {
	return Timings{
		Tick:                 time.Second,
		PreloadLead:          5 * time.Minute,
		AdvanceLead:          time.Minute,
		QuestionTime:         60 * time.Second,
		ActionDelay:          time.Second,
		FinishDelay:          2 * time.Second,
		InterviewActionDelay: 2 * time.Second,
	}
}

func (t Timings) actionDelay(mode agents.Mode, action agents.ActionCode) time.Duration {
	switch {
	case action == agents.ActionFinishInterview:
		return t.FinishDelay
	case mode == agents.ModeInterview:
		return t.InterviewActionDelay
	default:
		return t.ActionDelay
	}
}
