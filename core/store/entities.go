package store

import (
	"time"

	"github.com/koscakluka/ema-interview/core/agents"
)

// ScheduledInterview is the start time chosen on the scheduling screen.
type ScheduledInterview struct {
	StartAt    time.Time `json:"scheduledDateTime"`
	ChosenDate time.Time `json:"date"`
	ChosenTime string    `json:"time"`
}

// Key identifies the schedule; preloads are only valid for the schedule
// whose key they carry.
func (s ScheduledInterview) Key() string {
	return s.StartAt.UTC().Format(time.RFC3339)
}

// PreloadedAssessment is an assessment generated ahead of a scheduled start.
type PreloadedAssessment struct {
	ScheduleKey string                      `json:"scheduleKey"`
	Questions   []agents.AssessmentQuestion `json:"questions"`
	CreatedAt   time.Time                   `json:"createdAt"`
}
