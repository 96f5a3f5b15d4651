package events

import "github.com/koscakluka/ema-interview/core/store"

const (
	// KindStartNowRequested identifies a request to skip scheduling.
	KindStartNowRequested Kind = "scheduling.start_now_requested"
	// KindScheduleConfirmed identifies a confirmed future start time.
	KindScheduleConfirmed Kind = "scheduling.schedule_confirmed"
	// KindCountdownReached identifies the end of the waiting countdown.
	KindCountdownReached Kind = "waiting.countdown_reached"
)

// StartNowRequested marks that the candidate wants to start immediately.
type StartNowRequested struct{ Base }

// NewStartNowRequested creates a start now event.
func NewStartNowRequested() StartNowRequested {
	return StartNowRequested{Base: NewBase(KindStartNowRequested)}
}

// ScheduleConfirmed carries an already validated schedule.
type ScheduleConfirmed struct {
	Base
	Schedule store.ScheduledInterview
}

// NewScheduleConfirmed creates a schedule confirmed event.
func NewScheduleConfirmed(schedule store.ScheduledInterview) ScheduleConfirmed {
	return ScheduleConfirmed{Base: NewBase(KindScheduleConfirmed), Schedule: schedule}
}

// CountdownReached marks that waiting is over.
type CountdownReached struct{ Base }

// NewCountdownReached creates a countdown reached event.
func NewCountdownReached() CountdownReached {
	return CountdownReached{Base: NewBase(KindCountdownReached)}
}
