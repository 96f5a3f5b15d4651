// Package events defines the typed stage transition events.
//
// Event kinds are grouped by the stage that produces them:
//
//   - scheduling.*
//   - waiting.*
//   - dialogue.*
//   - interview.*
//   - assessment.*
//   - completion.*
//
// scheduling events
//
//   - StartNowRequested (scheduling.start_now_requested): candidate skipped
//     scheduling.
//   - ScheduleConfirmed (scheduling.schedule_confirmed): a validated future
//     start time was chosen.
//
// waiting events
//
//   - CountdownReached (waiting.countdown_reached): the start time is within
//     the advance window or already passed.
//
// dialogue events
//
//   - ActionSignaled (dialogue.action_signaled): the collaborator attached an
//     action code to a reply and its delay elapsed.
//
// interview events
//
//   - CallEnded (interview.call_ended): the candidate ended the call.
//
// assessment events
//
//   - AssessmentCompleted (assessment.completed): the last item was advanced;
//     carries the result.
//
// completion events
//
//   - RestartRequested (completion.restart_requested): start over with the
//     next candidate identity.
package events
