package events

import "github.com/koscakluka/ema-interview/core/agents"

const (
	// KindActionSignaled identifies an action code emitted by a dialogue.
	KindActionSignaled Kind = "dialogue.action_signaled"
	// KindCallEnded identifies the candidate ending the interview call.
	KindCallEnded Kind = "interview.call_ended"
)

// ActionSignaled carries an action code from the collaborator.
type ActionSignaled struct {
	Base
	Action agents.ActionCode
}

// NewActionSignaled creates an action signaled event.
func NewActionSignaled(action agents.ActionCode) ActionSignaled {
	return ActionSignaled{Base: NewBase(KindActionSignaled), Action: action}
}

// CallEnded marks that the candidate ended the interview call.
type CallEnded struct{ Base }

// NewCallEnded creates a call ended event.
func NewCallEnded() CallEnded {
	return CallEnded{Base: NewBase(KindCallEnded)}
}
