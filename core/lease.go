package orchestration

import "context"

// stageLease is the liveness token of one stage entry or one session. Work
// started under a lease may only mutate state while the lease is alive.
type stageLease struct {
	ctx    context.Context
	cancel context.CancelFunc
}

func newStageLease(parent context.Context) *stageLease {
	ctx, cancel := context.WithCancel(parent)
	return &stageLease{ctx: ctx, cancel: cancel}
}

func (l *stageLease) alive() bool {
	return l != nil && l.ctx.Err() == nil
}

func (l *stageLease) end() {
	if l != nil {
		l.cancel()
	}
}
