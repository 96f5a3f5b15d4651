package tui

import "github.com/koscakluka/ema-interview/core/speech"

// updateMsg is sent whenever the session reports a change.
type updateMsg struct{}

// tickMsg refreshes countdowns once per second.
type tickMsg struct{}

// operationDoneMsg carries the outcome of a session operation run off the
// event loop.
type operationDoneMsg struct {
	Err error
}

// transcriptMsg carries recognised speech while listening.
type transcriptMsg struct {
	Transcript speech.Transcript
	Err        error
	Done       bool
}
