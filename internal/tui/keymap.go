package tui

// Key binding constants used in handleKey.
const (
	KeyCtrlC    = "ctrl+c"
	KeyEnter    = "enter"
	KeyUp       = "up"
	KeyDown     = "down"
	KeyLeft     = "left"
	KeyRight    = "right"
	KeyStartNow = "ctrl+n"
	KeyEndCall  = "ctrl+e"
	KeyListen   = "ctrl+l"
	KeyRestart  = "r"
	KeyQuit     = "q"
)
