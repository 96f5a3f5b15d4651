package tui

import (
	"context"
	"errors"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
)

// ErrNotInteractive is returned when stdout is not a terminal.
var ErrNotInteractive = errors.New("an interactive terminal is required")

// Notifier turns session update callbacks into Bubble Tea messages.
// Notifications arriving while one is pending are coalesced.
type Notifier struct {
	updates chan struct{}
}

func NewNotifier() *Notifier {
	return &Notifier{updates: make(chan struct{}, 1)}
}

// Notify never blocks; pass it as the session's update callback.
func (n *Notifier) Notify() {
	select {
	case n.updates <- struct{}{}:
	default:
	}
}

func (n *Notifier) Updates() <-chan struct{} {
	return n.updates
}

// IsTTY returns true if stdout is connected to a terminal.
func IsTTY() bool {
	return isatty.IsTerminal(os.Stdout.Fd())
}

// Run shows session until the user quits or ctx is done.
func Run(ctx context.Context, session Session, notifier *Notifier) error {
	if !IsTTY() {
		return ErrNotInteractive
	}
	p := tea.NewProgram(New(ctx, session, notifier.Updates()), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
