package tui

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	tea "github.com/charmbracelet/bubbletea"

	orchestration "github.com/koscakluka/ema-interview/core"
	"github.com/koscakluka/ema-interview/core/agents"
	"github.com/koscakluka/ema-interview/core/session"
)

type quietCollaborator struct{}

func (quietCollaborator) OpenDialogue(context.Context, session.ID, agents.Mode) (*agents.Opening, error) {
	return &agents.Opening{Reply: "Merhaba"}, nil
}

func (quietCollaborator) ContinueDialogue(context.Context, session.ID, string) (*agents.Reply, error) {
	return &agents.Reply{Text: "Anladım"}, nil
}

func (quietCollaborator) GenerateAssessment(context.Context, session.ID) ([]agents.AssessmentQuestion, error) {
	return agents.PlaceholderAssessment(), nil
}

func (quietCollaborator) ReportAssessmentResult(context.Context, session.ID, agents.AssessmentResult) error {
	return nil
}

func (quietCollaborator) PersistTranscript(context.Context, session.ID) error {
	return nil
}

func newTestModel(t *testing.T) (Model, *orchestration.Orchestrator) {
	t.Helper()
	mock := clock.NewMock()
	mock.Set(time.Date(2026, time.October, 19, 8, 0, 0, 0, time.Local))

	notifier := NewNotifier()
	o := orchestration.NewOrchestrator(
		orchestration.WithCollaborator(quietCollaborator{}),
		orchestration.WithClock(mock),
		orchestration.WithUpdateCallback(notifier.Notify),
	)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(func() {
		cancel()
		o.Close()
	})
	o.Orchestrate(ctx)

	m := New(ctx, o, notifier.Updates())
	m.now = mock.Now
	return m, o
}

func press(t *testing.T, m Model, msg tea.KeyMsg) (Model, tea.Cmd) {
	t.Helper()
	updated, cmd := m.Update(msg)
	return updated.(Model), cmd
}

// runCmd executes cmd and feeds its message back into the model.
func runCmd(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	if cmd == nil {
		t.Fatalf("expected a command")
	}
	msg := cmd()
	done, ok := msg.(operationDoneMsg)
	if !ok {
		t.Fatalf("expected operationDoneMsg, got %T", msg)
	}
	if done.Err != nil {
		t.Fatalf("operation failed: %v", done.Err)
	}
	updated, _ := m.Update(done)
	return updated.(Model)
}

func TestNewModelStartsInScheduling(t *testing.T) {
	m, _ := newTestModel(t)

	if m.snapshot.Stage != orchestration.StageScheduling {
		t.Fatalf("expected scheduling, got %s", m.snapshot.Stage)
	}
	view := m.View()
	if !strings.Contains(view, "> 09:00") {
		t.Errorf("expected first slot to be selected, got:\n%s", view)
	}
}

func TestSchedulingCursorStaysInBounds(t *testing.T) {
	m, _ := newTestModel(t)

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyUp})
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyLeft})
	if m.slot != 0 || m.dayOffset != 0 {
		t.Fatalf("expected cursor to stay at origin, got slot=%d day=%d", m.slot, m.dayOffset)
	}

	for range len(orchestration.TimeSlots) + 2 {
		m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	}
	for range schedulingDays + 2 {
		m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyRight})
	}
	if m.slot != len(orchestration.TimeSlots)-1 || m.dayOffset != schedulingDays-1 {
		t.Fatalf("expected cursor to clamp, got slot=%d day=%d", m.slot, m.dayOffset)
	}
}

func TestEnterSchedulesSelectedSlot(t *testing.T) {
	m, o := newTestModel(t)

	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = runCmd(t, m, cmd)

	if m.snapshot.Stage != orchestration.StageWaiting {
		t.Fatalf("expected waiting, got %s", m.snapshot.Stage)
	}
	if schedule := o.Snapshot().Schedule; schedule == nil || schedule.ChosenTime != "09:00" {
		t.Fatalf("unexpected schedule %+v", schedule)
	}
	if view := m.View(); !strings.Contains(view, "01:00:00") {
		t.Errorf("expected countdown in view, got:\n%s", view)
	}
}

func TestStartNowOpensChat(t *testing.T) {
	m, o := newTestModel(t)

	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyCtrlN})
	m = runCmd(t, m, cmd)

	if m.snapshot.Stage != orchestration.StagePreInterviewChat {
		t.Fatalf("expected pre-interview chat, got %s", m.snapshot.Stage)
	}

	deadline := time.Now().Add(2 * time.Second)
	for len(o.Chat().History()) == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for the opening")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if view := m.View(); !strings.Contains(view, "Merhaba") {
		t.Errorf("expected opening in view, got:\n%s", view)
	}

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if m.input.Value() != "q" {
		t.Fatalf("expected q to be typed in chat, got %q", m.input.Value())
	}
}

func TestRestartIgnoredOutsideCompletion(t *testing.T) {
	m, _ := newTestModel(t)

	_, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	if cmd != nil {
		t.Fatalf("expected no command for r in scheduling")
	}
}

func TestFormatCountdown(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "00:00:00"},
		{59 * time.Second, "00:00:59"},
		{5*time.Minute + 400*time.Millisecond, "00:05:00"},
		{26*time.Hour + 3*time.Minute, "26:03:00"},
	}
	for _, tt := range tests {
		if got := formatCountdown(tt.in); got != tt.want {
			t.Errorf("formatCountdown(%s): got %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNotifierCoalesces(t *testing.T) {
	n := NewNotifier()
	n.Notify()
	n.Notify()

	select {
	case <-n.Updates():
	default:
		t.Fatalf("expected a pending update")
	}
	select {
	case <-n.Updates():
		t.Fatalf("expected updates to be coalesced")
	default:
	}
}
