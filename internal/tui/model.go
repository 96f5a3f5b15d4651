// Package tui implements the terminal front end of an interview session
// using Bubble Tea.
package tui

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	orchestration "github.com/koscakluka/ema-interview/core"
)

// Session is the part of the orchestrator the terminal front end drives.
type Session interface {
	Snapshot() orchestration.Snapshot
	Chat() *orchestration.TurnController
	Assessment() *orchestration.AssessmentEngine
	StartNow() error
	Schedule(day time.Time, timeOfDay string) error
	EndCall() error
	Restart() error
}

// schedulingDays is how many days ahead an interview can be booked.
const schedulingDays = 7

// Model is the root bubbletea model.
type Model struct {
	ctx     context.Context
	session Session
	updates <-chan struct{}
	now     func() time.Time

	snapshot orchestration.Snapshot
	input    textinput.Model
	spinner  spinner.Model

	// Scheduling
	dayOffset int
	slot      int

	// Assessment
	cursor        int
	questionIndex int

	// Speech
	listening     bool
	stopListening context.CancelFunc
	transcripts   chan transcriptMsg
	partialText   string

	width        int
	height       int
	errorMessage string
}

// New creates a model for session. updates delivers the session's update
// notifications.
func New(ctx context.Context, session Session, updates <-chan struct{}) Model {
	input := textinput.New()
	input.Placeholder = "Mesajınızı yazın..."
	input.CharLimit = 2000
	input.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = SelectedStyle

	return Model{
		ctx:      ctx,
		session:  session,
		updates:  updates,
		now:      time.Now,
		snapshot: session.Snapshot(),
		input:    input,
		spinner:  sp,
		width:    80,
		height:   24,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(waitForUpdate(m.updates), tickCmd(), m.spinner.Tick, textinput.Blink)
}

func waitForUpdate(updates <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-updates; !ok {
			return nil
		}
		return updateMsg{}
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

// runOperation calls op off the event loop; session callbacks must never
// run inside Update.
func runOperation(op func() error) tea.Cmd {
	return func() tea.Msg {
		return operationDoneMsg{Err: op()}
	}
}

func readTranscript(transcripts <-chan transcriptMsg) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-transcripts
		if !ok {
			return transcriptMsg{Done: true}
		}
		return msg
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = max(msg.Width-6, 10)
		return m, nil

	case updateMsg:
		m.refresh()
		return m, waitForUpdate(m.updates)

	case tickMsg:
		m.refresh()
		return m, tickCmd()

	case operationDoneMsg:
		m.errorMessage = ""
		if msg.Err != nil {
			m.errorMessage = msg.Err.Error()
		}
		m.refresh()
		return m, nil

	case transcriptMsg:
		return m.handleTranscript(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) refresh() {
	previous := m.snapshot.Stage
	m.snapshot = m.session.Snapshot()
	if m.snapshot.Stage != previous {
		m.errorMessage = ""
		m.cursor = 0
		m.questionIndex = 0
		m.input.Reset()
		m.endListening()
	}
	if engine := m.session.Assessment(); engine != nil {
		if view := engine.View(); view.Index != m.questionIndex {
			m.questionIndex = view.Index
			m.cursor = 0
		}
	}
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == KeyCtrlC {
		m.endListening()
		return m, tea.Quit
	}

	switch m.snapshot.Stage {
	case orchestration.StageScheduling:
		return m.handleSchedulingKey(key)
	case orchestration.StagePreInterviewChat, orchestration.StageInterview, orchestration.StagePostAssessmentQnA:
		return m.handleChatKey(msg)
	case orchestration.StageAssessment:
		return m.handleAssessmentKey(key)
	case orchestration.StageCompletion:
		if key == KeyRestart {
			return m, runOperation(m.session.Restart)
		}
	}

	if key == KeyQuit {
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) handleSchedulingKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case KeyLeft:
		m.dayOffset = max(m.dayOffset-1, 0)
	case KeyRight:
		m.dayOffset = min(m.dayOffset+1, schedulingDays-1)
	case KeyUp:
		m.slot = max(m.slot-1, 0)
	case KeyDown:
		m.slot = min(m.slot+1, len(orchestration.TimeSlots)-1)
	case KeyStartNow:
		return m, runOperation(m.session.StartNow)
	case KeyEnter:
		day := m.selectedDay()
		timeOfDay := orchestration.TimeSlots[m.slot]
		return m, runOperation(func() error { return m.session.Schedule(day, timeOfDay) })
	case KeyQuit:
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) selectedDay() time.Time {
	return m.now().AddDate(0, 0, m.dayOffset)
}

func (m Model) handleChatKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	chat := m.session.Chat()
	switch msg.String() {
	case KeyEnter:
		text := m.input.Value()
		if chat == nil || text == "" {
			return m, nil
		}
		m.input.Reset()
		return m, m.sendMessage(chat, text)

	case KeyEndCall:
		if m.snapshot.Stage == orchestration.StageInterview {
			m.endListening()
			return m, runOperation(m.session.EndCall)
		}
		return m, nil

	case KeyListen:
		if m.listening {
			m.endListening()
			return m, nil
		}
		if chat == nil {
			return m, nil
		}
		return m.startListening(chat)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) sendMessage(chat *orchestration.TurnController, text string) tea.Cmd {
	ctx := m.ctx
	return runOperation(func() error {
		err := chat.SendMessage(ctx, text)
		if errors.Is(err, orchestration.ErrEmptyMessage) {
			return nil
		}
		return err
	})
}

func (m Model) startListening(chat *orchestration.TurnController) (tea.Model, tea.Cmd) {
	ctx, cancel := context.WithCancel(m.ctx)
	transcripts := make(chan transcriptMsg)
	go func() {
		defer close(transcripts)
		for transcript, err := range chat.Listen(ctx) {
			select {
			case transcripts <- transcriptMsg{Transcript: transcript, Err: err}:
			case <-ctx.Done():
				return
			}
		}
	}()

	m.listening = true
	m.stopListening = cancel
	m.transcripts = transcripts
	m.partialText = ""
	return m, readTranscript(transcripts)
}

func (m *Model) endListening() {
	if m.stopListening != nil {
		m.stopListening()
		m.stopListening = nil
	}
	m.listening = false
	m.partialText = ""
}

func (m Model) handleTranscript(msg transcriptMsg) (tea.Model, tea.Cmd) {
	if msg.Done || !m.listening {
		m.listening = false
		m.partialText = ""
		return m, nil
	}
	next := readTranscript(m.transcripts)
	if msg.Err != nil {
		m.errorMessage = msg.Err.Error()
		return m, next
	}
	if !msg.Transcript.IsFinal {
		m.partialText = msg.Transcript.Text
		return m, next
	}

	m.partialText = ""
	chat := m.session.Chat()
	if chat == nil || msg.Transcript.Text == "" {
		return m, next
	}
	return m, tea.Batch(next, m.sendMessage(chat, msg.Transcript.Text))
}

func (m Model) handleAssessmentKey(key string) (tea.Model, tea.Cmd) {
	engine := m.session.Assessment()
	if engine == nil {
		return m, nil
	}
	view := engine.View()
	if view.Loading || view.Finished {
		return m, nil
	}

	options := len(view.Question.Options)
	switch key {
	case KeyUp:
		m.cursor = max(m.cursor-1, 0)
	case KeyDown:
		m.cursor = min(m.cursor+1, options-1)
	case KeyEnter:
		cursor := m.cursor
		return m, runOperation(func() error {
			if err := engine.Select(cursor); err != nil {
				return err
			}
			return engine.Advance()
		})
	case KeyQuit:
		return m, tea.Quit
	default:
		if n, err := strconv.Atoi(key); err == nil && n >= 1 && n <= options {
			m.cursor = n - 1
			return m, runOperation(func() error { return engine.Select(n - 1) })
		}
	}
	return m, nil
}
