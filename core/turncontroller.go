package orchestration

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/benbjohnson/clock"
	"github.com/koscakluka/ema-interview/core/agents"
	"github.com/koscakluka/ema-interview/core/session"
	"github.com/koscakluka/ema-interview/core/speech"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	ErrEmptyMessage     = errors.New("message is empty")
	ErrRequestInFlight  = errors.New("a request is already in flight")
	ErrControllerClosed = errors.New("conversation is closed")
)

// TurnController runs one conversation with the dialogue collaborator. It
// lives exactly as long as the stage that created it.
type TurnController struct {
	mode      agents.Mode
	sessionID session.ID
	dialogue  agents.Dialogue
	speech    speech.Capability
	autoSpeak bool
	clock     clock.Clock
	timings   Timings
	texts     Texts
	lease     *stageLease
	signal    func(agents.ActionCode)
	notify    func()

	mu          sync.Mutex
	history     []agents.Message
	initialized bool
	inFlight    bool
	closed      bool
	pending     []*clock.Timer

	speaking atomic.Bool
}

type turnControllerConfig struct {
	mode      agents.Mode
	sessionID session.ID
	dialogue  agents.Dialogue
	speech    speech.Capability
	autoSpeak bool
	clock     clock.Clock
	timings   Timings
	texts     Texts
	lease     *stageLease
	// signal receives action codes once their delay elapsed.
	signal func(agents.ActionCode)
	notify func()
}

func newTurnController(config turnControllerConfig) *TurnController {
	t := &TurnController{
		mode:      config.mode,
		sessionID: config.sessionID,
		dialogue:  config.dialogue,
		speech:    config.speech,
		autoSpeak: config.autoSpeak,
		clock:     config.clock,
		timings:   config.timings,
		texts:     config.texts,
		lease:     config.lease,
		signal:    config.signal,
		notify:    config.notify,
	}
	if t.signal == nil {
		t.signal = func(agents.ActionCode) {}
	}
	if t.notify == nil {
		t.notify = func() {}
	}
	return t
}

func (t *TurnController) Mode() agents.Mode {
	return t.mode
}

// History returns a copy of the conversation so far.
func (t *TurnController) History() []agents.Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.history)
}

// IsLoading reports whether a request to the collaborator is in flight.
func (t *TurnController) IsLoading() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.inFlight
}

func (t *TurnController) IsSpeaking() bool {
	return t.speaking.Load()
}

// Initialize requests the opening of the conversation. Only the first call
// does anything.
func (t *TurnController) Initialize(ctx context.Context) error {
	t.mu.Lock()
	if t.initialized || !t.isLiveLocked() {
		t.mu.Unlock()
		return nil
	}
	t.initialized = true
	t.inFlight = true
	t.mu.Unlock()
	t.notify()

	ctx, span := tracer.Start(ctx, "open dialogue", trace.WithAttributes(
		attribute.String("dialogue.mode", t.mode.String()),
		attribute.String("session.id", t.sessionID.String()),
	))
	defer span.End()

	opening, err := t.dialogue.OpenDialogue(ctx, t.sessionID, t.mode)

	t.mu.Lock()
	if !t.isLiveLocked() {
		t.mu.Unlock()
		logger.Debug("discarding opening for a closed conversation", "mode", t.mode.String())
		return nil
	}
	t.inFlight = false

	if err != nil {
		err = fmt.Errorf("failed to open dialogue: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Warn("dialogue opening failed", "mode", t.mode.String(), "error", err)
		t.appendAgentLocked(t.texts.RequestFailed)
		t.mu.Unlock()
		t.notify()
		return nil
	}

	switch {
	case len(opening.Messages) > 0:
		t.history = slices.Clone(opening.Messages)
	case opening.Reply != "":
		t.appendAgentLocked(opening.Reply)
	default:
		t.appendAgentLocked(t.texts.greeting(t.mode))
	}
	t.scheduleActionLocked(opening.Action)
	spoken := t.lastAgentTextLocked()
	t.mu.Unlock()

	t.notify()
	t.speakReply(spoken)
	return nil
}

// SendMessage appends the candidate's message right away and then waits for
// the collaborator's reply. Failures are shown in the conversation rather
// than returned.
func (t *TurnController) SendMessage(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyMessage
	}

	t.mu.Lock()
	if !t.isLiveLocked() {
		t.mu.Unlock()
		return ErrControllerClosed
	}
	if t.inFlight {
		t.mu.Unlock()
		return ErrRequestInFlight
	}
	t.inFlight = true
	t.history = append(t.history, agents.NewCandidateMessage(text, t.clock.Now()))
	t.mu.Unlock()
	t.notify()

	ctx, span := tracer.Start(ctx, "continue dialogue", trace.WithAttributes(
		attribute.String("dialogue.mode", t.mode.String()),
		attribute.String("session.id", t.sessionID.String()),
	))
	defer span.End()

	reply, err := t.dialogue.ContinueDialogue(ctx, t.sessionID, text)

	t.mu.Lock()
	if !t.isLiveLocked() {
		t.mu.Unlock()
		logger.Debug("discarding reply for a closed conversation", "mode", t.mode.String())
		return nil
	}
	t.inFlight = false

	if err != nil {
		err = fmt.Errorf("failed to continue dialogue: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Warn("dialogue request failed", "mode", t.mode.String(), "error", err)
		t.appendAgentLocked(t.texts.RequestFailed)
		t.mu.Unlock()
		t.notify()
		return nil
	}

	t.appendAgentLocked(reply.Text)
	t.scheduleActionLocked(reply.Action)
	t.mu.Unlock()

	t.notify()
	t.speakReply(reply.Text)
	return nil
}

// Speak reads text aloud when a speaker is available. It is best-effort and
// ignores calls made while another utterance is playing.
func (t *TurnController) Speak(ctx context.Context, text string) error {
	if !t.speech.CanSpeak() || strings.TrimSpace(text) == "" {
		return nil
	}
	if !t.speaking.CompareAndSwap(false, true) {
		return nil
	}
	defer t.speaking.Store(false)
	t.notify()
	defer t.notify()

	err := t.speech.Speaker.Speak(ctx, text)
	if err == nil || errors.Is(err, speech.ErrSpeakerBusy) || errors.Is(err, context.Canceled) {
		return nil
	}
	logger.Warn("speaking failed", "error", err)
	return fmt.Errorf("failed to speak: %w", err)
}

// Listen yields transcripts of the candidate's speech until ctx is done, the
// consumer stops or the conversation closes. Without a listener it yields
// nothing.
func (t *TurnController) Listen(ctx context.Context) iter.Seq2[speech.Transcript, error] {
	if !t.speech.CanListen() {
		return func(func(speech.Transcript, error) bool) {}
	}
	return func(yield func(speech.Transcript, error) bool) {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()
		stop := context.AfterFunc(t.lease.ctx, cancel)
		defer stop()

		for transcript, err := range t.speech.Listener.Listen(ctx) {
			if !yield(transcript, err) {
				return
			}
		}
	}
}

// Close stops pending action timers and drops any response still on its
// way.
func (t *TurnController) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	for _, timer := range t.pending {
		timer.Stop()
	}
	t.pending = nil
}

func (t *TurnController) isLiveLocked() bool {
	return !t.closed && t.lease.alive()
}

func (t *TurnController) appendAgentLocked(text string) {
	if text == "" {
		return
	}
	t.history = append(t.history, agents.NewAgentMessage(text, t.clock.Now()))
}

func (t *TurnController) lastAgentTextLocked() string {
	for i := len(t.history) - 1; i >= 0; i-- {
		if t.history[i].Speaker == agents.SpeakerAgent {
			return t.history[i].Text
		}
	}
	return ""
}

func (t *TurnController) scheduleActionLocked(action agents.ActionCode) {
	if !action.IsActionable() {
		if action == agents.ActionUnrecognized {
			logger.Debug("ignoring unrecognized action", "mode", t.mode.String())
		}
		return
	}

	delay := t.timings.actionDelay(t.mode, action)
	if delay <= 0 {
		go t.fire(action)
		return
	}
	t.pending = append(t.pending, t.clock.AfterFunc(delay, func() { t.fire(action) }))
}

func (t *TurnController) fire(action agents.ActionCode) {
	t.mu.Lock()
	live := t.isLiveLocked()
	t.mu.Unlock()
	if !live {
		return
	}
	t.signal(action)
}

func (t *TurnController) speakReply(text string) {
	if !t.autoSpeak || text == "" {
		return
	}
	go func() {
		_ = t.Speak(t.lease.ctx, text)
	}()
}
