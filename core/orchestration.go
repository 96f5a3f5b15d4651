package orchestration

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/jinzhu/copier"
	"github.com/koscakluka/ema-interview/core/agents"
	"github.com/koscakluka/ema-interview/core/events"
	"github.com/koscakluka/ema-interview/core/session"
	"github.com/koscakluka/ema-interview/core/speech"
	"github.com/koscakluka/ema-interview/core/store"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
)

var (
	ErrTransitionRejected = errors.New("transition not allowed in the current stage")
	ErrScheduleInPast     = errors.New("scheduled time is not in the future")
	ErrInvalidTimeOfDay   = errors.New("time of day must be formatted as HH:MM")
)

// TimeSlots are the start times offered on the scheduling screen.
var TimeSlots = []string{"09:00", "09:30", "10:00", "10:30", "11:00", "14:00", "14:30", "15:00", "15:30"}

// Snapshot is a consistent copy of the observable session state.
type Snapshot struct {
	Stage     Stage
	SessionID session.ID
	Schedule  *store.ScheduledInterview
	Remaining time.Duration
	Score     int
	Result    *agents.AssessmentResult
}

// Orchestrator drives one candidate through the interview stages. All stage
// changes go through a single transition table; work started in a stage
// stops affecting the session once that stage is left.
type Orchestrator struct {
	collaborator agents.Collaborator
	store        store.SessionStore
	identity     *session.Manager
	sessionSeed  session.ID
	speech       speech.Capability
	autoSpeak    bool
	clock        clock.Clock
	timings      Timings
	texts        Texts

	onStageChanged func(from, to Stage)
	onUpdate       func()

	transitions metric.Int64Counter

	mu          sync.Mutex
	baseContext context.Context
	closed      bool
	stage       Stage
	// generation outlives stages and is renewed on restart.
	generation  *stageLease
	lease       *stageLease
	schedule    *store.ScheduledInterview
	scheduleKey string
	result      *agents.AssessmentResult
	scheduler   *countdownScheduler
	chat        *TurnController
	assessment  *AssessmentEngine

	closeOnce sync.Once
}

func NewOrchestrator(opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		collaborator:   missingCollaborator{},
		store:          store.NewMemoryStore(),
		clock:          clock.New(),
		timings:        DefaultTimings(),
		texts:          DefaultTexts(),
		onStageChanged: func(Stage, Stage) {},
		onUpdate:       func() {},
		baseContext:    context.Background(),
		stage:          StageScheduling,
	}

	for _, opt := range opts {
		opt(o)
	}
	if o.timings.Tick <= 0 {
		o.timings.Tick = DefaultTimings().Tick
	}

	o.identity = session.NewManager(o.sessionSeed)
	o.generation = newStageLease(o.baseContext)
	o.lease = newStageLease(o.generation.ctx)

	counter, err := meter.Int64Counter("interview.stage.transitions",
		metric.WithDescription("Number of interview stage transitions"))
	if err != nil {
		logger.Warn("failed to create transition counter", "error", err)
		counter = noop.Int64Counter{}
	}
	o.transitions = counter

	return o
}

// Orchestrate binds the session to ctx and persists its identity. The
// orchestrator closes itself once ctx is done.
//
// Call Orchestrate at most once per orchestrator.
func (o *Orchestrator) Orchestrate(ctx context.Context) {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		logger.Warn("orchestrator already closed, skipping Orchestrate")
		return
	}
	o.baseContext = ctx
	o.stopStageLocked()
	o.generation.end()
	o.generation = newStageLease(ctx)
	o.enterStageLocked()
	id := o.identity.Current()
	o.mu.Unlock()

	if err := store.Save(ctx, o.store, store.KeySessionID, id.String()); err != nil {
		recordedErr := fmt.Errorf("failed to persist session id: %w", err)
		span := trace.SpanFromContext(ctx)
		span.RecordError(recordedErr)
		span.SetStatus(codes.Error, recordedErr.Error())
		logger.Warn("session id was not persisted", "error", recordedErr)
	}
	logger.Info("session started", "session_id", id.String(), "stage", o.Stage().String())

	go func() {
		<-ctx.Done()
		o.Close()
	}()
	o.onUpdate()
}

// Close stops every timer and drops in-flight work. It is safe to call more
// than once.
func (o *Orchestrator) Close() {
	o.closeOnce.Do(func() {
		o.mu.Lock()
		o.closed = true
		o.stopStageLocked()
		o.generation.end()
		o.mu.Unlock()
	})
}

func (o *Orchestrator) Stage() Stage {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.stage
}

func (o *Orchestrator) SessionID() session.ID {
	return o.identity.Current()
}

// Score is the score of the completed assessment, zero before one completes.
func (o *Orchestrator) Score() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.result == nil {
		return 0
	}
	return o.result.Score
}

func (o *Orchestrator) Result() (agents.AssessmentResult, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.result == nil {
		return agents.AssessmentResult{}, false
	}
	return *o.copyResultLocked(), true
}

func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()

	snapshot := Snapshot{
		Stage:     o.stage,
		SessionID: o.identity.Current(),
		Remaining: o.remainingLocked(),
	}
	if o.schedule != nil {
		schedule := *o.schedule
		snapshot.Schedule = &schedule
	}
	if o.result != nil {
		snapshot.Score = o.result.Score
		snapshot.Result = o.copyResultLocked()
	}
	return snapshot
}

func (o *Orchestrator) copyResultLocked() *agents.AssessmentResult {
	var result agents.AssessmentResult
	if err := copier.CopyWithOption(&result, o.result, copier.Option{DeepCopy: true}); err != nil {
		logger.Warn("failed to copy assessment result", "error", err)
		result = *o.result
	}
	return &result
}

// Remaining is the time left until the scheduled start while waiting.
func (o *Orchestrator) Remaining() time.Duration {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.remainingLocked()
}

// Chat returns the conversation of the current stage, nil when the stage has
// none.
func (o *Orchestrator) Chat() *TurnController {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.chat
}

// Assessment returns the running assessment, nil outside the assessment
// stage.
func (o *Orchestrator) Assessment() *AssessmentEngine {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.assessment
}

func (o *Orchestrator) StartNow() error {
	return o.handleUI(events.NewStartNowRequested())
}

// Schedule books the interview for timeOfDay ("HH:MM") on day, in day's
// location.
func (o *Orchestrator) Schedule(day time.Time, timeOfDay string) error {
	clockTime, err := time.Parse("15:04", timeOfDay)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, timeOfDay)
	}

	startAt := time.Date(day.Year(), day.Month(), day.Day(),
		clockTime.Hour(), clockTime.Minute(), 0, 0, day.Location())
	if !startAt.After(o.clock.Now()) {
		return fmt.Errorf("%w: %s", ErrScheduleInPast, startAt.Format(time.DateTime))
	}

	return o.handleUI(events.NewScheduleConfirmed(store.ScheduledInterview{
		StartAt:    startAt,
		ChosenDate: time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location()),
		ChosenTime: clockTime.Format("15:04"),
	}))
}

func (o *Orchestrator) EndCall() error {
	return o.handleUI(events.NewCallEnded())
}

func (o *Orchestrator) Restart() error {
	return o.handleUI(events.NewRestartRequested())
}

// Handle applies event if the current stage accepts it and reports whether
// the stage changed.
func (o *Orchestrator) Handle(event events.Event) bool {
	return o.handleFrom(nil, event)
}

func (o *Orchestrator) handleUI(event events.Event) error {
	if !o.handleFrom(nil, event) {
		return fmt.Errorf("%w: %s", ErrTransitionRejected, event.Kind())
	}
	return nil
}

// handleFrom applies event raised by work running under origin. A nil origin
// marks events coming from the candidate.
func (o *Orchestrator) handleFrom(origin *stageLease, event events.Event) bool {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return false
	}
	if origin != nil && (origin != o.lease || !origin.alive()) {
		o.mu.Unlock()
		logger.Debug("dropping event from a left stage", "kind", string(event.Kind()))
		return false
	}

	from := o.stage
	to, ok := nextStage(from, event)
	if confirmed, isSchedule := event.(events.ScheduleConfirmed); ok && isSchedule {
		ok = confirmed.Schedule.StartAt.After(o.clock.Now())
	}
	if !ok {
		o.mu.Unlock()
		logger.Debug("ignoring event", "stage", from.String(), "kind", string(event.Kind()))
		return false
	}

	o.exitStageLocked()
	o.applyEventLocked(event)
	o.stage = to
	o.enterStageLocked()
	ctx := o.baseContext
	o.mu.Unlock()

	o.transitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("stage.from", from.String()),
		attribute.String("stage.to", to.String()),
	))
	logger.Info("stage changed", "from", from.String(), "to", to.String(), "event", string(event.Kind()))
	o.onStageChanged(from, to)
	o.onUpdate()
	return true
}

// exitStageLocked saves what the left stage leaves behind and stops it.
func (o *Orchestrator) exitStageLocked() {
	if o.stage == StagePreInterviewChat && o.chat != nil {
		if err := store.Save(o.baseContext, o.store, store.KeyPreInterviewChat, o.chat.History()); err != nil {
			logger.Warn("pre-interview chat was not saved", "error", err)
		}
	}
	o.stopStageLocked()
}

func (o *Orchestrator) stopStageLocked() {
	if o.scheduler != nil {
		o.scheduler.Stop()
		o.scheduler = nil
	}
	if o.chat != nil {
		o.chat.Close()
		o.chat = nil
	}
	if o.assessment != nil {
		o.assessment.Close()
		o.assessment = nil
	}
	o.lease.end()
}

func (o *Orchestrator) applyEventLocked(event events.Event) {
	ctx := o.baseContext
	switch e := event.(type) {
	case events.ScheduleConfirmed:
		schedule := e.Schedule
		o.schedule = &schedule
		o.scheduleKey = schedule.Key()
		if err := store.Save(ctx, o.store, store.KeyScheduledInterview, schedule); err != nil {
			logger.Warn("schedule was not persisted", "error", err)
		}

	case events.StartNowRequested:
		o.schedule = nil
		o.scheduleKey = ""
		if err := o.store.Clear(ctx, store.KeyScheduledInterview); err != nil {
			logger.Warn("failed to clear schedule", "error", err)
		}

	case events.AssessmentCompleted:
		result := e.Result
		o.result = &result
		if err := store.Save(ctx, o.store, store.KeyAssessmentResult, result); err != nil {
			logger.Warn("assessment result was not persisted", "error", err)
		}

	case events.RestartRequested:
		o.result = nil
		o.schedule = nil
		o.scheduleKey = ""
		if err := store.ClearAll(ctx, o.store,
			store.KeyPreInterviewChat,
			store.KeyAssessmentResult,
			store.KeyScheduledInterview,
			store.KeyPreloadedAssessment,
		); err != nil {
			logger.Warn("failed to clear session state", "error", err)
		}

		id := o.identity.Advance()
		if err := store.Save(ctx, o.store, store.KeySessionID, id.String()); err != nil {
			logger.Warn("session id was not persisted", "error", err)
		}
		logger.Info("session restarted", "session_id", id.String())

		o.generation.end()
		o.generation = newStageLease(o.baseContext)
	}
}

// enterStageLocked starts the work the current stage runs.
func (o *Orchestrator) enterStageLocked() {
	lease := newStageLease(o.generation.ctx)
	o.lease = lease
	id := o.identity.Current()

	switch o.stage {
	case StageWaiting:
		if o.schedule == nil {
			return
		}
		generation, scheduleKey := o.generation, o.scheduleKey
		o.scheduler = newCountdownScheduler(
			o.clock,
			o.schedule.StartAt,
			o.timings,
			o.hasPreloadLocked(scheduleKey),
			func() { go o.preload(generation, id, scheduleKey) },
			func() { o.handleFrom(lease, events.NewCountdownReached()) },
		)
		o.scheduler.Start(lease.ctx)

	case StagePreInterviewChat:
		o.schedule = nil
		if err := o.store.Clear(o.baseContext, store.KeyScheduledInterview); err != nil {
			logger.Warn("failed to clear schedule", "error", err)
		}
		o.startChatLocked(lease, id, agents.ModePreInterview)

	case StageInterview:
		o.startChatLocked(lease, id, agents.ModeInterview)

	case StagePostAssessmentQnA:
		o.startChatLocked(lease, id, agents.ModePostAssessment)

	case StageAssessment:
		engine := newAssessmentEngine(assessmentEngineConfig{
			sessionID:   id,
			scheduleKey: o.scheduleKey,
			generator:   o.collaborator,
			reporter:    o.collaborator,
			store:       o.store,
			clock:       o.clock,
			timings:     o.timings,
			lease:       lease,
			complete: func(result agents.AssessmentResult) {
				o.handleFrom(lease, events.NewAssessmentCompleted(result))
			},
			notify: o.onUpdate,
		})
		o.assessment = engine
		go func() {
			if err := engine.Load(lease.ctx); err != nil {
				logger.Warn("failed to load assessment", "error", err)
			}
		}()

	case StageCompletion:
		go o.persistTranscript(context.WithoutCancel(lease.ctx), id)
	}
}

func (o *Orchestrator) startChatLocked(lease *stageLease, id session.ID, mode agents.Mode) {
	chat := newTurnController(turnControllerConfig{
		mode:      mode,
		sessionID: id,
		dialogue:  o.collaborator,
		speech:    o.speech,
		autoSpeak: o.autoSpeak,
		clock:     o.clock,
		timings:   o.timings,
		texts:     o.texts,
		lease:     lease,
		signal: func(action agents.ActionCode) {
			o.handleFrom(lease, events.NewActionSignaled(action))
		},
		notify: o.onUpdate,
	})
	o.chat = chat
	go func() {
		if err := chat.Initialize(lease.ctx); err != nil {
			logger.Warn("failed to open conversation", "mode", mode.String(), "error", err)
		}
	}()
}

func (o *Orchestrator) hasPreloadLocked(scheduleKey string) bool {
	preloaded, err := store.Load[store.PreloadedAssessment](o.baseContext, o.store, store.KeyPreloadedAssessment)
	if err != nil {
		logger.Warn("failed to read preloaded assessment", "error", err)
		return false
	}
	return preloaded != nil && preloaded.ScheduleKey == scheduleKey
}

// preload generates the assessment ahead of a scheduled start. The result is
// only stored while the session generation that asked for it is current.
func (o *Orchestrator) preload(generation *stageLease, id session.ID, scheduleKey string) {
	ctx, span := tracer.Start(generation.ctx, "preload assessment", trace.WithAttributes(
		attribute.String("session.id", id.String()),
		attribute.String("schedule.key", scheduleKey),
	))
	defer span.End()

	questions, err := o.collaborator.GenerateAssessment(ctx, id)
	if err == nil {
		err = agents.ValidateAssessment(questions)
	}
	if err != nil {
		err = fmt.Errorf("failed to preload assessment: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Warn("assessment preload failed", "error", err)
		return
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed || generation != o.generation || !generation.alive() {
		logger.Debug("discarding preload of a restarted session", "schedule_key", scheduleKey)
		return
	}
	if err := store.Save(o.baseContext, o.store, store.KeyPreloadedAssessment, store.PreloadedAssessment{
		ScheduleKey: scheduleKey,
		Questions:   questions,
		CreatedAt:   o.clock.Now(),
	}); err != nil {
		logger.Warn("preloaded assessment was not stored", "error", err)
		return
	}
	logger.Info("assessment preloaded", "schedule_key", scheduleKey, "questions", len(questions))
}

func (o *Orchestrator) persistTranscript(ctx context.Context, id session.ID) {
	ctx, span := tracer.Start(ctx, "persist transcript",
		trace.WithAttributes(attribute.String("session.id", id.String())))
	defer span.End()

	if err := o.collaborator.PersistTranscript(ctx, id); err != nil {
		err = fmt.Errorf("failed to persist transcript: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Warn("transcript was not saved", "error", err)
	}
}

func (o *Orchestrator) remainingLocked() time.Duration {
	if o.stage != StageWaiting || o.scheduler == nil {
		return 0
	}
	return o.scheduler.Remaining()
}
