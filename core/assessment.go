package orchestration

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/koscakluka/ema-interview/core/agents"
	"github.com/koscakluka/ema-interview/core/session"
	"github.com/koscakluka/ema-interview/core/store"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	ErrAssessmentNotRunning = errors.New("assessment is not running")
	ErrInvalidOption        = errors.New("option index out of range")
)

type assessmentStatus int

const (
	assessmentIdle assessmentStatus = iota
	assessmentLoading
	assessmentRunning
	assessmentFinished
)

// AssessmentSource tells where the served questions came from.
type AssessmentSource string

const (
	SourcePreloaded   AssessmentSource = "preloaded"
	SourceGenerated   AssessmentSource = "generated"
	SourcePlaceholder AssessmentSource = "placeholder"
)

// AssessmentView is a snapshot of the running assessment for display.
type AssessmentView struct {
	Loading   bool
	Finished  bool
	Source    AssessmentSource
	Index     int
	Total     int
	Question  agents.AssessmentQuestion
	Selected  int
	Remaining time.Duration
	Score     int
}

// AssessmentEngine serves a timed multiple-choice assessment and reports its
// result.
type AssessmentEngine struct {
	sessionID   session.ID
	scheduleKey string
	generator   agents.AssessmentGenerator
	reporter    agents.ResultReporter
	store       store.SessionStore
	clock       clock.Clock
	timings     Timings
	lease       *stageLease
	complete    func(agents.AssessmentResult)
	notify      func()

	mu         sync.Mutex
	status     assessmentStatus
	source     AssessmentSource
	questions  []agents.AssessmentQuestion
	selections []int
	index      int
	remaining  time.Duration
	closed     bool
	stopTimer  chan struct{}
}

type assessmentEngineConfig struct {
	sessionID session.ID
	// scheduleKey selects which preloaded assessment may be used; empty
	// means none.
	scheduleKey string
	generator   agents.AssessmentGenerator
	reporter    agents.ResultReporter
	store       store.SessionStore
	clock       clock.Clock
	timings     Timings
	lease       *stageLease
	complete    func(agents.AssessmentResult)
	notify      func()
}

func newAssessmentEngine(config assessmentEngineConfig) *AssessmentEngine {
	e := &AssessmentEngine{
		sessionID:   config.sessionID,
		scheduleKey: config.scheduleKey,
		generator:   config.generator,
		reporter:    config.reporter,
		store:       config.store,
		clock:       config.clock,
		timings:     config.timings,
		lease:       config.lease,
		complete:    config.complete,
		notify:      config.notify,
	}
	if e.complete == nil {
		e.complete = func(agents.AssessmentResult) {}
	}
	if e.notify == nil {
		e.notify = func() {}
	}
	return e
}

// Load obtains the questions and starts the first item's timer. Calls made
// while loading or after loading are no-ops.
func (e *AssessmentEngine) Load(ctx context.Context) error {
	e.mu.Lock()
	if e.status != assessmentIdle || !e.isLiveLocked() {
		e.mu.Unlock()
		return nil
	}
	e.status = assessmentLoading
	e.mu.Unlock()
	e.notify()

	ctx, span := tracer.Start(ctx, "load assessment",
		trace.WithAttributes(attribute.String("session.id", e.sessionID.String())))
	defer span.End()

	questions, source := e.resolveQuestions(ctx, span)
	span.SetAttributes(
		attribute.String("assessment.source", string(source)),
		attribute.Int("assessment.questions", len(questions)),
	)

	e.mu.Lock()
	if !e.isLiveLocked() {
		e.mu.Unlock()
		return nil
	}
	e.questions = questions
	e.source = source
	e.selections = make([]int, len(questions))
	for i := range e.selections {
		e.selections[i] = agents.NoSelection
	}
	e.index = 0
	e.remaining = e.timings.QuestionTime
	e.status = assessmentRunning
	e.startTimerLocked()
	e.mu.Unlock()

	e.notify()
	return nil
}

func (e *AssessmentEngine) resolveQuestions(ctx context.Context, span trace.Span) ([]agents.AssessmentQuestion, AssessmentSource) {
	if questions, ok := e.takePreloaded(ctx); ok {
		return questions, SourcePreloaded
	}

	questions, err := e.generator.GenerateAssessment(ctx, e.sessionID)
	if err == nil {
		err = agents.ValidateAssessment(questions)
	}
	if err != nil {
		err = fmt.Errorf("failed to obtain assessment: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Warn("serving placeholder assessment", "error", err)
		return agents.PlaceholderAssessment(), SourcePlaceholder
	}
	return questions, SourceGenerated
}

// takePreloaded consumes a stored preload. Only one generated for the
// active schedule is used; any other is discarded.
func (e *AssessmentEngine) takePreloaded(ctx context.Context) ([]agents.AssessmentQuestion, bool) {
	preloaded, err := store.Load[store.PreloadedAssessment](ctx, e.store, store.KeyPreloadedAssessment)
	if err != nil {
		logger.Warn("failed to read preloaded assessment", "error", err)
		return nil, false
	} else if preloaded == nil {
		return nil, false
	}

	if err := e.store.Clear(ctx, store.KeyPreloadedAssessment); err != nil {
		logger.Warn("failed to clear preloaded assessment", "error", err)
	}
	if e.scheduleKey == "" || preloaded.ScheduleKey != e.scheduleKey {
		logger.Debug("discarding preloaded assessment of another schedule", "schedule_key", preloaded.ScheduleKey)
		return nil, false
	}
	if err := agents.ValidateAssessment(preloaded.Questions); err != nil {
		logger.Warn("discarding invalid preloaded assessment", "error", err)
		return nil, false
	}
	return preloaded.Questions, true
}

// Select marks option as the answer to the current item.
func (e *AssessmentEngine) Select(option int) error {
	e.mu.Lock()
	if e.status != assessmentRunning || !e.isLiveLocked() {
		e.mu.Unlock()
		return ErrAssessmentNotRunning
	}
	if option < 0 || option >= len(e.questions[e.index].Options) {
		e.mu.Unlock()
		return fmt.Errorf("%w: %d", ErrInvalidOption, option)
	}
	e.selections[e.index] = option
	e.mu.Unlock()

	e.notify()
	return nil
}

// Advance records the current item and moves to the next one. Advancing
// past the last item finishes the assessment.
func (e *AssessmentEngine) Advance() error {
	e.mu.Lock()
	if e.status != assessmentRunning || !e.isLiveLocked() {
		e.mu.Unlock()
		return ErrAssessmentNotRunning
	}
	result := e.advanceLocked()
	e.mu.Unlock()

	e.afterAdvance(result)
	return nil
}

func (e *AssessmentEngine) View() AssessmentView {
	e.mu.Lock()
	defer e.mu.Unlock()

	view := AssessmentView{
		Loading:   e.status == assessmentLoading || e.status == assessmentIdle,
		Finished:  e.status == assessmentFinished,
		Source:    e.source,
		Index:     e.index,
		Total:     len(e.questions),
		Selected:  agents.NoSelection,
		Remaining: e.remaining,
		Score:     e.scoreLocked(e.index),
	}
	if e.status == assessmentRunning {
		question := e.questions[e.index]
		question.Options = slices.Clone(question.Options)
		view.Question = question
		view.Selected = e.selections[e.index]
	}
	return view
}

// Close stops the item timer. Nothing is reported for an abandoned
// assessment.
func (e *AssessmentEngine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	e.stopTimerLocked()
}

func (e *AssessmentEngine) isLiveLocked() bool {
	return !e.closed && e.lease.alive()
}

func (e *AssessmentEngine) startTimerLocked() {
	stop := make(chan struct{})
	e.stopTimer = stop
	ticker := e.clock.Ticker(e.timings.Tick)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-e.lease.ctx.Done():
				return
			case <-ticker.C:
				e.tick()
			}
		}
	}()
}

func (e *AssessmentEngine) stopTimerLocked() {
	if e.stopTimer != nil {
		close(e.stopTimer)
		e.stopTimer = nil
	}
}

// tick counts the current item's time down; running out advances.
func (e *AssessmentEngine) tick() {
	e.mu.Lock()
	if e.status != assessmentRunning || !e.isLiveLocked() {
		e.mu.Unlock()
		return
	}
	e.remaining -= e.timings.Tick
	if e.remaining > 0 {
		e.mu.Unlock()
		e.notify()
		return
	}
	logger.Debug("assessment item timed out", "index", e.index)
	result := e.advanceLocked()
	e.mu.Unlock()

	e.afterAdvance(result)
}

// advanceLocked returns the final result when the last item was advanced.
func (e *AssessmentEngine) advanceLocked() *agents.AssessmentResult {
	if e.index < len(e.questions)-1 {
		e.index++
		e.remaining = e.timings.QuestionTime
		return nil
	}

	e.status = assessmentFinished
	e.remaining = 0
	e.stopTimerLocked()
	result := e.resultLocked()
	return &result
}

func (e *AssessmentEngine) afterAdvance(result *agents.AssessmentResult) {
	e.notify()
	if result == nil {
		return
	}

	go e.report(context.WithoutCancel(e.lease.ctx), *result)
	e.complete(*result)
}

func (e *AssessmentEngine) report(ctx context.Context, result agents.AssessmentResult) {
	ctx, span := tracer.Start(ctx, "report assessment result", trace.WithAttributes(
		attribute.String("session.id", e.sessionID.String()),
		attribute.Int("assessment.score", result.Score),
		attribute.Int("assessment.total", result.TotalQuestions),
	))
	defer span.End()

	if err := e.reporter.ReportAssessmentResult(ctx, e.sessionID, result); err != nil {
		err = fmt.Errorf("failed to report assessment result: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Warn("assessment result was not saved", "error", err)
	}
}

// scoreLocked counts correct answers among the first n items.
func (e *AssessmentEngine) scoreLocked(n int) int {
	score := 0
	for i := 0; i < n && i < len(e.questions); i++ {
		if e.selections[i] == e.questions[i].CorrectOptionIndex {
			score++
		}
	}
	return score
}

func (e *AssessmentEngine) resultLocked() agents.AssessmentResult {
	result := agents.AssessmentResult{
		Score:          e.scoreLocked(len(e.questions)),
		TotalQuestions: len(e.questions),
		PerQuestion:    make([]agents.QuestionResult, 0, len(e.questions)),
	}
	for i, question := range e.questions {
		result.PerQuestion = append(result.PerQuestion, agents.QuestionResult{
			Question:      question.Prompt,
			Options:       slices.Clone(question.Options),
			SelectedIndex: e.selections[i],
			CorrectIndex:  question.CorrectOptionIndex,
			IsCorrect:     e.selections[i] == question.CorrectOptionIndex,
		})
	}
	return result
}
