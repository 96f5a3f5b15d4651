package orchestration

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/koscakluka/ema-interview/core/agents"
	"github.com/koscakluka/ema-interview/core/session"
	"github.com/koscakluka/ema-interview/core/store"
)

type engineFixture struct {
	engine    *AssessmentEngine
	store     *store.MemoryStore
	lease     *stageLease
	completed chan agents.AssessmentResult
}

func newEngineFixture(t *testing.T, collaborator *stubCollaborator, scheduleKey string) *engineFixture {
	t.Helper()
	lease := newStageLease(context.Background())
	t.Cleanup(lease.end)

	timings := DefaultTimings()
	timings.QuestionTime = 3 * time.Second

	f := &engineFixture{
		store:     store.NewMemoryStore(),
		lease:     lease,
		completed: make(chan agents.AssessmentResult, 1),
	}
	f.engine = newAssessmentEngine(assessmentEngineConfig{
		sessionID:   session.DefaultID,
		scheduleKey: scheduleKey,
		generator:   collaborator,
		reporter:    collaborator,
		store:       f.store,
		clock:       newMockClock(),
		timings:     timings,
		lease:       lease,
		complete:    func(result agents.AssessmentResult) { f.completed <- result },
	})
	t.Cleanup(f.engine.Close)
	return f
}

func (f *engineFixture) load(t *testing.T) {
	t.Helper()
	if err := f.engine.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
}

func (f *engineFixture) awaitResult(t *testing.T) agents.AssessmentResult {
	t.Helper()
	select {
	case result := <-f.completed:
		return result
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for assessment completion")
	}
	return agents.AssessmentResult{}
}

func TestLoadUsesGenerator(t *testing.T) {
	collaborator := &stubCollaborator{}
	f := newEngineFixture(t, collaborator, "")

	if view := f.engine.View(); !view.Loading {
		t.Fatalf("expected engine to report loading before Load")
	}
	f.load(t)

	view := f.engine.View()
	if view.Loading || view.Source != SourceGenerated || view.Total != 2 || view.Index != 0 {
		t.Fatalf("unexpected view %+v", view)
	}
	if view.Question.Prompt != "first" || view.Selected != agents.NoSelection || view.Remaining != 3*time.Second {
		t.Fatalf("unexpected first item %+v", view)
	}
}

func TestLoadConsumesMatchingPreload(t *testing.T) {
	collaborator := &stubCollaborator{}
	f := newEngineFixture(t, collaborator, "2026-10-19T09:10:00Z")
	preloaded := []agents.AssessmentQuestion{{Prompt: "preloaded", Options: []string{"x", "y"}, CorrectOptionIndex: 1}}
	if err := store.Save(context.Background(), f.store, store.KeyPreloadedAssessment, store.PreloadedAssessment{
		ScheduleKey: "2026-10-19T09:10:00Z",
		Questions:   preloaded,
	}); err != nil {
		t.Fatalf("save: %v", err)
	}

	f.load(t)

	view := f.engine.View()
	if view.Source != SourcePreloaded || view.Question.Prompt != "preloaded" {
		t.Fatalf("expected preloaded questions, got %+v", view)
	}
	if collaborator.generatedCount() != 0 {
		t.Fatalf("expected generator not to be called")
	}
	if _, err := f.store.Get(context.Background(), store.KeyPreloadedAssessment); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected preload to be consumed, got %v", err)
	}
}

func TestLoadDiscardsPreloadOfAnotherSchedule(t *testing.T) {
	collaborator := &stubCollaborator{}
	f := newEngineFixture(t, collaborator, "2026-10-19T14:00:00Z")
	if err := store.Save(context.Background(), f.store, store.KeyPreloadedAssessment, store.PreloadedAssessment{
		ScheduleKey: "2026-10-18T14:00:00Z",
		Questions:   agents.PlaceholderAssessment(),
	}); err != nil {
		t.Fatalf("save: %v", err)
	}

	f.load(t)

	if view := f.engine.View(); view.Source != SourceGenerated {
		t.Fatalf("expected generated questions, got %s", view.Source)
	}
	if _, err := f.store.Get(context.Background(), store.KeyPreloadedAssessment); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected stale preload to be cleared, got %v", err)
	}
}

func TestLoadFallsBackToPlaceholder(t *testing.T) {
	tests := []struct {
		name     string
		generate func(context.Context) ([]agents.AssessmentQuestion, error)
	}{
		{"generator error", func(context.Context) ([]agents.AssessmentQuestion, error) {
			return nil, errors.New("backend down")
		}},
		{"empty payload", func(context.Context) ([]agents.AssessmentQuestion, error) {
			return nil, nil
		}},
		{"invalid item", func(context.Context) ([]agents.AssessmentQuestion, error) {
			return []agents.AssessmentQuestion{{Prompt: "q", Options: []string{"a", "b"}, CorrectOptionIndex: 5}}, nil
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newEngineFixture(t, &stubCollaborator{generate: tt.generate}, "")
			f.load(t)

			view := f.engine.View()
			if view.Source != SourcePlaceholder || view.Total != 1 {
				t.Fatalf("expected placeholder assessment, got %+v", view)
			}
			if view.Question.Prompt != agents.PlaceholderAssessment()[0].Prompt {
				t.Fatalf("unexpected placeholder prompt %q", view.Question.Prompt)
			}
		})
	}
}

func TestSelectValidatesState(t *testing.T) {
	f := newEngineFixture(t, &stubCollaborator{}, "")

	if err := f.engine.Select(0); !errors.Is(err, ErrAssessmentNotRunning) {
		t.Fatalf("expected ErrAssessmentNotRunning before load, got %v", err)
	}
	f.load(t)
	if err := f.engine.Select(4); !errors.Is(err, ErrInvalidOption) {
		t.Fatalf("expected ErrInvalidOption, got %v", err)
	}
	if err := f.engine.Select(-1); !errors.Is(err, ErrInvalidOption) {
		t.Fatalf("expected ErrInvalidOption, got %v", err)
	}
	if err := f.engine.Select(3); err != nil {
		t.Fatalf("select: %v", err)
	}
	if view := f.engine.View(); view.Selected != 3 {
		t.Fatalf("expected selection 3, got %d", view.Selected)
	}
}

func TestAdvanceThroughAssessmentBuildsResult(t *testing.T) {
	collaborator := &stubCollaborator{}
	f := newEngineFixture(t, collaborator, "")
	f.load(t)

	if err := f.engine.Select(2); err != nil {
		t.Fatalf("select: %v", err)
	}
	if err := f.engine.Advance(); err != nil {
		t.Fatalf("advance: %v", err)
	}
	if view := f.engine.View(); view.Index != 1 || view.Score != 1 || view.Remaining != 3*time.Second {
		t.Fatalf("unexpected view after first item %+v", view)
	}
	if err := f.engine.Advance(); err != nil {
		t.Fatalf("advance: %v", err)
	}

	result := f.awaitResult(t)
	if result.Score != 1 || result.TotalQuestions != 2 || len(result.PerQuestion) != 2 {
		t.Fatalf("unexpected result %+v", result)
	}
	if !result.PerQuestion[0].IsCorrect || result.PerQuestion[0].SelectedIndex != 2 {
		t.Fatalf("unexpected first record %+v", result.PerQuestion[0])
	}
	if result.PerQuestion[1].IsCorrect || result.PerQuestion[1].SelectedIndex != agents.NoSelection {
		t.Fatalf("expected unanswered item to be incorrect, got %+v", result.PerQuestion[1])
	}
	if result.Percentage() != 50 {
		t.Fatalf("expected 50%%, got %v", result.Percentage())
	}

	eventually(t, "result report", func() bool { return len(collaborator.reportedResults()) == 1 })
	if err := f.engine.Advance(); !errors.Is(err, ErrAssessmentNotRunning) {
		t.Fatalf("expected ErrAssessmentNotRunning after finishing, got %v", err)
	}
	if view := f.engine.View(); !view.Finished {
		t.Fatalf("expected finished view")
	}
}

func TestReportFailureStillCompletes(t *testing.T) {
	collaborator := &stubCollaborator{
		generate:  func(context.Context) ([]agents.AssessmentQuestion, error) { return testQuestions[:1], nil },
		reportErr: errors.New("save failed"),
	}
	f := newEngineFixture(t, collaborator, "")
	f.load(t)

	_ = f.engine.Advance()
	if result := f.awaitResult(t); result.TotalQuestions != 1 {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestTimerExpiryAdvances(t *testing.T) {
	f := newEngineFixture(t, &stubCollaborator{}, "")
	f.load(t)

	f.engine.tick()
	f.engine.tick()
	if view := f.engine.View(); view.Index != 0 || view.Remaining != time.Second {
		t.Fatalf("unexpected view after two ticks %+v", view)
	}
	f.engine.tick()
	if view := f.engine.View(); view.Index != 1 || view.Remaining != 3*time.Second {
		t.Fatalf("expected expiry to advance, got %+v", view)
	}

	for range 3 {
		f.engine.tick()
	}
	if result := f.awaitResult(t); result.Score != 0 || result.TotalQuestions != 2 {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestClosedEngineReportsNothing(t *testing.T) {
	collaborator := &stubCollaborator{}
	f := newEngineFixture(t, collaborator, "")
	f.load(t)

	f.engine.Close()
	f.engine.tick()
	if err := f.engine.Advance(); !errors.Is(err, ErrAssessmentNotRunning) {
		t.Fatalf("expected ErrAssessmentNotRunning, got %v", err)
	}
	never(t, "report after close", func() bool { return len(collaborator.reportedResults()) > 0 })
}
