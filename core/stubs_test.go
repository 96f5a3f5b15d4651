package orchestration

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/koscakluka/ema-interview/core/agents"
	"github.com/koscakluka/ema-interview/core/session"
)

var testQuestions = []agents.AssessmentQuestion{
	{Prompt: "first", Options: []string{"a", "b", "c", "d"}, CorrectOptionIndex: 2},
	{Prompt: "second", Options: []string{"a", "b"}, CorrectOptionIndex: 0},
}

type stubCollaborator struct {
	open      func(ctx context.Context, mode agents.Mode) (*agents.Opening, error)
	reply     func(ctx context.Context, text string) (*agents.Reply, error)
	generate  func(ctx context.Context) ([]agents.AssessmentQuestion, error)
	reportErr error

	mu        sync.Mutex
	opened    []agents.Mode
	sent      []string
	generated int
	reported  []agents.AssessmentResult
	persisted []session.ID
}

func (s *stubCollaborator) OpenDialogue(ctx context.Context, _ session.ID, mode agents.Mode) (*agents.Opening, error) {
	s.mu.Lock()
	s.opened = append(s.opened, mode)
	s.mu.Unlock()
	if s.open != nil {
		return s.open(ctx, mode)
	}
	return &agents.Opening{Reply: "hello " + mode.String()}, nil
}

func (s *stubCollaborator) ContinueDialogue(ctx context.Context, _ session.ID, text string) (*agents.Reply, error) {
	s.mu.Lock()
	s.sent = append(s.sent, text)
	s.mu.Unlock()
	if s.reply != nil {
		return s.reply(ctx, text)
	}
	return &agents.Reply{Text: "noted"}, nil
}

func (s *stubCollaborator) GenerateAssessment(ctx context.Context, _ session.ID) ([]agents.AssessmentQuestion, error) {
	s.mu.Lock()
	s.generated++
	s.mu.Unlock()
	if s.generate != nil {
		return s.generate(ctx)
	}
	return testQuestions, nil
}

func (s *stubCollaborator) ReportAssessmentResult(_ context.Context, _ session.ID, result agents.AssessmentResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reported = append(s.reported, result)
	return s.reportErr
}

func (s *stubCollaborator) PersistTranscript(_ context.Context, id session.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.persisted = append(s.persisted, id)
	return nil
}

func (s *stubCollaborator) openedModes() []agents.Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]agents.Mode(nil), s.opened...)
}

func (s *stubCollaborator) generatedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generated
}

func (s *stubCollaborator) reportedResults() []agents.AssessmentResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]agents.AssessmentResult(nil), s.reported...)
}

func (s *stubCollaborator) persistedIDs() []session.ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]session.ID(nil), s.persisted...)
}

type recordingSpeaker struct {
	mu     sync.Mutex
	spoken []string
}

func (s *recordingSpeaker) Speak(_ context.Context, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.spoken = append(s.spoken, text)
	return nil
}

func (s *recordingSpeaker) texts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.spoken...)
}

func eventually(t *testing.T, description string, condition func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", description)
}

func never(t *testing.T, description string, condition func() bool) {
	t.Helper()
	deadline := time.Now().Add(100 * time.Millisecond)
	for time.Now().Before(deadline) {
		if condition() {
			t.Fatalf("unexpected %s", description)
		}
		time.Sleep(5 * time.Millisecond)
	}
}
