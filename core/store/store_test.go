package store

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestLoadMissingKeyIsNil(t *testing.T) {
	value, err := Load[ScheduledInterview](context.Background(), NewMemoryStore(), KeyScheduledInterview)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if value != nil {
		t.Fatalf("expected nil value, got %+v", value)
	}
}

func TestLoadCorruptValueFails(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	_ = s.Set(ctx, KeyScheduledInterview, []byte("{"))

	if _, err := Load[ScheduledInterview](ctx, s, KeyScheduledInterview); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestSaveAndLoadSchedule(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	startAt := time.Date(2026, 10, 20, 10, 30, 0, 0, time.UTC)
	schedule := ScheduledInterview{StartAt: startAt, ChosenDate: startAt.Truncate(24 * time.Hour), ChosenTime: "10:30"}

	if err := Save(ctx, s, KeyScheduledInterview, schedule); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := Load[ScheduledInterview](ctx, s, KeyScheduledInterview)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Key() != schedule.Key() {
		t.Fatalf("expected key %q, got %q", schedule.Key(), loaded.Key())
	}
	if loaded.ChosenTime != "10:30" {
		t.Fatalf("expected chosen time to survive, got %q", loaded.ChosenTime)
	}
}

func TestScheduleKeyIsZoneIndependent(t *testing.T) {
	istanbul := time.FixedZone("TRT", 3*60*60)
	local := ScheduledInterview{StartAt: time.Date(2026, 10, 20, 13, 0, 0, 0, istanbul)}
	utc := ScheduledInterview{StartAt: time.Date(2026, 10, 20, 10, 0, 0, 0, time.UTC)}

	if local.Key() != utc.Key() {
		t.Fatalf("expected equal keys, got %q and %q", local.Key(), utc.Key())
	}
}

func TestMemoryStoreCopiesValues(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	raw := []byte(`"a"`)
	_ = s.Set(ctx, KeySessionID, raw)
	raw[1] = 'b'

	got, _ := s.Get(ctx, KeySessionID)
	if string(got) != `"a"` {
		t.Fatalf("expected stored value to be isolated from caller, got %s", got)
	}
}

func TestClearAll(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	_ = s.Set(ctx, KeyAssessmentResult, []byte("{}"))
	_ = s.Set(ctx, KeyPreInterviewChat, []byte("[]"))

	if err := ClearAll(ctx, s, KeyAssessmentResult, KeyPreInterviewChat, KeyScheduledInterview); err != nil {
		t.Fatalf("clear all: %v", err)
	}
	for _, key := range []Key{KeyAssessmentResult, KeyPreInterviewChat} {
		if _, err := s.Get(ctx, key); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected %s cleared, got %v", key, err)
		}
	}
}
