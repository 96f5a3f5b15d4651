// Package store persists the local session state that survives navigation
// between stages.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

type Key string

const (
	KeySessionID           Key = "sessionId"
	KeyScheduledInterview  Key = "scheduledInterview"
	KeyPreloadedAssessment Key = "preloadedQuiz"
	KeyAssessmentResult    Key = "quizResults"
	KeyPreInterviewChat    Key = "preInterviewChat"
)

var ErrNotFound = errors.New("key not found")

// SessionStore holds JSON encoded values by key.
type SessionStore interface {
	Get(ctx context.Context, key Key) ([]byte, error)
	Set(ctx context.Context, key Key, value []byte) error
	Clear(ctx context.Context, key Key) error
}

// Load decodes the value stored under key. A missing key yields nil without
// an error.
func Load[T any](ctx context.Context, s SessionStore, key Key) (*T, error) {
	raw, err := s.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}

	var value T
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return &value, nil
}

func Save[T any](ctx context.Context, s SessionStore, key Key, value T) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := s.Set(ctx, key, raw); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// ClearAll clears every key, returning the joined errors.
func ClearAll(ctx context.Context, s SessionStore, keys ...Key) error {
	var errs []error
	for _, key := range keys {
		if err := s.Clear(ctx, key); err != nil {
			errs = append(errs, fmt.Errorf("failed to clear %s: %w", key, err))
		}
	}
	return errors.Join(errs...)
}
