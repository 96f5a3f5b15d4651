package agents

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyAssessment   = errors.New("assessment has no questions")
	ErrEmptyPrompt       = errors.New("question prompt is empty")
	ErrTooFewOptions     = errors.New("question needs at least two options")
	ErrCorrectOutOfRange = errors.New("correct option index out of range")
)

// AssessmentQuestion is a single multiple-choice item.
type AssessmentQuestion struct {
	Prompt             string   `json:"prompt"`
	Options            []string `json:"options"`
	CorrectOptionIndex int      `json:"correctOptionIndex"`
}

func (q AssessmentQuestion) Validate() error {
	if q.Prompt == "" {
		return ErrEmptyPrompt
	}
	if len(q.Options) < 2 {
		return ErrTooFewOptions
	}
	if q.CorrectOptionIndex < 0 || q.CorrectOptionIndex >= len(q.Options) {
		return fmt.Errorf("%w: %d of %d", ErrCorrectOutOfRange, q.CorrectOptionIndex, len(q.Options))
	}
	return nil
}

// ValidateAssessment requires a non-empty list of valid questions.
func ValidateAssessment(questions []AssessmentQuestion) error {
	if len(questions) == 0 {
		return ErrEmptyAssessment
	}
	for i, question := range questions {
		if err := question.Validate(); err != nil {
			return fmt.Errorf("question %d: %w", i+1, err)
		}
	}
	return nil
}

// PlaceholderAssessment is served when no generated assessment is usable.
func PlaceholderAssessment() []AssessmentQuestion {
	return []AssessmentQuestion{{
		Prompt:             "Dijital pazarlama kampanyalarında en önemli metrik hangisidir?",
		Options:            []string{"CTR", "ROI", "Impression", "Reach"},
		CorrectOptionIndex: 1,
	}}
}

// NoSelection marks a question advanced past without an answer.
const NoSelection = -1

type QuestionResult struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	SelectedIndex int      `json:"selectedAnswer"`
	CorrectIndex  int      `json:"correctAnswer"`
	IsCorrect     bool     `json:"isCorrect"`
}

type AssessmentResult struct {
	Score          int              `json:"score"`
	TotalQuestions int              `json:"totalQuestions"`
	PerQuestion    []QuestionResult `json:"results"`
}

// Percentage is the score share rounded to two decimals.
func (r AssessmentResult) Percentage() float64 {
	if r.TotalQuestions == 0 {
		return 0
	}
	return float64(r.Score*10000/r.TotalQuestions) / 100
}
