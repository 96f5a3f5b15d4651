package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/koscakluka/ema-interview/core/agents"
	"github.com/koscakluka/ema-interview/core/session"
)

type quizRequest struct {
	SessionID string `json:"sessionId"`
}

type quizItem struct {
	Question           string   `json:"question"`
	Options            []string `json:"options"`
	CorrectAnswerIndex int      `json:"correctAnswerIndex"`
	Time               int      `json:"time,omitempty"`
}

func (c *Client) GenerateAssessment(ctx context.Context, id session.ID) ([]agents.AssessmentQuestion, error) {
	var raw json.RawMessage
	if err := c.post(ctx, quizPath, quizRequest{SessionID: id.String()}, &raw); err != nil {
		return nil, fmt.Errorf("failed to generate assessment: %w", err)
	}

	items, err := decodeQuizItems(raw)
	if err != nil {
		return nil, err
	}

	questions := make([]agents.AssessmentQuestion, 0, len(items))
	for _, item := range items {
		questions = append(questions, agents.AssessmentQuestion{
			Prompt:             item.Question,
			Options:            item.Options,
			CorrectOptionIndex: item.CorrectAnswerIndex,
		})
	}
	if err := agents.ValidateAssessment(questions); err != nil {
		return nil, fmt.Errorf("invalid generated assessment: %w", err)
	}
	return questions, nil
}

// decodeQuizItems accepts a bare list or an object wrapping it in
// "questions".
func decodeQuizItems(raw json.RawMessage) ([]quizItem, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '{' {
		var wrapped struct {
			Questions []quizItem `json:"questions"`
		}
		if err := json.Unmarshal(raw, &wrapped); err != nil {
			return nil, fmt.Errorf("malformed assessment payload: %w", err)
		}
		return wrapped.Questions, nil
	}

	var items []quizItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("malformed assessment payload: %w", err)
	}
	return items, nil
}

type saveResultRequest struct {
	SessionID      string                  `json:"sessionId"`
	Score          int                     `json:"score"`
	TotalQuestions int                     `json:"totalQuestions"`
	Results        []agents.QuestionResult `json:"results"`
}

func (c *Client) ReportAssessmentResult(ctx context.Context, id session.ID, result agents.AssessmentResult) error {
	req := saveResultRequest{
		SessionID:      id.String(),
		Score:          result.Score,
		TotalQuestions: result.TotalQuestions,
		Results:        result.PerQuestion,
	}
	if err := c.post(ctx, saveQuizResultPath, req, nil); err != nil {
		return fmt.Errorf("failed to report assessment result: %w", err)
	}
	return nil
}
