package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/koscakluka/ema-interview/core/agents"
	"github.com/koscakluka/ema-interview/core/session"
)

// Control messages the backend understands in place of candidate input.
const (
	openPreInterviewMessage   = ""
	openInterviewMessage      = "INTERVIEW_STARTED"
	openPostAssessmentMessage = "QUIZ_COMPLETED"
)

type chatRequest struct {
	SessionID   string `json:"sessionId"`
	UserMessage string `json:"userMessage"`
}

type chatResponse struct {
	Response            string          `json:"response"`
	Action              json.RawMessage `json:"action"`
	ConversationHistory []wireMessage   `json:"conversation_history"`
}

type wireMessage struct {
	Sender string `json:"sender"`
	Text   string `json:"text"`
}

func (c *Client) OpenDialogue(ctx context.Context, id session.ID, mode agents.Mode) (*agents.Opening, error) {
	var userMessage string
	switch mode {
	case agents.ModePreInterview:
		userMessage = openPreInterviewMessage
	case agents.ModeInterview:
		userMessage = openInterviewMessage
	case agents.ModePostAssessment:
		userMessage = openPostAssessmentMessage
	default:
		return nil, fmt.Errorf("unsupported dialogue mode %v", mode)
	}

	var resp chatResponse
	if err := c.post(ctx, chatPath, chatRequest{SessionID: id.String(), UserMessage: userMessage}, &resp); err != nil {
		return nil, fmt.Errorf("failed to open %s dialogue: %w", mode, err)
	}

	return &agents.Opening{
		Messages: toMessages(resp.ConversationHistory),
		Reply:    resp.Response,
		Action:   parseAction(resp.Action),
	}, nil
}

func (c *Client) ContinueDialogue(ctx context.Context, id session.ID, text string) (*agents.Reply, error) {
	var resp chatResponse
	if err := c.post(ctx, chatPath, chatRequest{SessionID: id.String(), UserMessage: text}, &resp); err != nil {
		return nil, fmt.Errorf("failed to continue dialogue: %w", err)
	}
	return &agents.Reply{Text: resp.Response, Action: parseAction(resp.Action)}, nil
}

// PersistTranscript asks the backend to store the conversation so far.
func (c *Client) PersistTranscript(ctx context.Context, id session.ID) error {
	if err := c.post(ctx, saveTranscriptPath, chatRequest{SessionID: id.String()}, nil); err != nil {
		return fmt.Errorf("failed to persist transcript: %w", err)
	}
	return nil
}

// parseAction accepts a string, null or nothing; any other JSON shape is an
// unrecognized action rather than a decoding failure.
func parseAction(raw json.RawMessage) agents.ActionCode {
	if len(raw) == 0 || string(raw) == "null" {
		return agents.ActionNone
	}
	var code string
	if err := json.Unmarshal(raw, &code); err != nil {
		logger.Debug("ignoring non-string action", "action", string(raw))
		return agents.ActionUnrecognized
	}
	return agents.ParseActionCode(code)
}

func toMessages(history []wireMessage) []agents.Message {
	messages := make([]agents.Message, 0, len(history))
	now := time.Now()
	for _, msg := range history {
		switch msg.Sender {
		case "user":
			messages = append(messages, agents.NewCandidateMessage(msg.Text, now))
		case "assistant", "agent":
			messages = append(messages, agents.NewAgentMessage(msg.Text, now))
		default:
			logger.Debug("skipping history entry with unknown sender", "sender", msg.Sender)
		}
	}
	return messages
}
