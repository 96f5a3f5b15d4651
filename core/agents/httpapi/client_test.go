package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/koscakluka/ema-interview/core/agents"
	"github.com/koscakluka/ema-interview/core/session"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...ClientOption) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(server.URL+"/", opts...)
}

func decodeChatRequest(t *testing.T, r *http.Request) chatRequest {
	t.Helper()

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		t.Errorf("decode request: %v", err)
	}
	return req
}

func TestOpenDialogueSendsModeControlMessage(t *testing.T) {
	testCases := []struct {
		mode     agents.Mode
		expected string
	}{
		{mode: agents.ModePreInterview, expected: ""},
		{mode: agents.ModeInterview, expected: "INTERVIEW_STARTED"},
		{mode: agents.ModePostAssessment, expected: "QUIZ_COMPLETED"},
	}

	for _, testCase := range testCases {
		t.Run(testCase.mode.String(), func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != chatPath || r.Method != http.MethodPost {
					t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
				}
				req := decodeChatRequest(t, r)
				if req.UserMessage != testCase.expected {
					t.Errorf("expected user message %q, got %q", testCase.expected, req.UserMessage)
				}
				if req.SessionID != "00001-00002" {
					t.Errorf("expected session id, got %q", req.SessionID)
				}
				_, _ = w.Write([]byte(`{"response":"Merhaba","action":null}`))
			})

			opening, err := client.OpenDialogue(context.Background(), "00001-00002", testCase.mode)
			if err != nil {
				t.Fatalf("open dialogue: %v", err)
			}
			if opening.Reply != "Merhaba" || opening.Action != agents.ActionNone {
				t.Fatalf("unexpected opening %+v", opening)
			}
		})
	}
}

func TestOpenDialogueMapsHistory(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"response": "son",
			"action": "START_INTERVIEW",
			"conversation_history": [
				{"sender": "assistant", "text": "Merhaba"},
				{"sender": "user", "text": "Selam"},
				{"sender": "system", "text": "gizli"}
			]
		}`))
	})

	opening, err := client.OpenDialogue(context.Background(), session.DefaultID, agents.ModePreInterview)
	if err != nil {
		t.Fatalf("open dialogue: %v", err)
	}
	if len(opening.Messages) != 2 {
		t.Fatalf("expected unknown senders to be skipped, got %+v", opening.Messages)
	}
	if opening.Messages[0].Speaker != agents.SpeakerAgent || opening.Messages[1].Speaker != agents.SpeakerCandidate {
		t.Fatalf("unexpected speakers %+v", opening.Messages)
	}
	if opening.Messages[0].ID == "" || opening.Messages[0].ID == opening.Messages[1].ID {
		t.Fatalf("expected distinct message ids")
	}
	if opening.Action != agents.ActionStartInterview {
		t.Fatalf("expected START_INTERVIEW, got %v", opening.Action)
	}
}

func TestContinueDialogueToleratesOddActions(t *testing.T) {
	testCases := []struct {
		name     string
		body     string
		expected agents.ActionCode
	}{
		{name: "missing", body: `{"response":"ok"}`, expected: agents.ActionNone},
		{name: "empty string", body: `{"response":"ok","action":""}`, expected: agents.ActionNone},
		{name: "known", body: `{"response":"ok","action":"FINISH_INTERVIEW"}`, expected: agents.ActionFinishInterview},
		{name: "unknown", body: `{"response":"ok","action":"JUMP"}`, expected: agents.ActionUnrecognized},
		{name: "number", body: `{"response":"ok","action":3}`, expected: agents.ActionUnrecognized},
		{name: "object", body: `{"response":"ok","action":{"code":"START_QUIZ"}}`, expected: agents.ActionUnrecognized},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if req := decodeChatRequest(t, r); req.UserMessage != "Sorum var" {
					t.Errorf("expected candidate text, got %q", req.UserMessage)
				}
				_, _ = w.Write([]byte(testCase.body))
			})

			reply, err := client.ContinueDialogue(context.Background(), session.DefaultID, "Sorum var")
			if err != nil {
				t.Fatalf("continue dialogue: %v", err)
			}
			if reply.Text != "ok" || reply.Action != testCase.expected {
				t.Fatalf("expected %v, got %+v", testCase.expected, reply)
			}
		})
	}
}

func TestNonOKStatusIsAnError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	_, err := client.ContinueDialogue(context.Background(), session.DefaultID, "merhaba")
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if statusErr.StatusCode != http.StatusInternalServerError || statusErr.Body != "boom" {
		t.Fatalf("unexpected status error %+v", statusErr)
	}
}

func TestGenerateAssessmentAcceptsListAndWrappedPayloads(t *testing.T) {
	item := `{"question":"Hangisi?","options":["A","B","C","D"],"correctAnswerIndex":2,"time":60}`
	for name, body := range map[string]string{
		"list":    "[" + item + "]",
		"wrapped": `{"questions":[` + item + `]}`,
	} {
		t.Run(name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != quizPath {
					t.Errorf("unexpected path %s", r.URL.Path)
				}
				_, _ = w.Write([]byte(body))
			})

			questions, err := client.GenerateAssessment(context.Background(), session.DefaultID)
			if err != nil {
				t.Fatalf("generate assessment: %v", err)
			}
			if len(questions) != 1 || questions[0].Prompt != "Hangisi?" || questions[0].CorrectOptionIndex != 2 {
				t.Fatalf("unexpected questions %+v", questions)
			}
		})
	}
}

func TestGenerateAssessmentRejectsInvalidPayloads(t *testing.T) {
	for name, body := range map[string]string{
		"empty":       `[]`,
		"bad index":   `[{"question":"q","options":["a","b"],"correctAnswerIndex":5}]`,
		"not json":    `<html>`,
		"one option":  `[{"question":"q","options":["a"],"correctAnswerIndex":0}]`,
		"wrong shape": `"questions"`,
	} {
		t.Run(name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(body))
			})

			if _, err := client.GenerateAssessment(context.Background(), session.DefaultID); err == nil {
				t.Fatalf("expected error for %s payload", name)
			}
		})
	}
}

func TestReportAssessmentResultPayload(t *testing.T) {
	received := make(chan map[string]any, 1)
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != saveQuizResultPath {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		received <- body
		_, _ = w.Write([]byte(`{"status":"success"}`))
	})

	result := agents.AssessmentResult{
		Score:          1,
		TotalQuestions: 2,
		PerQuestion: []agents.QuestionResult{
			{Question: "q1", Options: []string{"a", "b"}, SelectedIndex: 1, CorrectIndex: 1, IsCorrect: true},
			{Question: "q2", Options: []string{"a", "b"}, SelectedIndex: agents.NoSelection, CorrectIndex: 0},
		},
	}
	if err := client.ReportAssessmentResult(context.Background(), session.DefaultID, result); err != nil {
		t.Fatalf("report: %v", err)
	}

	body := <-received
	if body["sessionId"] != "00001-00001" || body["score"] != float64(1) || body["totalQuestions"] != float64(2) {
		t.Fatalf("unexpected payload %+v", body)
	}
	results, ok := body["results"].([]any)
	if !ok || len(results) != 2 {
		t.Fatalf("expected two per-question results, got %+v", body["results"])
	}
	second := results[1].(map[string]any)
	if second["selectedAnswer"] != float64(-1) || second["isCorrect"] != false {
		t.Fatalf("unexpected unanswered result %+v", second)
	}
}

func TestPersistTranscriptAndHealth(t *testing.T) {
	paths := make(chan string, 2)
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		paths <- r.Method + " " + r.URL.Path
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if err := client.PersistTranscript(context.Background(), session.DefaultID); err != nil {
		t.Fatalf("persist transcript: %v", err)
	}
	if err := client.Health(context.Background()); err != nil {
		t.Fatalf("health: %v", err)
	}

	if got := <-paths; got != "POST "+saveTranscriptPath {
		t.Fatalf("unexpected first request %q", got)
	}
	if got := <-paths; got != "GET "+healthPath {
		t.Fatalf("unexpected second request %q", got)
	}
}

func TestRequestTimeout(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}, WithRequestTimeout(50*time.Millisecond))

	start := time.Now()
	if _, err := client.ContinueDialogue(context.Background(), session.DefaultID, "merhaba"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if time.Since(start) > 2*time.Second {
		t.Fatalf("expected request to be bounded by the timeout")
	}
}
