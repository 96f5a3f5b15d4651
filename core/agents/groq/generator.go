// Package groq generates interview assessments with a Groq hosted model.
package groq

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/koscakluka/ema-interview/core/agents"
	"github.com/koscakluka/ema-interview/core/session"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	DefaultModel          = "openai/gpt-oss-120b"
	DefaultQuestionCount  = 10
	apiKeyEnvVariable     = "GROQ_API_KEY"
	assessmentInstruction = `You are an HR hiring expert who writes interview assessments.
Identify the key skills the role requires from the job description and the
prepared questions and answers. Write multiple-choice questions grounded in
the Big Five personality traits that are relevant to the role.
Every question has exactly four options labelled A, B, C and D in that order,
the options are close enough to make the choice challenging, and
correct_answer is the letter of the best option.
All questions and options must be written in Turkish.`
)

// AssessmentGenerator implements agents.AssessmentGenerator.
type AssessmentGenerator struct {
	apiKey        string
	model         string
	url           string
	httpClient    *http.Client
	jobAd         string
	qna           string
	questionCount int
}

type Option func(*AssessmentGenerator)

func WithModel(model string) Option {
	return func(g *AssessmentGenerator) { g.model = model }
}

// WithJobContext provides the job advertisement and the prepared questions
// and answers the assessment is based on.
func WithJobContext(jobAd, qna string) Option {
	return func(g *AssessmentGenerator) {
		g.jobAd = jobAd
		g.qna = qna
	}
}

func WithQuestionCount(count int) Option {
	return func(g *AssessmentGenerator) { g.questionCount = count }
}

func WithURL(url string) Option {
	return func(g *AssessmentGenerator) { g.url = url }
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(g *AssessmentGenerator) { g.httpClient = httpClient }
}

// NewAssessmentGenerator uses GROQ_API_KEY when apiKey is empty.
func NewAssessmentGenerator(apiKey string, opts ...Option) (*AssessmentGenerator, error) {
	if apiKey == "" {
		apiKey = os.Getenv(apiKeyEnvVariable)
	}
	if apiKey == "" {
		return nil, fmt.Errorf("groq api key not found")
	}

	generator := &AssessmentGenerator{
		apiKey:        apiKey,
		model:         DefaultModel,
		url:           DefaultURL,
		httpClient:    &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
		questionCount: DefaultQuestionCount,
	}
	for _, opt := range opts {
		opt(generator)
	}
	return generator, nil
}

type assessmentPayload struct {
	Questions []assessmentItem `json:"questions" jsonschema:"description=The assessment questions in order"`
}

type assessmentItem struct {
	Question      string   `json:"question" jsonschema:"description=The question text in Turkish"`
	Options       []string `json:"options" jsonschema:"description=Four answer options in A B C D order"`
	CorrectAnswer string   `json:"correct_answer" jsonschema:"enum=A,enum=B,enum=C,enum=D"`
}

func (g *AssessmentGenerator) GenerateAssessment(ctx context.Context, id session.ID) ([]agents.AssessmentQuestion, error) {
	logger.Debug("generating assessment", "session_id", id.String(), "model", g.model)

	payload, err := promptJSONSchema[assessmentPayload](ctx, structuredRequest{
		httpClient:   g.httpClient,
		url:          g.url,
		apiKey:       g.apiKey,
		model:        g.model,
		prompt:       g.prompt(),
		systemPrompt: assessmentInstruction,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate assessment: %w", err)
	}

	questions := make([]agents.AssessmentQuestion, 0, len(payload.Questions))
	for _, item := range payload.Questions {
		questions = append(questions, agents.AssessmentQuestion{
			Prompt:             strings.TrimSpace(item.Question),
			Options:            item.Options,
			CorrectOptionIndex: letterIndex(item.CorrectAnswer),
		})
	}
	if err := agents.ValidateAssessment(questions); err != nil {
		return nil, fmt.Errorf("invalid generated assessment: %w", err)
	}
	return questions, nil
}

func (g *AssessmentGenerator) prompt() string {
	var prompt strings.Builder
	fmt.Fprintf(&prompt, "Write exactly %d questions.\n", g.questionCount)
	if g.qna != "" {
		fmt.Fprintf(&prompt, "\n<q&a>\n%s\n</q&a>\n", g.qna)
	}
	if g.jobAd != "" {
		fmt.Fprintf(&prompt, "\n<job_ad>\n%s\n</job_ad>\n", g.jobAd)
	}
	return prompt.String()
}

// letterIndex maps A-D to 0-3. Anything else points at the first option.
func letterIndex(letter string) int {
	switch strings.ToUpper(strings.TrimSpace(letter)) {
	case "B":
		return 1
	case "C":
		return 2
	case "D":
		return 3
	default:
		return 0
	}
}
