package groq

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/invopop/jsonschema"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const DefaultURL = "https://api.groq.com/openai/v1/chat/completions"

var ErrEmptyCompletion = errors.New("completion has no choices")

type structuredRequest struct {
	httpClient   *http.Client
	url          string
	apiKey       string
	model        string
	prompt       string
	systemPrompt string
}

// promptJSONSchema asks the model for a response matching the schema
// reflected from T and decodes it.
func promptJSONSchema[T any](ctx context.Context, request structuredRequest) (*T, error) {
	ctx, span := tracer.Start(ctx, "prompt llm structured")
	defer span.End()

	output, err := doPromptJSONSchema[T](ctx, request, span.SetAttributes)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return output, nil
}

func doPromptJSONSchema[T any](ctx context.Context, request structuredRequest, annotate func(...attribute.KeyValue)) (*T, error) {
	reflector := jsonschema.Reflector{DoNotReference: true}
	outputType := reflect.TypeFor[T]()
	schema := reflector.ReflectFromType(outputType)

	reqBody := schemaRequestBody{
		Model:    request.model,
		Messages: toMessages(request.systemPrompt, request.prompt),
		ResponseFormat: &chatResponseFormat{
			Type: "json_schema",
			JSONSchema: &jsonSchema{
				Name:   outputType.Name(),
				Schema: *schema,
				Strict: true,
			},
		},
	}

	annotate(attribute.String("request.model", request.model))
	if schemaString, err := schema.MarshalJSON(); err == nil {
		annotate(attribute.String("request.schema", string(schemaString)))
	}

	requestBodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("error marshalling JSON: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, request.url, bytes.NewBuffer(requestBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("error creating HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+request.apiKey)

	annotate(attribute.String("request.url", req.URL.String()))
	resp, err := request.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error sending request: %w", err)
	}
	defer resp.Body.Close()

	annotate(attribute.Int("response.status_code", resp.StatusCode))
	respBodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		annotate(attribute.String("response.error", string(respBodyBytes)))
		return nil, fmt.Errorf("non-OK HTTP status: %s", resp.Status)
	}

	var responseBody schemaResponseBody
	if err := json.Unmarshal(respBodyBytes, &responseBody); err != nil {
		return nil, fmt.Errorf("error unmarshalling completion: %w", err)
	}
	if len(responseBody.Choices) == 0 {
		return nil, ErrEmptyCompletion
	}

	var output T
	if err := json.Unmarshal([]byte(stripCodeFence(responseBody.Choices[0].Message.Content)), &output); err != nil {
		return nil, fmt.Errorf("error unmarshalling response: %w", err)
	}
	return &output, nil
}

// stripCodeFence returns the body of a fenced block, dropping a language tag.
func stripCodeFence(content string) string {
	split := strings.Split(content, "```")
	if len(split) < 3 {
		return strings.TrimSpace(content)
	}
	body := split[1]
	if newline := strings.IndexByte(body, '\n'); newline >= 0 && !strings.ContainsAny(body[:newline], "{[") {
		body = body[newline+1:]
	}
	return strings.TrimSpace(body)
}

type schemaRequestBody struct {
	Model          string              `json:"model"`
	Messages       []message           `json:"messages"`
	ResponseFormat *chatResponseFormat `json:"response_format,omitempty"`
}

type chatResponseFormat struct {
	Type       string      `json:"type"`
	JSONSchema *jsonSchema `json:"json_schema,omitempty"`
}

type jsonSchema struct {
	// Name identifies the schema in the response.
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Schema      jsonschema.Schema `json:"schema"`
	// Strict enforces the schema upon the generated content.
	Strict bool `json:"strict"`
}

type schemaResponseBody struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role,omitempty"`
			Content string `json:"content,omitempty"`
		} `json:"message"`
	} `json:"choices"`
}
