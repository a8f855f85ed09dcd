// Package content generates product card copy from draft data using an LLM.
// The model is asked for strict JSON so the result can be stored on the
// draft as structured card content.
package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/tradecardhq/tradecard/svc/draft"
)

var (
	ErrGenerationFailed = errors.New("content: generation failed")
	ErrEmptyCompletion  = errors.New("content: empty completion")
	ErrInvalidContent   = errors.New("content: model returned invalid content")
)

// Config holds LLM credentials and model selection.
type Config struct {
	APIKey string `env:"OPENAI_API_KEY,required"`
	Model  string `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`
}

// ChatClient is the slice of the OpenAI client this service uses.
// Satisfied by *openai.Client.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Service generates card content for drafts.
type Service struct {
	client ChatClient
	model  string
}

// NewService creates a content service. Panics if the client is nil.
func NewService(client ChatClient, model string) *Service {
	if client == nil {
		panic("content: ChatClient is required")
	}
	if model == "" {
		model = openai.GPT4oMini
	}
	return &Service{client: client, model: model}
}

// NewServiceFromConfig creates a content service with a real OpenAI client.
func NewServiceFromConfig(cfg Config) *Service {
	return NewService(openai.NewClient(cfg.APIKey), cfg.Model)
}

const systemPrompt = `You write concise, sales-ready product card copy for ` +
	`second-hand and artisan goods. Respond with a single JSON object with ` +
	`keys "headline" (string), "description" (string), "bullets" (array of ` +
	`up to 4 short strings), and "tags" (array of up to 5 lowercase ` +
	`strings). No markdown, no text outside the JSON.`

// GenerateCard produces card content for a draft. The returned map follows
// the schema requested in the system prompt but is stored as-is; downstream
// code must not assume any particular key is present.
func (s *Service) GenerateCard(ctx context.Context, d *draft.Draft) (map[string]any, error) {
	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildPrompt(d)},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		MaxTokens: 500,
	})
	if err != nil {
		return nil, errors.Join(ErrGenerationFailed, err)
	}
	if len(resp.Choices) == 0 {
		return nil, ErrEmptyCompletion
	}

	raw := strings.TrimSpace(resp.Choices[0].Message.Content)
	var content map[string]any
	if err := json.Unmarshal([]byte(raw), &content); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidContent, err)
	}
	return content, nil
}

func buildPrompt(d *draft.Draft) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Product: %s\n", d.Title)
	if d.Description != "" {
		fmt.Fprintf(&b, "Seller notes: %s\n", d.Description)
	}
	if d.Price != "" {
		fmt.Fprintf(&b, "Price: %s\n", d.Price)
	}
	if n := len(d.PhotoURLs); n > 0 {
		fmt.Fprintf(&b, "Photos provided: %d\n", n)
	}
	b.WriteString("Write the product card.")
	return b.String()
}
