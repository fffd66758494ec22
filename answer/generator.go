// Package answer wraps the external generative service that turns retrieved
// context into a natural-language answer. Generation failures degrade to a
// placeholder; they never fail the retrieval request.
package answer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

var ErrGenerationUnavailable = errors.New("answer generation unavailable")

// DegradedAnswer is returned when no generator is configured or the
// generative backend fails; callers still receive the ranked chunks.
const DegradedAnswer = "AI answer generation is not available. Review the retrieved chunks directly."

type Config struct {
	Model string `yaml:"model"`
}

type Generator interface {
	Generate(ctx context.Context, question, context string) (string, error)
}

type openAIGenerator struct {
	client *openai.Client
	model  string
}

// NewOpenAIGenerator builds a chat-completion backed generator. An empty
// API key is a configuration error; main treats it as "run degraded".
func NewOpenAIGenerator(apiKey string, cfg Config) (Generator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: missing API key", ErrGenerationUnavailable)
	}

	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}

	return &openAIGenerator{
		client: openai.NewClient(apiKey),
		model:  model,
	}, nil
}

func (g *openAIGenerator) Generate(ctx context.Context, question, contextText string) (string, error) {
	prompt := buildPrompt(question, contextText)

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You answer questions using only the provided context. If the context does not contain enough information, say so.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGenerationUnavailable, err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: empty completion", ErrGenerationUnavailable)
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func buildPrompt(question, contextText string) string {
	var sb strings.Builder

	sb.WriteString("Context:\n")
	sb.WriteString(contextText)
	sb.WriteString("\n\nQuestion: ")
	sb.WriteString(question)
	sb.WriteString("\n\nAnswer:")

	return sb.String()
}
