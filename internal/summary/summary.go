// Package summary turns a leaderboard table into a short narrative report
// via a chat completion model.
package summary

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// systemPrompt sets the narrator voice for every report.
const systemPrompt = `You are a cold, precise, tactical military analyst with a dry, slightly sarcastic wit.
Short sentences. Direct. Military style.`

// userPromptHeader frames the table the model is asked to analyze.
const userPromptHeader = `Analyze the Territory War performance table below and produce a concise, objective summary containing:

- Highlights of the players with the highest total banners
- Who contributed the most on offense
- Who contributed the most on defense
- Who performed rogue actions
- Any relevant observations, patterns, or strategic weaknesses you detect
- Keep the writing natural, sharp, and easy to read

TABLE:
`

// OpenAIGenerator produces summaries through the OpenAI chat completions
// API.
type OpenAIGenerator struct {
	client openai.Client
	model  string
}

func NewOpenAIGenerator(apiKey, model string) *OpenAIGenerator {
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &OpenAIGenerator{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

// Summarize returns the model's narrative for the rendered table.
func (g *OpenAIGenerator) Summarize(ctx context.Context, table string) (string, error) {
	resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: g.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPromptHeader + table),
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}

	content := resp.Choices[0].Message.Content
	if content == "" {
		return "", fmt.Errorf("chat completion returned empty content")
	}
	return content, nil
}
