// Package advisor generates narrative explanations and briefings for a
// region's risk result using OpenAI chat completions. It is consulted
// only on a cache miss; callers bound each call with a request timeout
// and treat timeout like any other generation failure.
package advisor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/droughtguard/droughtguard/internal/facts"
	"github.com/droughtguard/droughtguard/internal/models"
)

const (
	DefaultModel       = "gpt-4o-mini"
	DefaultTemperature = 0.2
	DefaultMaxTokens   = 500
)

// Generator wraps the OpenAI client. Immutable after construction and
// safe for concurrent use.
type Generator struct {
	client      openai.Client
	model       string
	temperature float64
	maxTokens   int64
}

// New builds a generator from the OPENAI_API_KEY environment variable.
// Returns an error when the key is absent so the caller can degrade the
// narrative endpoints to 503 instead of failing startup.
func New(model string, temperature float64, maxTokens int64) (*Generator, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, errors.New("OPENAI_API_KEY environment variable not set")
	}
	if model == "" {
		model = DefaultModel
	}

	client := openai.NewClient(
		option.WithAPIKey(apiKey),
	)

	return &Generator{
		client:      client,
		model:       model,
		temperature: temperature,
		maxTokens:   maxTokens,
	}, nil
}

// Ready reports whether the generator can accept calls.
func (g *Generator) Ready() (bool, string) {
	return true, "ok"
}

// Explain produces a short 3-5 sentence explanation of the risk result.
func (g *Generator) Explain(ctx context.Context, f facts.Facts, month string) (models.NarrativePayload, error) {
	return g.generate(ctx, ModeExplain, f, month)
}

// Brief produces a longer briefing with recommended actions.
func (g *Generator) Brief(ctx context.Context, f facts.Facts, month string) (models.NarrativePayload, error) {
	return g.generate(ctx, ModeBrief, f, month)
}

func (g *Generator) generate(ctx context.Context, mode Mode, f facts.Facts, month string) (models.NarrativePayload, error) {
	system, user := buildPrompt(mode, f, month)

	resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(g.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
		Temperature: openai.Float(g.temperature),
		MaxTokens:   openai.Int(g.maxTokens),
	})
	if err != nil {
		return models.NarrativePayload{}, fmt.Errorf("narrative generation failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return models.NarrativePayload{}, errors.New("no completion returned")
	}
	return parsePayload(resp.Choices[0].Message.Content)
}

// parsePayload extracts the first JSON object from the completion text.
// Models occasionally wrap the object in prose or code fences, so the
// whole response is not required to be JSON.
func parsePayload(text string) (models.NarrativePayload, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return models.NarrativePayload{}, errors.New("empty completion returned")
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end <= start {
		return models.NarrativePayload{}, fmt.Errorf("no JSON object in response: %.80s", text)
	}

	var payload models.NarrativePayload
	if err := json.Unmarshal([]byte(text[start:end+1]), &payload); err != nil {
		return models.NarrativePayload{}, fmt.Errorf("parse response: %w", err)
	}
	if payload.Explanation == "" {
		return models.NarrativePayload{}, errors.New(`response JSON missing "explanation"`)
	}
	return payload, nil
}
