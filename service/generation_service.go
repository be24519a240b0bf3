package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
)

const (
	maxRetries     = 3
	initialBackoff = time.Second
)

// Generator produces free-form text from a prompt. Implementations are
// expected to be safe for concurrent use.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// generateFunc is the provider call for one generation request, resolved at
// construction so tests can substitute the remote call.
type generateFunc func(ctx context.Context, prompt string) (string, error)

// GeminiGenerator produces text via the Gemini generation API with retry and
// exponential backoff on transient failures.
type GeminiGenerator struct {
	model     *genai.GenerativeModel
	modelName string
	call      generateFunc
}

// NewGeminiGenerator creates a generator bound to the given model. The low
// temperature keeps structured-output responses close to the requested JSON
// shape.
func NewGeminiGenerator(client *genai.Client, modelName string) *GeminiGenerator {
	model := client.GenerativeModel(modelName)
	model.SetTemperature(0.2)

	g := &GeminiGenerator{model: model, modelName: modelName}
	g.call = g.callAPI
	return g
}

// Generate sends the prompt to the model, retrying transient failures with
// exponential backoff.
func (g *GeminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	var lastErr error
	backoff := initialBackoff
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		text, err := g.call(ctx, prompt)
		if err == nil {
			return text, nil
		}
		lastErr = err
	}
	return "", fmt.Errorf("failed to generate content after %d attempts: %w", maxRetries, lastErr)
}

// callAPI performs one provider call and flattens the candidate parts into a
// single string.
func (g *GeminiGenerator) callAPI(ctx context.Context, prompt string) (string, error) {
	if g.model == nil {
		return "", ErrGenerationUnavailable
	}

	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("empty response from model %s: %w", g.modelName, ErrGenerationFailed)
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("no text parts in response from model %s: %w", g.modelName, ErrGenerationFailed)
	}
	return sb.String(), nil
}
