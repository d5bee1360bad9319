package ai

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"

	genai "github.com/google/generative-ai-go/genai"
)

// CompletionClient calls the Gemini chat completion API behind a circuit
// breaker and a client-side rate limiter. It performs no retries: a call
// either returns composed text or fails.
type CompletionClient struct {
	client      *genai.Client
	breaker     *gobreaker.CircuitBreaker
	rateLimiter *rate.Limiter
	modelName   string
	temperature float32
	maxTokens   int32
}

// CompletionConfig configures the completion model and its request envelope.
type CompletionConfig struct {
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
	RPM         int
}

func NewCompletionClient(ctx context.Context, cfg CompletionConfig) (*CompletionClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("missing API key for completions")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, err
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "GeminiCompletion",
		MaxRequests: 5,
		Interval:    10 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Printf("Circuit breaker %s: %s -> %s", name, from, to)
		},
	})

	rpm := cfg.RPM
	if rpm <= 0 {
		rpm = 10
	}
	// RPM limit with some buffer
	rateLimiter := rate.NewLimiter(rate.Limit(float64(rpm)*0.9/60.0), max(rpm/10, 1))

	return &CompletionClient{
		client:      client,
		breaker:     breaker,
		rateLimiter: rateLimiter,
		modelName:   cfg.Model,
		temperature: float32(cfg.Temperature),
		maxTokens:   int32(cfg.MaxTokens),
	}, nil
}

// Complete submits a system instruction and a user prompt and returns the
// single text completion.
func (cc *CompletionClient) Complete(ctx context.Context, system, prompt string) (string, error) {
	tracer := otel.Tracer("movie-search-platform")
	ctx, span := tracer.Start(ctx, "gemini.complete")
	defer span.End()
	span.SetAttributes(
		attribute.String("gemini.model", cc.modelName),
		attribute.Int("gemini.prompt_bytes", len(prompt)),
	)

	if err := cc.rateLimiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter wait: %w", err)
	}

	result, err := cc.breaker.Execute(func() (interface{}, error) {
		model := cc.client.GenerativeModel(cc.modelName)
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
		model.SetTemperature(cc.temperature)
		model.SetMaxOutputTokens(cc.maxTokens)
		return model.GenerateContent(ctx, genai.Text(prompt))
	})
	if err != nil {
		span.RecordError(err)
		return "", err
	}

	resp := result.(*genai.GenerateContentResponse)
	text := extractText(resp)
	if text == "" {
		return "", fmt.Errorf("no completion returned")
	}
	return text, nil
}

// Close releases the underlying client.
func (cc *CompletionClient) Close() error {
	return cc.client.Close()
}

func extractText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return sb.String()
}
