package ai

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"

	"editais-platform/internal/config"
	"editais-platform/internal/logger"
)

// ErrUnavailable is returned when the circuit breaker is open and no
// request was attempted. Callers decide the fallback behavior.
var ErrUnavailable = errors.New("openai temporarily unavailable")

type RateLimits struct {
	RPM int // Requests per minute
}

type Client struct {
	api         *openai.Client
	chatModel   string
	embedModel  string
	breaker     *gobreaker.CircuitBreaker
	rateLimiter *rate.Limiter
}

func NewClient(cfg *config.Config) *Client {
	limits := RateLimits{RPM: 500}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "OpenAIAPI",
		MaxRequests: 5,
		Interval:    10 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker state change", "name", name, "from", from.String(), "to", to.String())
		},
	})

	// RPM limit with some buffer
	rateLimiter := rate.NewLimiter(rate.Limit(float64(limits.RPM)*0.9/60.0), limits.RPM/10)

	return &Client{
		api:         openai.NewClient(cfg.OpenAIAPIKey),
		chatModel:   cfg.ChatModel,
		embedModel:  cfg.EmbeddingModel,
		breaker:     breaker,
		rateLimiter: rateLimiter,
	}
}

// ChatModel reports the configured completion model.
func (c *Client) ChatModel() string { return c.chatModel }

// EmbeddingModel reports the configured embedding model. The vector
// store records it as the collection fingerprint.
func (c *Client) EmbeddingModel() string { return c.embedModel }

// Complete runs a single system+user exchange and returns the raw
// assistant text.
func (c *Client) Complete(ctx context.Context, system, user string, temperature float32, maxTokens int) (string, error) {
	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: system},
		{Role: openai.ChatMessageRoleUser, Content: user},
	}
	return c.ChatCompletion(ctx, messages, temperature, maxTokens)
}

// Prompt sends a single user message without a system preamble.
func (c *Client) Prompt(ctx context.Context, user string, temperature float32, maxTokens int) (string, error) {
	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleUser, Content: user},
	}
	return c.ChatCompletion(ctx, messages, temperature, maxTokens)
}

// ChatCompletion sends a full message history through the rate limiter
// and circuit breaker.
func (c *Client) ChatCompletion(ctx context.Context, messages []openai.ChatCompletionMessage, temperature float32, maxTokens int) (string, error) {
	tracer := otel.Tracer("openai-client")
	ctx, span := tracer.Start(ctx, "openai.chat_completion")
	defer span.End()

	span.SetAttributes(
		attribute.String("openai.model", c.chatModel),
		attribute.Int("openai.messages", len(messages)),
		attribute.Float64("openai.temperature", float64(temperature)),
	)

	if err := c.rateLimiter.Wait(ctx); err != nil {
		span.SetAttributes(attribute.Bool("openai.rate_limited", true))
		return "", err
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:       c.chatModel,
			Messages:    messages,
			Temperature: requestTemperature(temperature),
			MaxTokens:   maxTokens,
		})
		if err != nil {
			span.SetAttributes(attribute.Bool("openai.error", true))
			return nil, err
		}
		if len(resp.Choices) == 0 {
			return nil, errors.New("empty completion response")
		}

		span.SetAttributes(attribute.Int("openai.total_tokens", resp.Usage.TotalTokens))
		return resp.Choices[0].Message.Content, nil
	})

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) {
			span.SetAttributes(attribute.Bool("openai.circuit_breaker_open", true))
			return "", ErrUnavailable
		}
		return "", err
	}

	span.SetAttributes(attribute.Bool("openai.success", true))
	return result.(string), nil
}

// requestTemperature maps an exact zero to the smallest positive value
// the wire format keeps. ChatCompletionRequest.Temperature is omitempty,
// so a literal 0 would be dropped from the request body and the API
// would fall back to its default of 1.
func requestTemperature(t float32) float32 {
	if t == 0 {
		return math.SmallestNonzeroFloat32
	}
	return t
}
