package ai

import (
	"context"
	"errors"
	"fmt"

	"github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// Embed returns one embedding vector per input text, in input order.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	tracer := otel.Tracer("openai-client")
	ctx, span := tracer.Start(ctx, "openai.embeddings")
	defer span.End()

	span.SetAttributes(
		attribute.String("openai.model", c.embedModel),
		attribute.Int("openai.inputs", len(texts)),
	)

	if err := c.rateLimiter.Wait(ctx); err != nil {
		span.SetAttributes(attribute.Bool("openai.rate_limited", true))
		return nil, err
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		resp, err := c.api.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Model: openai.EmbeddingModel(c.embedModel),
			Input: texts,
		})
		if err != nil {
			span.SetAttributes(attribute.Bool("openai.error", true))
			return nil, err
		}
		if len(resp.Data) != len(texts) {
			return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Data))
		}

		vectors := make([][]float32, len(resp.Data))
		for _, item := range resp.Data {
			vectors[item.Index] = item.Embedding
		}
		return vectors, nil
	})

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) {
			span.SetAttributes(attribute.Bool("openai.circuit_breaker_open", true))
			return nil, ErrUnavailable
		}
		return nil, err
	}

	span.SetAttributes(attribute.Bool("openai.success", true))
	return result.([][]float32), nil
}
