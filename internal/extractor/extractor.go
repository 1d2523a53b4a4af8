package extractor

import (
	"context"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"editais-platform/internal/logger"
)

type llmClient interface {
	Prompt(ctx context.Context, prompt string, temperature float32, maxTokens int) (string, error)
}

type editalStore interface {
	SavePartialExtraction(ctx context.Context, editalID string, chunkIndex int, variables map[string]interface{}) error
	SaveFinalExtraction(ctx context.Context, editalID string, consolidated map[string]interface{}) error
}

type vectorIndex interface {
	AddChunk(ctx context.Context, editalID, editalName string, chunkIndex, totalChunks int, text string, metadata map[string]interface{}) error
}

// Extractor runs the progressive per-chunk extraction pipeline: each
// chunk is committed to Mongo and the vector index before the next one
// starts, so a crash mid-document loses at most one chunk.
type Extractor struct {
	llm        llmClient
	store      editalStore
	index      vectorIndex
	chunkSize  int
	chunkDelay time.Duration
}

func New(llm llmClient, store editalStore, index vectorIndex, chunkSize, chunkDelayMs int) *Extractor {
	return &Extractor{
		llm:        llm,
		store:      store,
		index:      index,
		chunkSize:  chunkSize,
		chunkDelay: time.Duration(chunkDelayMs) * time.Millisecond,
	}
}

// ProcessDocument extracts the variable schema from the full document
// text and returns the consolidated variables after the final commit.
func (e *Extractor) ProcessDocument(ctx context.Context, editalID, pdfURL, text string) (map[string]interface{}, error) {
	tracer := otel.Tracer("extractor")
	ctx, span := tracer.Start(ctx, "extractor.process_document")
	defer span.End()

	chunks := ChunkText(text, e.chunkSize)
	span.SetAttributes(
		attribute.String("edital.id", editalID),
		attribute.Int("edital.chunks", len(chunks)),
	)

	accumulated := map[string]interface{}{
		"link": pdfURL,
		"uuid": editalID,
	}

	logger.Info("Starting progressive extraction", "edital_id", editalID, "chunks", len(chunks))

	for _, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		variables, err := e.extractChunk(ctx, chunk, len(chunks))
		if err != nil {
			logger.Warn("Skipping chunk after retries",
				"edital_id", editalID, "chunk", chunk.Index, "error", err)
			continue
		}

		if err := e.store.SavePartialExtraction(ctx, editalID, chunk.Index, variables); err != nil {
			logger.Error("Failed to save chunk extraction",
				"edital_id", editalID, "chunk", chunk.Index, "error", err)
		}

		if e.index != nil {
			name := editalName(variables, accumulated)
			metadata := map[string]interface{}{
				"financiador": firstNonNil(variables["financiador_1"], variables["financiador_2"]),
				"area_foco":   variables["area_foco"],
				"link":        pdfURL,
			}
			if err := e.index.AddChunk(ctx, editalID, name, chunk.Index, len(chunks), chunk.Text, metadata); err != nil {
				logger.Warn("Failed to vectorize chunk",
					"edital_id", editalID, "chunk", chunk.Index, "error", err)
			}
		}

		accumulated = MergeVariables(accumulated, variables)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(e.chunkDelay):
		}
	}

	// System-owned fields always win over anything the model produced
	accumulated["link"] = pdfURL
	accumulated["uuid"] = editalID

	if err := e.store.SaveFinalExtraction(ctx, editalID, accumulated); err != nil {
		return nil, err
	}

	return accumulated, nil
}

// extractChunk queries the model for one chunk, retrying once. An
// unparsable reply after the retry degrades to the placeholder record
// instead of an error.
func (e *Extractor) extractChunk(ctx context.Context, chunk Chunk, totalChunks int) (map[string]interface{}, error) {
	prompt := buildPrompt(chunk, totalChunks)

	var lastRaw string
	var lastErr error
	for attempt := 0; attempt <= 1; attempt++ {
		raw, err := e.llm.Prompt(ctx, prompt, 0, 0)
		if err != nil {
			lastErr = err
			continue
		}
		lastRaw = raw

		variables, err := ParseResponse(raw)
		if err != nil {
			lastErr = err
			continue
		}
		return variables, nil
	}

	if lastRaw != "" {
		return Placeholder(lastRaw), nil
	}
	return nil, lastErr
}

func buildPrompt(chunk Chunk, totalChunks int) string {
	return strings.NewReplacer(
		"{CHUNK_INDEX}", strconv.Itoa(chunk.Index),
		"{TOTAL_CHUNKS}", strconv.Itoa(totalChunks),
		"{CHUNK_TEXT}", chunk.Text,
	).Replace(extractionPrompt)
}

func editalName(variables, accumulated map[string]interface{}) string {
	if s, ok := variables["apelido_edital"].(string); ok && s != "" {
		return s
	}
	if s, ok := accumulated["apelido_edital"].(string); ok && s != "" {
		return s
	}
	return "Edital"
}

func firstNonNil(values ...interface{}) interface{} {
	for _, v := range values {
		if v != nil && v != "" {
			return v
		}
	}
	return nil
}
