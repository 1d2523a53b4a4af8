package vectorstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"editais-platform/internal/logger"
)

type embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbeddingModel() string
}

// SearchResult is one retrieved chunk. Distance is the raw value
// reported by Chroma; smaller (or more negative) means more relevant.
type SearchResult struct {
	ID       string                 `json:"id"`
	Document string                 `json:"document"`
	Metadata map[string]interface{} `json:"metadata"`
	Distance float64                `json:"distance"`
}

// Stats summarizes the collection for the inspection endpoints.
type Stats struct {
	TotalChunks    int                    `json:"total_chunks"`
	TotalEditais   int                    `json:"total_editais"`
	CollectionName string                 `json:"collection_name"`
	EmbeddingInfo  map[string]interface{} `json:"embedding_info"`
}

// Index manages the editais chunk collection. Embeddings are computed
// client-side, so the collection is only valid for one embedding
// model; the model name is recorded in the collection metadata and a
// mismatch at startup drops and recreates the collection.
type Index struct {
	client     *ChromaClient
	embed      embedder
	name       string
	collection *Collection
}

func NewIndex(ctx context.Context, client *ChromaClient, embed embedder, collectionName string) (*Index, error) {
	idx := &Index{client: client, embed: embed, name: collectionName}
	if err := idx.ensure(ctx); err != nil {
		return nil, err
	}
	idx.warmup(ctx)
	return idx, nil
}

func (idx *Index) ensure(ctx context.Context) error {
	coll, err := idx.client.GetCollection(ctx, idx.name)
	switch {
	case errors.Is(err, ErrCollectionNotFound):
		// fall through to create
	case err != nil:
		return fmt.Errorf("check collection: %w", err)
	default:
		recorded, _ := coll.Metadata["embedding_model"].(string)
		if recorded == idx.embed.EmbeddingModel() {
			idx.collection = coll
			return nil
		}
		logger.Warn("Embedding model changed, recreating collection",
			"collection", idx.name, "recorded", recorded, "configured", idx.embed.EmbeddingModel())
		if err := idx.client.DeleteCollection(ctx, idx.name); err != nil {
			return fmt.Errorf("drop stale collection: %w", err)
		}
	}

	created, err := idx.client.CreateCollection(ctx, idx.name, map[string]interface{}{
		"embedding_model":    idx.embed.EmbeddingModel(),
		"embedding_provider": "OpenAI",
	})
	if err != nil {
		return fmt.Errorf("create collection: %w", err)
	}
	idx.collection = created
	return nil
}

// warmup runs one throwaway query so the first real request does not
// pay the model download / cache cost.
func (idx *Index) warmup(ctx context.Context) {
	if _, err := idx.Search(ctx, "warmup", 1, nil); err != nil {
		logger.Debug("Vector store warmup query failed", "error", err)
	}
}

// AddChunk embeds one chunk and stores it under {edital}_chunk_{n}.
func (idx *Index) AddChunk(ctx context.Context, editalID, editalName string, chunkIndex, totalChunks int, text string, metadata map[string]interface{}) error {
	vectors, err := idx.embed.Embed(ctx, []string{text})
	if err != nil {
		return fmt.Errorf("embed chunk: %w", err)
	}

	id := fmt.Sprintf("%s_chunk_%d", editalID, chunkIndex)

	full := map[string]interface{}{
		"edital_uuid":  editalID,
		"edital_name":  editalName,
		"chunk_index":  chunkIndex,
		"total_chunks": totalChunks,
	}
	for k, v := range metadata {
		full[k] = v
	}

	return idx.client.Add(ctx, idx.collection.ID,
		[]string{id},
		vectors,
		[]map[string]interface{}{sanitizeMetadata(full)},
		[]string{text},
	)
}

// Search embeds the query and returns the k nearest chunks, optionally
// restricted by a metadata filter such as {"edital_uuid": id}.
func (idx *Index) Search(ctx context.Context, query string, k int, where map[string]interface{}) ([]SearchResult, error) {
	vectors, err := idx.embed.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	result, err := idx.client.Query(ctx, idx.collection.ID, vectors[0], k, where)
	if err != nil {
		return nil, err
	}

	var out []SearchResult
	if len(result.IDs) == 0 {
		return out, nil
	}
	for i, id := range result.IDs[0] {
		r := SearchResult{ID: id}
		if len(result.Documents) > 0 && i < len(result.Documents[0]) {
			r.Document = result.Documents[0][i]
		}
		if len(result.Metadatas) > 0 && i < len(result.Metadatas[0]) {
			r.Metadata = result.Metadatas[0][i]
		}
		if len(result.Distances) > 0 && i < len(result.Distances[0]) {
			r.Distance = result.Distances[0][i]
		}
		out = append(out, r)
	}
	return out, nil
}

// GetAll lists stored chunks, capped by limit when positive.
func (idx *Index) GetAll(ctx context.Context, limit int) (*GetResult, error) {
	return idx.client.Get(ctx, idx.collection.ID, nil, limit)
}

// DeleteByEdital removes every chunk of one edital.
func (idx *Index) DeleteByEdital(ctx context.Context, editalID string) error {
	return idx.client.DeleteWhere(ctx, idx.collection.ID, map[string]interface{}{"edital_uuid": editalID})
}

// Clear drops and recreates the collection.
func (idx *Index) Clear(ctx context.Context) error {
	if err := idx.client.DeleteCollection(ctx, idx.name); err != nil {
		return err
	}
	return idx.ensure(ctx)
}

func (idx *Index) Stats(ctx context.Context) (*Stats, error) {
	count, err := idx.client.Count(ctx, idx.collection.ID)
	if err != nil {
		return nil, err
	}

	all, err := idx.client.Get(ctx, idx.collection.ID, nil, 0)
	if err != nil {
		return nil, err
	}
	editais := make(map[string]bool)
	for _, md := range all.Metadatas {
		if id, ok := md["edital_uuid"].(string); ok {
			editais[id] = true
		}
	}

	return &Stats{
		TotalChunks:    count,
		TotalEditais:   len(editais),
		CollectionName: idx.name,
		EmbeddingInfo: map[string]interface{}{
			"model":    idx.embed.EmbeddingModel(),
			"provider": "OpenAI",
		},
	}, nil
}

// sanitizeMetadata keeps primitives and JSON-encodes everything else;
// Chroma rejects nested values. Nils are dropped.
func sanitizeMetadata(metadata map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(metadata))
	for k, v := range metadata {
		switch v.(type) {
		case nil:
			continue
		case string, bool, int, int64, float32, float64:
			out[k] = v
		default:
			if encoded, err := json.Marshal(v); err == nil {
				out[k] = string(encoded)
			} else {
				out[k] = fmt.Sprintf("%v", v)
			}
		}
	}
	return out
}
