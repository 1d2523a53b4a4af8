package vectorstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrCollectionNotFound signals a missing collection, which the index
// treats as "create it".
var ErrCollectionNotFound = errors.New("chroma collection not found")

// ChromaClient is a thin HTTP client for the Chroma v1 REST API.
type ChromaClient struct {
	baseURL string
	http    *http.Client
}

func NewChromaClient(host string, port int) *ChromaClient {
	return &ChromaClient{
		baseURL: fmt.Sprintf("http://%s:%d/api/v1", host, port),
		http:    &http.Client{Timeout: 60 * time.Second},
	}
}

// NewChromaClientURL is the test hook: it accepts a full base URL.
func NewChromaClientURL(baseURL string) *ChromaClient {
	return &ChromaClient{
		baseURL: baseURL + "/api/v1",
		http:    &http.Client{Timeout: 60 * time.Second},
	}
}

type Collection struct {
	ID       string                 `json:"id"`
	Name     string                 `json:"name"`
	Metadata map[string]interface{} `json:"metadata"`
}

type QueryResult struct {
	IDs       [][]string                 `json:"ids"`
	Documents [][]string                 `json:"documents"`
	Metadatas [][]map[string]interface{} `json:"metadatas"`
	Distances [][]float64                `json:"distances"`
}

type GetResult struct {
	IDs       []string                 `json:"ids"`
	Documents []string                 `json:"documents"`
	Metadatas []map[string]interface{} `json:"metadatas"`
}

func (c *ChromaClient) Heartbeat(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/heartbeat", nil, nil)
}

func (c *ChromaClient) GetCollection(ctx context.Context, name string) (*Collection, error) {
	var coll Collection
	err := c.do(ctx, http.MethodGet, "/collections/"+name, nil, &coll)
	if err != nil {
		var se *statusError
		if errors.As(err, &se) && (se.code == http.StatusNotFound || se.code == http.StatusInternalServerError) {
			return nil, ErrCollectionNotFound
		}
		return nil, err
	}
	return &coll, nil
}

func (c *ChromaClient) CreateCollection(ctx context.Context, name string, metadata map[string]interface{}) (*Collection, error) {
	body := map[string]interface{}{
		"name":          name,
		"metadata":      metadata,
		"get_or_create": true,
	}
	var coll Collection
	if err := c.do(ctx, http.MethodPost, "/collections", body, &coll); err != nil {
		return nil, err
	}
	return &coll, nil
}

func (c *ChromaClient) DeleteCollection(ctx context.Context, name string) error {
	return c.do(ctx, http.MethodDelete, "/collections/"+name, nil, nil)
}

func (c *ChromaClient) Add(ctx context.Context, collectionID string, ids []string, embeddings [][]float32, metadatas []map[string]interface{}, documents []string) error {
	body := map[string]interface{}{
		"ids":        ids,
		"embeddings": embeddings,
		"metadatas":  metadatas,
		"documents":  documents,
	}
	return c.do(ctx, http.MethodPost, "/collections/"+collectionID+"/add", body, nil)
}

func (c *ChromaClient) Query(ctx context.Context, collectionID string, embedding []float32, n int, where map[string]interface{}) (*QueryResult, error) {
	body := map[string]interface{}{
		"query_embeddings": [][]float32{embedding},
		"n_results":        n,
		"include":          []string{"documents", "metadatas", "distances"},
	}
	if len(where) > 0 {
		body["where"] = where
	}
	var result QueryResult
	if err := c.do(ctx, http.MethodPost, "/collections/"+collectionID+"/query", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *ChromaClient) Get(ctx context.Context, collectionID string, where map[string]interface{}, limit int) (*GetResult, error) {
	body := map[string]interface{}{
		"include": []string{"documents", "metadatas"},
	}
	if len(where) > 0 {
		body["where"] = where
	}
	if limit > 0 {
		body["limit"] = limit
	}
	var result GetResult
	if err := c.do(ctx, http.MethodPost, "/collections/"+collectionID+"/get", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *ChromaClient) DeleteWhere(ctx context.Context, collectionID string, where map[string]interface{}) error {
	body := map[string]interface{}{"where": where}
	return c.do(ctx, http.MethodPost, "/collections/"+collectionID+"/delete", body, nil)
}

func (c *ChromaClient) Count(ctx context.Context, collectionID string) (int, error) {
	var count int
	if err := c.do(ctx, http.MethodGet, "/collections/"+collectionID+"/count", nil, &count); err != nil {
		return 0, err
	}
	return count, nil
}

type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("chroma returned %d: %s", e.code, e.body)
}

func (c *ChromaClient) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("chroma request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &statusError{code: resp.StatusCode, body: string(raw)}
	}

	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decode chroma response: %w", err)
		}
	}
	return nil
}
