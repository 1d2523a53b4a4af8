package vectorstore

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type fakeEmbedder struct {
	model string
	calls int
}

func (f *fakeEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	f.calls++
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{0.1, 0.2, 0.3}
	}
	return out, nil
}

func (f *fakeEmbedder) EmbeddingModel() string { return f.model }

// fakeChroma implements the slice of the REST API the index uses.
type fakeChroma struct {
	metadata map[string]interface{} // existing collection metadata, nil = absent
	deleted  bool
	created  map[string]interface{}
	added    []map[string]interface{}
}

func (f *fakeChroma) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/v1/collections/", func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, "/api/v1/collections/")
		switch {
		case r.Method == http.MethodGet && path == "editais_chunks":
			if f.metadata == nil && f.created == nil {
				http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
				return
			}
			md := f.metadata
			if f.created != nil {
				md = f.created
			}
			json.NewEncoder(w).Encode(Collection{ID: "coll-1", Name: "editais_chunks", Metadata: md})
		case r.Method == http.MethodDelete:
			f.deleted = true
			f.metadata = nil
			w.WriteHeader(http.StatusOK)
		case strings.HasSuffix(path, "/add"):
			var body map[string]interface{}
			json.NewDecoder(r.Body).Decode(&body)
			f.added = append(f.added, body)
			w.WriteHeader(http.StatusCreated)
		case strings.HasSuffix(path, "/query"):
			json.NewEncoder(w).Encode(QueryResult{
				IDs:       [][]string{{"e1_chunk_1"}},
				Documents: [][]string{{"texto do edital"}},
				Metadatas: [][]map[string]interface{}{{{"edital_uuid": "e1"}}},
				Distances: [][]float64{{0.42}},
			})
		case strings.HasSuffix(path, "/count"):
			w.Write([]byte("1"))
		case strings.HasSuffix(path, "/get"):
			json.NewEncoder(w).Encode(GetResult{
				IDs:       []string{"e1_chunk_1"},
				Metadatas: []map[string]interface{}{{"edital_uuid": "e1"}},
			})
		case strings.HasSuffix(path, "/delete"):
			w.WriteHeader(http.StatusOK)
		default:
			http.Error(w, "unexpected: "+r.URL.Path, http.StatusBadRequest)
		}
	})

	mux.HandleFunc("/api/v1/collections", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Name     string                 `json:"name"`
			Metadata map[string]interface{} `json:"metadata"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		f.created = body.Metadata
		json.NewEncoder(w).Encode(Collection{ID: "coll-1", Name: body.Name, Metadata: body.Metadata})
	})

	return mux
}

func TestNewIndexCreatesCollectionWithFingerprint(t *testing.T) {
	fake := &fakeChroma{}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	embed := &fakeEmbedder{model: "text-embedding-3-small"}
	idx, err := NewIndex(context.Background(), NewChromaClientURL(srv.URL), embed, "editais_chunks")
	if err != nil {
		t.Fatalf("NewIndex: %v", err)
	}

	if fake.created == nil {
		t.Fatal("collection was not created")
	}
	if fake.created["embedding_model"] != "text-embedding-3-small" {
		t.Errorf("embedding_model = %v", fake.created["embedding_model"])
	}
	if fake.created["embedding_provider"] != "OpenAI" {
		t.Errorf("embedding_provider = %v", fake.created["embedding_provider"])
	}
	if idx.collection.ID != "coll-1" {
		t.Errorf("collection id = %q", idx.collection.ID)
	}
}

func TestNewIndexRecreatesOnModelMismatch(t *testing.T) {
	fake := &fakeChroma{metadata: map[string]interface{}{
		"embedding_model":    "text-embedding-ada-002",
		"embedding_provider": "OpenAI",
	}}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	embed := &fakeEmbedder{model: "text-embedding-3-small"}
	if _, err := NewIndex(context.Background(), NewChromaClientURL(srv.URL), embed, "editais_chunks"); err != nil {
		t.Fatalf("NewIndex: %v", err)
	}

	if !fake.deleted {
		t.Error("stale collection was not dropped")
	}
	if fake.created["embedding_model"] != "text-embedding-3-small" {
		t.Errorf("recreated with %v", fake.created["embedding_model"])
	}
}

func TestNewIndexKeepsMatchingCollection(t *testing.T) {
	fake := &fakeChroma{metadata: map[string]interface{}{
		"embedding_model":    "text-embedding-3-small",
		"embedding_provider": "OpenAI",
	}}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	embed := &fakeEmbedder{model: "text-embedding-3-small"}
	if _, err := NewIndex(context.Background(), NewChromaClientURL(srv.URL), embed, "editais_chunks"); err != nil {
		t.Fatalf("NewIndex: %v", err)
	}

	if fake.deleted {
		t.Error("matching collection must not be dropped")
	}
}

func TestAddChunkIDAndMetadata(t *testing.T) {
	fake := &fakeChroma{}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	embed := &fakeEmbedder{model: "text-embedding-3-small"}
	idx, err := NewIndex(context.Background(), NewChromaClientURL(srv.URL), embed, "editais_chunks")
	if err != nil {
		t.Fatalf("NewIndex: %v", err)
	}
	fake.added = nil // drop the warmup noise

	err = idx.AddChunk(context.Background(), "uuid-9", "Edital X", 2, 5, "conteúdo", map[string]interface{}{
		"financiador": "CNPq",
		"area_foco":   nil,
		"extra":       []string{"a", "b"},
	})
	if err != nil {
		t.Fatalf("AddChunk: %v", err)
	}

	if len(fake.added) != 1 {
		t.Fatalf("adds = %d, want 1", len(fake.added))
	}
	body := fake.added[0]

	ids := body["ids"].([]interface{})
	if ids[0] != "uuid-9_chunk_2" {
		t.Errorf("id = %v, want uuid-9_chunk_2", ids[0])
	}

	md := body["metadatas"].([]interface{})[0].(map[string]interface{})
	if md["edital_uuid"] != "uuid-9" || md["financiador"] != "CNPq" {
		t.Errorf("metadata = %v", md)
	}
	if _, exists := md["area_foco"]; exists {
		t.Error("nil metadata value must be dropped")
	}
	if md["extra"] != `["a","b"]` {
		t.Errorf("non-primitive metadata must be JSON-encoded, got %v", md["extra"])
	}
}

func TestSearchMapsResults(t *testing.T) {
	fake := &fakeChroma{metadata: map[string]interface{}{
		"embedding_model": "text-embedding-3-small",
	}}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	embed := &fakeEmbedder{model: "text-embedding-3-small"}
	idx, err := NewIndex(context.Background(), NewChromaClientURL(srv.URL), embed, "editais_chunks")
	if err != nil {
		t.Fatalf("NewIndex: %v", err)
	}

	results, err := idx.Search(context.Background(), "prazo de submissão", 5, nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results", len(results))
	}
	r := results[0]
	if r.ID != "e1_chunk_1" || r.Document != "texto do edital" || r.Distance != 0.42 {
		t.Errorf("result = %+v", r)
	}
}

func TestSanitizeMetadata(t *testing.T) {
	out := sanitizeMetadata(map[string]interface{}{
		"s":   "x",
		"n":   3.5,
		"b":   true,
		"nil": nil,
		"m":   map[string]interface{}{"k": "v"},
	})
	if out["s"] != "x" || out["n"] != 3.5 || out["b"] != true {
		t.Errorf("primitives mangled: %v", out)
	}
	if _, ok := out["nil"]; ok {
		t.Error("nil kept")
	}
	if out["m"] != `{"k":"v"}` {
		t.Errorf("map not JSON-encoded: %v", out["m"])
	}
}
