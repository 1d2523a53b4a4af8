package fetcher

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/andybalholm/brotli"
)

func TestIsPDF(t *testing.T) {
	tests := []struct {
		name        string
		url         string
		contentType string
		body        []byte
		want        bool
	}{
		{"content type", "http://example.com/doc", "application/pdf", nil, true},
		{"content type with charset", "http://example.com/doc", "application/pdf; charset=binary", nil, true},
		{"pdf extension", "http://example.com/edital.pdf", "application/octet-stream", nil, true},
		{"pdf extension uppercase", "http://example.com/EDITAL.PDF", "", nil, true},
		{"dash pdf in path", "http://example.com/chamada-pdf", "", nil, true},
		{"download path", "http://example.com/arquivo/download?id=3", "", nil, true},
		{"magic prefix", "http://example.com/doc", "text/plain", []byte("%PDF-1.7 rest"), true},
		{"plain html", "http://example.com/page.html", "text/html", []byte("<html>"), false},
		{"query param pdf not matched", "http://example.com/page?file=x.pdf", "text/html", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsPDF(tt.url, tt.contentType, tt.body); got != tt.want {
				t.Errorf("IsPDF(%q, %q) = %v, want %v", tt.url, tt.contentType, got, tt.want)
			}
		})
	}
}

func TestFetchListingDecodesBrotli(t *testing.T) {
	var buf bytes.Buffer
	w := brotli.NewWriter(&buf)
	if _, err := w.Write([]byte("<html><body>chamadas abertas</body></html>")); err != nil {
		t.Fatalf("compress: %v", err)
	}
	w.Close()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Content-Encoding", "br")
		w.Write(buf.Bytes())
	}))
	defer srv.Close()

	body, err := New().FetchListing(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("FetchListing: %v", err)
	}
	if !bytes.Contains(body, []byte("chamadas abertas")) {
		t.Errorf("decoded body missing expected content: %q", body)
	}
}

func TestFetchListingDecodesGzip(t *testing.T) {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write([]byte("<html><body>editais vigentes</body></html>")); err != nil {
		t.Fatalf("compress: %v", err)
	}
	w.Close()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Content-Encoding", "gzip")
		w.Write(buf.Bytes())
	}))
	defer srv.Close()

	body, err := New().FetchListing(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("FetchListing: %v", err)
	}
	if bytes.HasPrefix(body, []byte{0x1f, 0x8b}) {
		t.Fatal("listing body still compressed")
	}
	if !bytes.Contains(body, []byte("editais vigentes")) {
		t.Errorf("decoded body missing expected content: %q", body)
	}
}

func TestFetchListingClientErrorNotRetried(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := New().FetchListing(context.Background(), srv.URL)
	if err == nil {
		t.Fatal("expected error for 404")
	}

	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *FetchError, got %T", err)
	}
	if fe.Kind != KindHTTPStatus || fe.Status != http.StatusNotFound {
		t.Errorf("got kind=%q status=%d, want http_status/404", fe.Kind, fe.Status)
	}
	if hits != 1 {
		t.Errorf("404 was retried %d times, want a single attempt", hits)
	}
}

func TestFetchListingRetriesServerError(t *testing.T) {
	if testing.Short() {
		t.Skip("retry backoff sleeps, skipping in short mode")
	}

	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if hits == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html>ok</html>"))
	}))
	defer srv.Close()

	body, err := New().FetchListing(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("FetchListing: %v", err)
	}
	if !bytes.Contains(body, []byte("ok")) {
		t.Errorf("unexpected body %q", body)
	}
	if hits != 2 {
		t.Errorf("expected 2 attempts, got %d", hits)
	}
}

func TestFetchPDFReturnsContentType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.Write([]byte("%PDF-1.4 fake"))
	}))
	defer srv.Close()

	body, contentType, err := New().FetchPDF(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("FetchPDF: %v", err)
	}
	if contentType != "application/pdf" {
		t.Errorf("content type = %q", contentType)
	}
	if !IsPDF(srv.URL, contentType, body) {
		t.Error("fetched payload not recognized as PDF")
	}
}
