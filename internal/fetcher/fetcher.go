package fetcher

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	"golang.org/x/net/html/charset"

	"editais-platform/internal/logger"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Error kinds classify failures so the retry policy and job error
// reporting can treat them differently.
const (
	KindTimeout    = "timeout"
	KindProtocol   = "protocol"
	KindHTTPStatus = "http_status"
	KindTooLarge   = "too_large"
)

const (
	maxAttempts     = 3
	maxBodyBytes    = 50 << 20 // refuse bodies beyond 50MB
	listingTimeout  = 30 * time.Second
	pdfReadTimeout  = 120 * time.Second
	connectTimeout  = 30 * time.Second
)

// FetchError carries the failure class alongside the underlying cause.
type FetchError struct {
	Kind   string
	URL    string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s: %s (status %d)", e.URL, e.Kind, e.Status)
	}
	return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Fetcher is a polite HTTP client shared by all source adapters.
type Fetcher struct {
	listingClient *http.Client
	pdfClient     *http.Client
}

func New() *Fetcher {
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   connectTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConnsPerHost: 5,
		MaxConnsPerHost:     10,
		IdleConnTimeout:     90 * time.Second,
	}

	return &Fetcher{
		listingClient: &http.Client{
			Transport: transport,
			Timeout:   listingTimeout,
		},
		pdfClient: &http.Client{
			Transport: transport,
			Timeout:   pdfReadTimeout,
		},
	}
}

// FetchListing downloads an HTML listing page and returns its body
// decoded to UTF-8. Brotli responses are decompressed before charset
// conversion.
func (f *Fetcher) FetchListing(ctx context.Context, rawURL string) ([]byte, error) {
	body, contentType, err := f.fetch(ctx, f.listingClient, rawURL, "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	if err != nil {
		return nil, err
	}
	return decodeHTML(body, contentType)
}

// FetchPDF downloads a document with the long read timeout. The caller
// decides whether the payload is actually a PDF via IsPDF.
func (f *Fetcher) FetchPDF(ctx context.Context, rawURL string) ([]byte, string, error) {
	return f.fetch(ctx, f.pdfClient, rawURL, "application/pdf,*/*")
}

func (f *Fetcher) fetch(ctx context.Context, client *http.Client, rawURL, accept string) ([]byte, string, error) {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		body, contentType, err := f.doOnce(ctx, client, rawURL, accept)
		if err == nil {
			return body, contentType, nil
		}
		lastErr = err

		var fe *FetchError
		if !errors.As(err, &fe) || !retryable(fe) || attempt == maxAttempts {
			return nil, "", err
		}

		delay := backoff(fe.Kind, attempt)
		logger.Warn("Fetch failed, retrying",
			"url", rawURL, "kind", fe.Kind, "attempt", attempt, "delay", delay.String())

		select {
		case <-ctx.Done():
			return nil, "", ctx.Err()
		case <-time.After(delay):
		}
	}
	return nil, "", lastErr
}

func (f *Fetcher) doOnce(ctx context.Context, client *http.Client, rawURL, accept string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", &FetchError{Kind: KindProtocol, URL: rawURL, Err: err}
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", accept)
	req.Header.Set("Accept-Encoding", "gzip, br")
	req.Header.Set("Accept-Language", "pt-BR,pt;q=0.9,en;q=0.8")

	resp, err := client.Do(req)
	if err != nil {
		return nil, "", classify(rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, "", &FetchError{Kind: KindHTTPStatus, URL: rawURL, Status: resp.StatusCode}
	}

	// Setting Accept-Encoding ourselves turns off the transport's
	// transparent gzip handling, so both encodings are decoded here.
	reader := io.Reader(resp.Body)
	switch strings.ToLower(resp.Header.Get("Content-Encoding")) {
	case "br":
		reader = brotli.NewReader(resp.Body)
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, "", &FetchError{Kind: KindProtocol, URL: rawURL, Err: err}
		}
		defer gz.Close()
		reader = gz
	}

	body, err := io.ReadAll(io.LimitReader(reader, maxBodyBytes+1))
	if err != nil {
		return nil, "", classify(rawURL, err)
	}
	if len(body) > maxBodyBytes {
		return nil, "", &FetchError{Kind: KindTooLarge, URL: rawURL, Err: fmt.Errorf("body exceeds %d bytes", maxBodyBytes)}
	}

	return body, resp.Header.Get("Content-Type"), nil
}

func classify(rawURL string, err error) *FetchError {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &FetchError{Kind: KindTimeout, URL: rawURL, Err: err}
	}
	return &FetchError{Kind: KindProtocol, URL: rawURL, Err: err}
}

func retryable(fe *FetchError) bool {
	switch fe.Kind {
	case KindTimeout, KindProtocol:
		return true
	case KindHTTPStatus:
		return fe.Status >= 500
	}
	return false
}

// Backoff grows linearly with the attempt, slower for protocol errors
// since those rarely resolve within a couple of seconds.
func backoff(kind string, attempt int) time.Duration {
	if kind == KindTimeout {
		return time.Duration(attempt) * 2 * time.Second
	}
	return time.Duration(attempt) * 3 * time.Second
}

// IsPDF reports whether a response looks like a PDF: content type,
// URL shape or the %PDF magic prefix.
func IsPDF(rawURL, contentType string, body []byte) bool {
	if strings.Contains(strings.ToLower(contentType), "application/pdf") {
		return true
	}

	lower := strings.ToLower(rawURL)
	if u, err := url.Parse(lower); err == nil {
		path := u.Path
		if strings.HasSuffix(path, ".pdf") || strings.Contains(path, "-pdf") || strings.Contains(path, "download") {
			return true
		}
	}

	return bytes.HasPrefix(body, []byte("%PDF"))
}

func decodeHTML(body []byte, contentType string) ([]byte, error) {
	reader, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		// Undetectable charset, serve the raw bytes
		return body, nil
	}
	decoded, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("charset decode: %w", err)
	}
	return decoded, nil
}
