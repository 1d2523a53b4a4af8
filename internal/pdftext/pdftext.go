package pdftext

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"editais-platform/internal/logger"
)

var (
	ErrMalformed       = errors.New("malformed pdf")
	ErrEncrypted       = errors.New("encrypted pdf")
	ErrEmptyExtraction = errors.New("no extractable text")
)

// Extract pulls plain text from a PDF, page by page. Each non-empty
// page is preceded by a "--- Página N ---" marker; pages that yield
// nothing are skipped entirely.
func Extract(content []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "encrypt") {
			return "", fmt.Errorf("%w: %v", ErrEncrypted, err)
		}
		return "", fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	var textBuilder strings.Builder
	pages := reader.NumPage()

	for i := 1; i <= pages; i++ {
		text, err := extractPage(reader, i)
		if err != nil {
			logger.Warn("Failed to extract page text", "page", i, "error", err)
			continue
		}
		if strings.TrimSpace(text) == "" {
			continue
		}

		textBuilder.WriteString(fmt.Sprintf("\n--- Página %d ---\n", i))
		textBuilder.WriteString(text)
	}

	extracted := textBuilder.String()
	if strings.TrimSpace(extracted) == "" {
		return "", fmt.Errorf("%w: %d pages scanned", ErrEmptyExtraction, pages)
	}

	return extracted, nil
}

// extractPage isolates the library call so a panic on a broken page
// object degrades to a per-page error instead of killing the worker.
func extractPage(reader *pdf.Reader, pageNum int) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic extracting page %d: %v", pageNum, r)
		}
	}()

	page := reader.Page(pageNum)
	if page.V.IsNull() {
		return "", nil
	}

	fonts := make(map[string]*pdf.Font)
	return page.GetPlainText(fonts)
}

// Pool bounds how many PDF extractions run concurrently.
type Pool struct {
	sem chan struct{}
}

func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = 2
	}
	return &Pool{sem: make(chan struct{}, workers)}
}

// Extract waits for a worker slot, then runs the extraction. The wait
// honors context cancellation.
func (p *Pool) Extract(ctx context.Context, content []byte) (string, error) {
	select {
	case p.sem <- struct{}{}:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	defer func() { <-p.sem }()

	return Extract(content)
}
