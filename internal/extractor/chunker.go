package extractor

import "strings"

// Chunk is one fixed-size window of document text. Indices are 1-based
// everywhere: Mongo, the vector store and logs all use the same number.
type Chunk struct {
	Index int
	Text  string
}

// ChunkText splits text into overlapping windows of size characters.
// Window i starts at i*(size-overlap), so consecutive chunks share the
// overlap region. Windows that trim to nothing are dropped.
func ChunkText(text string, size int) []Chunk {
	if size <= 0 {
		size = 3000
	}
	overlap := 300
	if size <= 1500 {
		overlap = 200
	}
	step := size - overlap

	runes := []rune(text)
	var chunks []Chunk

	for i := 0; ; i++ {
		start := i * step
		if start >= len(runes) {
			break
		}
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}

		window := strings.TrimSpace(string(runes[start:end]))
		if window != "" {
			chunks = append(chunks, Chunk{Index: len(chunks) + 1, Text: window})
		}

		if end == len(runes) {
			break
		}
	}

	return chunks
}
