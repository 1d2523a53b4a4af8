package extractor

import (
	"strings"
	"testing"
)

func TestChunkTextWindows(t *testing.T) {
	// 3000-char text with size 1000 / overlap 200: step 800
	text := strings.Repeat("a", 3000)
	chunks := ChunkText(text, 1000)

	if len(chunks) != 4 {
		t.Fatalf("got %d chunks, want 4", len(chunks))
	}
	for i, c := range chunks {
		if c.Index != i+1 {
			t.Errorf("chunk %d has index %d, indices must be 1-based and sequential", i, c.Index)
		}
	}
	if len(chunks[0].Text) != 1000 {
		t.Errorf("first chunk length = %d, want 1000", len(chunks[0].Text))
	}
	// Last window covers [2400, 3000)
	if len(chunks[3].Text) != 600 {
		t.Errorf("last chunk length = %d, want 600", len(chunks[3].Text))
	}
}

func TestChunkTextOverlap(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 400; i++ {
		sb.WriteString("palavra")
	}
	text := sb.String() // 2800 chars

	chunks := ChunkText(text, 1000)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}

	// Consecutive windows share the trailing 200 characters
	first := chunks[0].Text
	second := chunks[1].Text
	if !strings.HasPrefix(second, first[len(first)-200:]) {
		t.Error("second chunk does not start with the overlap of the first")
	}
}

func TestChunkTextLargerOverlapForBigWindows(t *testing.T) {
	text := strings.Repeat("b", 6000)
	chunks := ChunkText(text, 3000)

	// step 2700 with overlap 300: windows at 0, 2700, 5400
	if len(chunks) != 3 {
		t.Fatalf("got %d chunks, want 3", len(chunks))
	}
	if len(chunks[2].Text) != 600 {
		t.Errorf("last chunk length = %d, want 600", len(chunks[2].Text))
	}
}

func TestChunkTextShortInput(t *testing.T) {
	chunks := ChunkText("  texto curto  ", 3000)
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1", len(chunks))
	}
	if chunks[0].Text != "texto curto" {
		t.Errorf("chunk not trimmed: %q", chunks[0].Text)
	}
	if chunks[0].Index != 1 {
		t.Errorf("index = %d, want 1", chunks[0].Index)
	}
}

func TestChunkTextEmptyInput(t *testing.T) {
	if chunks := ChunkText("   \n\t  ", 3000); chunks != nil {
		t.Errorf("whitespace input produced chunks: %+v", chunks)
	}
}

func TestChunkTextMultibyte(t *testing.T) {
	// Window boundaries must not split UTF-8 sequences
	text := strings.Repeat("ção", 1000) // 3000 runes, 5000 bytes
	chunks := ChunkText(text, 1000)
	for _, c := range chunks {
		if !strings.HasPrefix(c.Text, "ç") && !strings.HasPrefix(c.Text, "ã") && !strings.HasPrefix(c.Text, "o") {
			t.Fatalf("chunk %d starts with broken rune: %q", c.Index, c.Text[:4])
		}
		if strings.ContainsRune(c.Text, '�') {
			t.Fatalf("chunk %d contains replacement character", c.Index)
		}
	}
}
