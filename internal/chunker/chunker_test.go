package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestNew(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		c := New()
		if c.chunkSize != DefaultChunkSize {
			t.Errorf("expected chunkSize %d, got %d", DefaultChunkSize, c.chunkSize)
		}
		if c.overlap != DefaultChunkOverlap {
			t.Errorf("expected overlap %d, got %d", DefaultChunkOverlap, c.overlap)
		}
	})

	t.Run("overlap exceeds chunk size", func(t *testing.T) {
		c := New(WithChunkSize(100), WithOverlap(150))
		if c.overlap >= c.chunkSize {
			t.Error("overlap should be reduced when it exceeds chunk size")
		}
	})

	t.Run("zero values ignored", func(t *testing.T) {
		c := New(WithChunkSize(0), WithOverlap(-1))
		if c.Size() != DefaultChunkSize {
			t.Errorf("expected default chunkSize, got %d", c.Size())
		}
		if c.overlap != DefaultChunkOverlap {
			t.Errorf("expected default overlap, got %d", c.overlap)
		}
	})
}

func TestSplit_Empty(t *testing.T) {
	if chunks := New().Split(""); len(chunks) != 0 {
		t.Errorf("expected no chunks, got %d", len(chunks))
	}
}

func TestSplit_SmallContent(t *testing.T) {
	chunks := New(WithChunkSize(100)).Split("short text")
	if len(chunks) != 1 || chunks[0] != "short text" {
		t.Errorf("expected text unchanged, got %q", chunks)
	}
}

func TestSplit_BreaksOnWhitespace(t *testing.T) {
	chunks := New(WithChunkSize(10), WithOverlap(0)).Split("aaaa bbbb cccc dddd")

	want := []string{"aaaa bbbb ", "cccc dddd"}
	if len(chunks) != len(want) {
		t.Fatalf("expected %d chunks, got %q", len(want), chunks)
	}
	for i := range want {
		if chunks[i] != want[i] {
			t.Errorf("chunk %d: expected %q, got %q", i, want[i], chunks[i])
		}
	}
}

func TestSplit_Overlap(t *testing.T) {
	text := strings.Repeat("é", 25)
	chunks := New(WithChunkSize(10), WithOverlap(4)).Split(text)

	if len(chunks) != 4 {
		t.Fatalf("expected 4 chunks, got %d", len(chunks))
	}
	for i, chunk := range chunks {
		if !utf8.ValidString(chunk) {
			t.Errorf("chunk %d is not valid UTF-8", i)
		}
		if n := utf8.RuneCountInString(chunk); n > 10 {
			t.Errorf("chunk %d has %d runes", i, n)
		}
	}
	if n := utf8.RuneCountInString(chunks[3]); n != 7 {
		t.Errorf("expected final chunk of 7 runes, got %d", n)
	}
}

func TestSplit_CoversAllContent(t *testing.T) {
	text := strings.Repeat("word ", 300)
	chunks := New(WithChunkSize(100), WithOverlap(0)).Split(text)

	if got := strings.Join(chunks, ""); got != text {
		t.Error("chunks without overlap should reassemble the input")
	}
}
