package chunking

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/toolkitrag/grounded/internal/core/domain"
)

func paragraph(word string, chars int) string {
	var b strings.Builder
	for b.Len() < chars {
		b.WriteString(word)
		b.WriteString(" ")
	}
	return strings.TrimSpace(b.String()[:chars])
}

func blocksWithHeading(heading string, texts ...string) []domain.Block {
	out := make([]domain.Block, 0, len(texts))
	for _, t := range texts {
		out = append(out, domain.Block{Text: t, Meta: domain.ChunkMeta{Heading: heading}})
	}
	return out
}

func TestSplitRespectsMaxChars(t *testing.T) {
	c := NewChunker(1200, 150)
	var blocks []domain.Block
	for i := 0; i < 10; i++ {
		blocks = append(blocks, domain.Block{Text: paragraph("toolkit", 400)})
	}

	chunks := c.Split(blocks)
	if len(chunks) < 3 {
		t.Fatalf("expected at least 3 chunks, got %d", len(chunks))
	}
	for _, chunk := range chunks {
		if n := utf8.RuneCountInString(chunk.Text); n > 1200 {
			t.Fatalf("chunk %d exceeds max chars: %d", chunk.Index, n)
		}
	}
	for i, chunk := range chunks {
		if chunk.Index != i {
			t.Fatalf("expected sequential index %d, got %d", i, chunk.Index)
		}
	}
}

func TestSplitOverlapInvariant(t *testing.T) {
	c := NewChunker(1200, 150)
	var blocks []domain.Block
	for i := 0; i < 8; i++ {
		blocks = append(blocks, domain.Block{Text: paragraph("grounded retrieval", 500)})
	}

	chunks := c.Split(blocks)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i := 0; i < len(chunks)-1; i++ {
		tail := overlapTail(chunks[i].Text, c.Overlap)
		if tail == "" {
			continue
		}
		if !strings.HasPrefix(chunks[i+1].Text, tail) {
			t.Fatalf("chunk %d does not start with the trailing %d chars of chunk %d", i+1, c.Overlap, i)
		}
	}
}

func TestSplitOversizedParagraphEmittedWhole(t *testing.T) {
	c := NewChunker(1200, 150)
	huge := paragraph("exhaustive", 2600)

	chunks := c.Split([]domain.Block{{Text: huge}})
	if len(chunks) != 1 {
		t.Fatalf("expected single oversized chunk, got %d", len(chunks))
	}
	if chunks[0].Text != huge {
		t.Fatalf("oversized paragraph must not be split")
	}
}

func TestSplitHeadingPropagation(t *testing.T) {
	// 3000-character document under two headings.
	c := NewChunker(1200, 150)
	blocks := append(
		blocksWithHeading("Discovery", paragraph("discover", 700), paragraph("enrich", 800)),
		blocksWithHeading("Review Workflow", paragraph("review", 700), paragraph("approve", 800))...,
	)

	chunks := c.Split(blocks)
	if len(chunks) < 2 {
		t.Fatalf("expected at least 2 chunks, got %d", len(chunks))
	}
	if chunks[0].Meta.Heading != "Discovery" {
		t.Fatalf("first chunk heading = %q, want Discovery", chunks[0].Meta.Heading)
	}
	last := chunks[len(chunks)-1]
	if last.Meta.Heading != "Review Workflow" {
		t.Fatalf("last chunk heading = %q, want Review Workflow", last.Meta.Heading)
	}

	tail := overlapTail(chunks[0].Text, c.Overlap)
	if tail == "" || !strings.HasPrefix(chunks[1].Text, tail) {
		t.Fatalf("expected overlap at the first chunk boundary")
	}
}

func TestSplitSkipsBlankBlocks(t *testing.T) {
	c := NewChunker(1200, 150)
	chunks := c.Split([]domain.Block{{Text: "  "}, {Text: ""}, {Text: "usable"}})
	if len(chunks) != 1 || chunks[0].Text != "usable" {
		t.Fatalf("expected one chunk from non-blank block, got %+v", chunks)
	}
}

func TestSplitEmptyInput(t *testing.T) {
	c := NewChunker(0, -1)
	if got := c.Split(nil); len(got) != 0 {
		t.Fatalf("expected no chunks, got %d", len(got))
	}
	if c.MaxChars != 1200 || c.Overlap != 0 {
		t.Fatalf("expected normalized defaults, got max=%d overlap=%d", c.MaxChars, c.Overlap)
	}
}
