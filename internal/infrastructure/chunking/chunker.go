package chunking

import (
	"strings"
	"unicode/utf8"

	"github.com/toolkitrag/grounded/internal/core/domain"
)

// Chunker greedily packs parsed blocks into chunks of at most MaxChars
// characters, carrying the trailing Overlap characters of each emitted
// chunk into the next one. Paragraphs are never split: a single block
// longer than MaxChars becomes one oversized chunk.
type Chunker struct {
	MaxChars int
	Overlap  int
}

func NewChunker(maxChars, overlap int) *Chunker {
	if maxChars <= 0 {
		maxChars = 1200
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= maxChars {
		overlap = maxChars / 4
	}
	return &Chunker{
		MaxChars: maxChars,
		Overlap:  overlap,
	}
}

func (c *Chunker) Split(blocks []domain.Block) []domain.ChunkDraft {
	out := make([]domain.ChunkDraft, 0, len(blocks))

	var buf []string
	var size int
	var meta domain.ChunkMeta
	index := 0

	for _, block := range blocks {
		text := strings.TrimSpace(block.Text)
		if text == "" {
			continue
		}
		length := utf8.RuneCountInString(text)

		if len(buf) == 0 {
			buf = append(buf, text)
			size = length
			meta = block.Meta
			continue
		}

		if size+1+length > c.MaxChars {
			chunkText := strings.Join(buf, " ")
			out = append(out, domain.ChunkDraft{Index: index, Text: chunkText, Meta: meta})
			index++

			tail := overlapTail(chunkText, c.Overlap)
			if tail == "" {
				buf = []string{text}
				size = length
			} else {
				buf = []string{tail, text}
				size = utf8.RuneCountInString(tail) + 1 + length
			}
			meta = block.Meta
			continue
		}

		buf = append(buf, text)
		size += 1 + length
	}

	if len(buf) > 0 {
		out = append(out, domain.ChunkDraft{Index: index, Text: strings.Join(buf, " "), Meta: meta})
	}
	return out
}

// overlapTail returns the trailing n characters of text, or "" when the
// text is not longer than n.
func overlapTail(text string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(text)
	if len(runes) <= n {
		return ""
	}
	return string(runes[len(runes)-n:])
}
