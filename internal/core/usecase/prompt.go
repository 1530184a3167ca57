package usecase

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/toolkitrag/grounded/internal/core/domain"
)

const groundedSystemPrompt = `You are a helpful assistant that answers questions based ONLY on the provided toolkit content.
Rules:
- Answer using only the numbered context passages below.
- Cite every claim with the passage number in square brackets, like [1] or [2].
- If the context does not contain the answer, reply exactly: Not found in the toolkit
- Do not invent tools, steps, or behavior that the passages do not describe.`

const citationExcerptRunes = 100

var citationMarkerRE = regexp.MustCompile(`\[(\d+)\]`)

// buildGroundedPrompt renders the retrieved passages as a 1-indexed context
// block followed by the question. The context is truncated at maxChars on a
// passage boundary where possible so citation indices stay valid.
func buildGroundedPrompt(question string, candidates []domain.RetrievalCandidate, maxChars int) (string, string) {
	var b strings.Builder
	b.WriteString("Context:\n")
	for i, c := range candidates {
		passage := fmt.Sprintf("[%d] %s\n%s\n\n", i+1, passageLabel(c), c.Chunk.Text)
		if b.Len()+len(passage) > maxChars {
			remaining := maxChars - b.Len()
			if remaining > 0 {
				b.WriteString(truncateRunes(passage, remaining))
				b.WriteString("...\n")
			}
			break
		}
		b.WriteString(passage)
	}
	b.WriteString("Question: ")
	b.WriteString(question)
	return groundedSystemPrompt, b.String()
}

func passageLabel(c domain.RetrievalCandidate) string {
	parts := make([]string, 0, 3)
	if c.Chunk.Meta.Cluster != "" {
		parts = append(parts, c.Chunk.Meta.Cluster)
	}
	if c.Chunk.Meta.Heading != "" {
		parts = append(parts, c.Chunk.Meta.Heading)
	}
	if len(parts) == 0 {
		parts = append(parts, c.DocumentVersion)
	}
	return strings.Join(parts, " / ")
}

// mapCitations resolves [n] markers in the model output against the
// candidate set. Markers outside the 1..len(candidates) range are dropped.
// Each candidate is cited at most once, in order of first mention. The
// second return value is the count of distinct markers found, valid or not,
// so callers can tell "cited nothing" from "cited only garbage".
func mapCitations(text string, candidates []domain.RetrievalCandidate) ([]domain.Citation, int) {
	matches := citationMarkerRE.FindAllStringSubmatch(text, -1)

	seen := make(map[int]struct{}, len(matches))
	citations := make([]domain.Citation, 0, len(matches))
	markers := 0
	for _, m := range matches {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		markers++
		if n < 1 || n > len(candidates) {
			continue
		}
		c := candidates[n-1]
		citations = append(citations, domain.Citation{
			ChunkID:         c.Chunk.ID,
			Heading:         c.Chunk.Meta.Heading,
			Cluster:         c.Chunk.Meta.Cluster,
			ToolName:        c.Chunk.Meta.ToolName,
			Excerpt:         truncateRunes(c.Chunk.Text, citationExcerptRunes),
			Similarity:      c.Similarity,
			DocumentVersion: c.DocumentVersion,
		})
	}
	return citations, markers
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
