package plaintext

import (
	"context"
	"errors"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/toolkitrag/grounded/internal/core/domain"
)

// Parser reads UTF-8 text or markdown and emits paragraph blocks carrying
// the heading context active at each point. A level-1 heading opens a new
// section; deeper headings set the current heading within it.
type Parser struct{}

func New() *Parser {
	return &Parser{}
}

func (p *Parser) Parse(_ context.Context, filename string, r io.Reader) ([]domain.Block, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, domain.WrapError(domain.ErrValidation, "read source document", err)
	}
	if !utf8.Valid(raw) {
		return nil, domain.WrapError(domain.ErrValidation, "parse source document",
			errors.New("not valid UTF-8 text: "+filename))
	}
	return Blocks(string(raw)), nil
}

// Blocks splits text into paragraph blocks on blank lines and tracks
// markdown-style headings.
func Blocks(text string) []domain.Block {
	var out []domain.Block
	var meta domain.ChunkMeta
	var para []string

	flush := func() {
		if len(para) == 0 {
			return
		}
		out = append(out, domain.Block{Text: strings.Join(para, " "), Meta: meta})
		para = para[:0]
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, " \t\r")
		trimmed := strings.TrimSpace(line)

		if trimmed == "" {
			flush()
			continue
		}

		if level, title := headingLine(trimmed); level > 0 {
			flush()
			if level == 1 {
				meta.Section = title
				meta.Heading = title
			} else {
				meta.Heading = title
			}
			out = append(out, domain.Block{Text: title, Meta: meta})
			continue
		}

		para = append(para, trimmed)
	}
	flush()
	return out
}

func headingLine(line string) (int, string) {
	if !strings.HasPrefix(line, "#") {
		return 0, ""
	}
	level := 0
	for level < len(line) && line[level] == '#' {
		level++
	}
	title := strings.TrimSpace(line[level:])
	if title == "" {
		return 0, ""
	}
	return level, title
}
