package pdfdoc

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/ledongthuc/pdf"

	"github.com/toolkitrag/grounded/internal/core/domain"
	"github.com/toolkitrag/grounded/internal/infrastructure/parser/plaintext"
)

// Parser extracts plain text from a PDF and reuses the plaintext block
// splitter. PDFs carry no reliable heading structure, so blocks inherit no
// section metadata.
type Parser struct{}

func New() *Parser {
	return &Parser{}
}

func (p *Parser) Parse(_ context.Context, filename string, r io.Reader) ([]domain.Block, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, domain.WrapError(domain.ErrValidation, "read pdf document", err)
	}

	reader, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return nil, domain.WrapError(domain.ErrValidation, "parse pdf document",
			fmt.Errorf("%s: %w", filename, err))
	}

	textReader, err := reader.GetPlainText()
	if err != nil {
		return nil, domain.WrapError(domain.ErrValidation, "extract pdf text",
			fmt.Errorf("%s: %w", filename, err))
	}
	text, err := io.ReadAll(textReader)
	if err != nil {
		return nil, domain.WrapError(domain.ErrValidation, "extract pdf text", err)
	}

	return plaintext.Blocks(string(text)), nil
}
