package parser

import (
	"context"
	"io"
	"path/filepath"
	"strings"

	"github.com/toolkitrag/grounded/internal/core/domain"
	"github.com/toolkitrag/grounded/internal/core/ports"
	"github.com/toolkitrag/grounded/internal/infrastructure/parser/pdfdoc"
	"github.com/toolkitrag/grounded/internal/infrastructure/parser/plaintext"
)

// Registry dispatches to a concrete parser by filename extension.
type Registry struct {
	plain ports.DocumentParser
	pdf   ports.DocumentParser
}

func NewRegistry() *Registry {
	return &Registry{
		plain: plaintext.New(),
		pdf:   pdfdoc.New(),
	}
}

func (reg *Registry) Parse(ctx context.Context, filename string, r io.Reader) ([]domain.Block, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return reg.pdf.Parse(ctx, filename, r)
	default:
		return reg.plain.Parse(ctx, filename, r)
	}
}
