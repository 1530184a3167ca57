package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation covers malformed or duplicate ingestion input, e.g. a
	// reused version tag. Never retried.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound signals a missing document or stored file.
	ErrNotFound = errors.New("not found")

	// ErrEmbeddingProvider is a failure of the embedding backend after any
	// bounded retries have been exhausted.
	ErrEmbeddingProvider = errors.New("embedding provider failure")

	// ErrStorage is a vector store or metadata store failure. Ingestion
	// treats it as failed-and-rollback; retrieval surfaces it rather than
	// masking an outage as an empty result.
	ErrStorage = errors.New("storage failure")

	// ErrGeneration is a language-model backend failure, distinct from a
	// no-grounding refusal.
	ErrGeneration = errors.New("generation failure")

	// ErrTemporary marks transient failures a caller may retry.
	ErrTemporary = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
