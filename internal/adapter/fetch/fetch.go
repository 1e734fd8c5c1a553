// Package fetch resolves a lecture URL into transcript text and metadata.
package fetch

import (
	"context"

	"github.com/tzhao11/lectern/internal/domain"
)

// Result is the output of one transcript fetch.
type Result struct {
	Key        domain.SourceKey
	Transcript string
	Meta       domain.SourceMeta
}

// TranscriptFetcher is the content fetch contract consumed by the pipeline
// root task.
type TranscriptFetcher interface {
	// Fetch resolves the URL. It fails with domain.InvalidReferenceError for
	// malformed URLs and domain.NotFoundError when no transcript exists.
	Fetch(ctx context.Context, sourceURL string) (*Result, error)
}
