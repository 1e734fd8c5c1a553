package stream

import (
	"context"
	"fmt"

	"github.com/tzhao11/lectern/internal/adapter/fetch"
	"github.com/tzhao11/lectern/internal/domain"
	"github.com/tzhao11/lectern/internal/pipeline"
)

// Runner runs the processing graph. Satisfied by *pipeline.Executor.
type Runner interface {
	Run(ctx context.Context, sourceURL string, hooks *pipeline.Hooks) (*domain.NoteRecord, error)
}

// LiveProducer streams a fresh pipeline run as it happens. Notes chunks flow
// through as the summarize task generates them; the concepts event is held
// back until after notes_complete so the event order matches a replay.
type LiveProducer struct {
	runner    Runner
	sourceURL string
	forced    bool

	// onComplete runs after a successful run, before the complete event.
	// A cancelled or failed run never reaches it.
	onComplete func(ctx context.Context, rec *domain.NoteRecord) error
}

// NewLiveProducer creates a live producer for one source URL. The forced flag
// reports on the cache event that a stored record was deliberately bypassed.
// onComplete may be nil.
func NewLiveProducer(runner Runner, sourceURL string, forced bool, onComplete func(ctx context.Context, rec *domain.NoteRecord) error) *LiveProducer {
	return &LiveProducer{
		runner:     runner,
		sourceURL:  sourceURL,
		forced:     forced,
		onComplete: onComplete,
	}
}

// Produce emits the live sequence: cache (forced runs only), statuses,
// metadata, notes chunks, notes_complete, concepts, complete.
func (p *LiveProducer) Produce(ctx context.Context, sink Sink) error {
	em := newEmitter(ctx, sink)

	if p.forced {
		if err := em.emit(domain.EventCache, domain.CachePayload{
			FromCache: false,
			Reason:    "forced_reprocess",
		}); err != nil {
			return err
		}
	}

	hooks := &pipeline.Hooks{
		TaskStarted: func(task domain.TaskName) {
			// Status events are informational; a cancelled emit here is caught
			// by the next chunk or by the run's own context.
			_ = em.emit(domain.EventStatus, StatusPayload{Message: statusText[task]})
		},
		TaskCompleted: func(task domain.TaskName) {
			if task == domain.TaskSummarize {
				_ = em.emit(domain.EventNotesComplete, nil)
			}
		},
		FetchCompleted: func(result *fetch.Result) {
			rec := domain.NoteRecord{
				SourceKey:  result.Key,
				SourceURL:  p.sourceURL,
				Transcript: result.Transcript,
				Meta:       result.Meta,
			}
			_ = em.emit(domain.EventMetadata, domain.MetadataPayloadFor(&rec))
		},
		SummaryChunk: func(text string) error {
			return em.emit(domain.EventChunk, ChunkPayload{Text: text})
		},
	}

	rec, err := p.runner.Run(ctx, p.sourceURL, hooks)
	if err != nil {
		return err
	}

	if err := em.emit(domain.EventConcepts, domain.ConceptsPayload{
		Concepts:       rec.Concepts,
		Classification: rec.Classification,
	}); err != nil {
		return err
	}

	if p.onComplete != nil {
		if err := p.onComplete(ctx, rec); err != nil {
			return fmt.Errorf("failed to finalize run: %w", err)
		}
	}

	return em.emit(domain.EventComplete, nil)
}
