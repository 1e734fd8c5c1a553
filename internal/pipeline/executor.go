package pipeline

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/tzhao11/lectern/internal/adapter/extractor"
	"github.com/tzhao11/lectern/internal/adapter/fetch"
	"github.com/tzhao11/lectern/internal/domain"
)

// NotesGenerator is the summarize task contract.
type NotesGenerator interface {
	Summarize(ctx context.Context, transcript, title string) (string, error)
	SummarizeStream(ctx context.Context, transcript, title string, onChunk func(text string) error) (string, error)
}

// ConceptExtractor is the extract task contract.
type ConceptExtractor interface {
	Extract(ctx context.Context, transcript, title string) (*extractor.Extraction, error)
}

// Hooks observe task lifecycle during a run. All fields are optional. When
// SummaryChunk is set the summarize task streams its output through it; a
// non-nil return aborts the run.
type Hooks struct {
	TaskStarted    func(task domain.TaskName)
	TaskCompleted  func(task domain.TaskName)
	FetchCompleted func(result *fetch.Result)
	SummaryChunk   func(text string) error
}

func (h *Hooks) started(task domain.TaskName) {
	if h != nil && h.TaskStarted != nil {
		h.TaskStarted(task)
	}
}

func (h *Hooks) completed(task domain.TaskName) {
	if h != nil && h.TaskCompleted != nil {
		h.TaskCompleted(task)
	}
}

func (h *Hooks) fetchCompleted(result *fetch.Result) {
	if h != nil && h.FetchCompleted != nil {
		h.FetchCompleted(result)
	}
}

// Executor runs the processing graph. The graph shape is fixed: the fetch
// task runs first and fails fast; the summarize and extract tasks then run
// concurrently over its transcript.
type Executor struct {
	fetcher    fetch.TranscriptFetcher
	summarizer NotesGenerator
	extractor  ConceptExtractor
	logger     *zap.Logger
}

// NewExecutor wires an executor from its task adapters.
func NewExecutor(fetcher fetch.TranscriptFetcher, summarizer NotesGenerator, extractor ConceptExtractor, logger *zap.Logger) *Executor {
	return &Executor{
		fetcher:    fetcher,
		summarizer: summarizer,
		extractor:  extractor,
		logger:     logger,
	}
}

// Run processes one lecture URL through the full graph.
//
// A fetch failure aborts the run before either leaf starts. If exactly one
// leaf fails the error is a PartialFailureError and the partial record is
// returned alongside it; such a record must not be persisted. If both leaves
// fail the summarize error wins.
func (e *Executor) Run(ctx context.Context, sourceURL string, hooks *Hooks) (*domain.NoteRecord, error) {
	state := NewState()

	hooks.started(domain.TaskFetch)
	result, err := e.fetcher.Fetch(ctx, sourceURL)
	if err != nil {
		e.logger.Warn("transcript fetch failed", zap.String("url", sourceURL), zap.Error(err))
		return nil, taskError(domain.TaskFetch, err)
	}
	if err := state.Apply(domain.TaskFetch, Update{Task: TaskFields{
		SourceKey:  result.Key,
		SourceURL:  sourceURL,
		Transcript: result.Transcript,
		Meta:       &result.Meta,
	}}); err != nil {
		return nil, err
	}
	hooks.completed(domain.TaskFetch)
	hooks.fetchCompleted(result)
	e.logger.Info("transcript fetched",
		zap.String("source_key", result.Key.String()),
		zap.Int("transcript_len", len(result.Transcript)))

	var (
		wg         sync.WaitGroup
		summErr    error
		extractErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		summErr = e.runSummarize(ctx, state, result, hooks)
	}()
	go func() {
		defer wg.Done()
		extractErr = e.runExtract(ctx, state, result, hooks)
	}()
	wg.Wait()

	rec := state.Snapshot()

	switch {
	case summErr != nil && extractErr != nil:
		return nil, summErr
	case summErr != nil:
		return &rec, &domain.PartialFailureError{FailedTask: domain.TaskSummarize, Err: summErr}
	case extractErr != nil:
		return &rec, &domain.PartialFailureError{FailedTask: domain.TaskExtract, Err: extractErr}
	}

	e.logger.Info("run complete",
		zap.String("source_key", rec.SourceKey.String()),
		zap.Int("concepts", len(rec.Concepts)))
	return &rec, nil
}

func (e *Executor) runSummarize(ctx context.Context, state *State, result *fetch.Result, hooks *Hooks) error {
	hooks.started(domain.TaskSummarize)

	var notes string
	var err error
	if hooks != nil && hooks.SummaryChunk != nil {
		notes, err = e.summarizer.SummarizeStream(ctx, result.Transcript, result.Meta.Title, hooks.SummaryChunk)
	} else {
		notes, err = e.summarizer.Summarize(ctx, result.Transcript, result.Meta.Title)
	}
	if err != nil {
		e.logger.Warn("summarize failed", zap.String("source_key", result.Key.String()), zap.Error(err))
		return taskError(domain.TaskSummarize, err)
	}

	if err := state.Apply(domain.TaskSummarize, Update{Task: TaskFields{Notes: &notes}}); err != nil {
		return err
	}
	hooks.completed(domain.TaskSummarize)
	return nil
}

func (e *Executor) runExtract(ctx context.Context, state *State, result *fetch.Result, hooks *Hooks) error {
	hooks.started(domain.TaskExtract)

	ex, err := e.extractor.Extract(ctx, result.Transcript, result.Meta.Title)
	if err != nil {
		e.logger.Warn("extract failed", zap.String("source_key", result.Key.String()), zap.Error(err))
		return taskError(domain.TaskExtract, err)
	}

	concepts := ex.Concepts
	if concepts == nil {
		concepts = []domain.Concept{}
	}
	classification := ex.Classification
	if err := state.Apply(domain.TaskExtract, Update{Task: TaskFields{
		Concepts:       concepts,
		Classification: &classification,
	}}); err != nil {
		return err
	}
	hooks.completed(domain.TaskExtract)
	return nil
}

// taskError wraps adapter failures while letting domain errors pass through
// unchanged so the transport layer can map them to status codes.
func taskError(task domain.TaskName, err error) error {
	var invalidRef *domain.InvalidReferenceError
	var notFound *domain.NotFoundError
	if errors.As(err, &invalidRef) || errors.As(err, &notFound) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return &domain.AdapterError{Task: task, Err: err}
}
