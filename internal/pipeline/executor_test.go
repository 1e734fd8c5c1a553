package pipeline

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/tzhao11/lectern/internal/adapter/extractor"
	"github.com/tzhao11/lectern/internal/adapter/fetch"
	"github.com/tzhao11/lectern/internal/domain"
)

type fakeFetcher struct {
	result *fetch.Result
	err    error
}

func (f *fakeFetcher) Fetch(ctx context.Context, sourceURL string) (*fetch.Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeSummarizer struct {
	notes  string
	chunks []string
	err    error
	calls  atomic.Int32
}

func (f *fakeSummarizer) Summarize(ctx context.Context, transcript, title string) (string, error) {
	f.calls.Add(1)
	return f.notes, f.err
}

func (f *fakeSummarizer) SummarizeStream(ctx context.Context, transcript, title string, onChunk func(string) error) (string, error) {
	f.calls.Add(1)
	if f.err != nil {
		return "", f.err
	}
	for _, c := range f.chunks {
		if err := onChunk(c); err != nil {
			return "", err
		}
	}
	return f.notes, nil
}

type fakeExtractor struct {
	extraction *extractor.Extraction
	err        error
	calls      atomic.Int32
}

func (f *fakeExtractor) Extract(ctx context.Context, transcript, title string) (*extractor.Extraction, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return f.extraction, nil
}

func fetchedResult() *fetch.Result {
	return &fetch.Result{
		Key:        "dQw4w9WgXcQ",
		Transcript: "the mitochondria is the powerhouse of the cell",
		Meta:       domain.SourceMeta{Title: "Cell Biology 101", Channel: "BioHub"},
	}
}

func okExtraction() *extractor.Extraction {
	return &extractor.Extraction{
		Concepts:       []domain.Concept{{Name: "Mitochondria", Category: "term", Confidence: 0.9, Importance: "high"}},
		Classification: domain.Classification{PrimaryType: "science", Confidence: 0.7},
	}
}

func TestExecutorRunSuccess(t *testing.T) {
	e := NewExecutor(
		&fakeFetcher{result: fetchedResult()},
		&fakeSummarizer{notes: "# Cell Biology Notes"},
		&fakeExtractor{extraction: okExtraction()},
		zap.NewNop(),
	)

	rec, err := e.Run(context.Background(), "https://www.youtube.com/watch?v=dQw4w9WgXcQ", nil)
	assert.NoError(t, err)
	assert.Equal(t, domain.SourceKey("dQw4w9WgXcQ"), rec.SourceKey)
	assert.Equal(t, "# Cell Biology Notes", rec.Notes)
	assert.Len(t, rec.Concepts, 1)
	assert.Equal(t, "science", rec.Classification.PrimaryType)

	assert.Len(t, rec.TaskTrace, 3)
	assert.Equal(t, domain.TaskFetch, rec.TaskTrace[0])
	assert.ElementsMatch(t,
		[]domain.TaskName{domain.TaskSummarize, domain.TaskExtract},
		rec.TaskTrace[1:])
}

func TestExecutorFetchFailureSkipsLeaves(t *testing.T) {
	summ := &fakeSummarizer{notes: "unused"}
	ext := &fakeExtractor{extraction: okExtraction()}
	e := NewExecutor(
		&fakeFetcher{err: &domain.NotFoundError{Key: "dQw4w9WgXcQ", Reason: "no transcript available"}},
		summ, ext, zap.NewNop(),
	)

	rec, err := e.Run(context.Background(), "https://www.youtube.com/watch?v=dQw4w9WgXcQ", nil)
	assert.Nil(t, rec)

	var notFound *domain.NotFoundError
	assert.True(t, errors.As(err, &notFound))
	assert.Equal(t, int32(0), summ.calls.Load())
	assert.Equal(t, int32(0), ext.calls.Load())
}

func TestExecutorFetchAdapterFailureIsWrapped(t *testing.T) {
	e := NewExecutor(
		&fakeFetcher{err: errors.New("connection refused")},
		&fakeSummarizer{}, &fakeExtractor{}, zap.NewNop(),
	)

	_, err := e.Run(context.Background(), "https://www.youtube.com/watch?v=dQw4w9WgXcQ", nil)

	var adapterErr *domain.AdapterError
	assert.True(t, errors.As(err, &adapterErr))
	assert.Equal(t, domain.TaskFetch, adapterErr.Task)
}

func TestExecutorPartialFailureReturnsPartialRecord(t *testing.T) {
	e := NewExecutor(
		&fakeFetcher{result: fetchedResult()},
		&fakeSummarizer{err: errors.New("model overloaded")},
		&fakeExtractor{extraction: okExtraction()},
		zap.NewNop(),
	)

	rec, err := e.Run(context.Background(), "https://www.youtube.com/watch?v=dQw4w9WgXcQ", nil)

	var partial *domain.PartialFailureError
	assert.True(t, errors.As(err, &partial))
	assert.Equal(t, domain.TaskSummarize, partial.FailedTask)

	// The surviving leaf's results are present for inspection.
	assert.NotNil(t, rec)
	assert.Len(t, rec.Concepts, 1)
	assert.Empty(t, rec.Notes)
	assert.Equal(t, []domain.TaskName{domain.TaskFetch, domain.TaskExtract}, rec.TaskTrace)
}

func TestExecutorBothLeavesFail(t *testing.T) {
	e := NewExecutor(
		&fakeFetcher{result: fetchedResult()},
		&fakeSummarizer{err: errors.New("summarize down")},
		&fakeExtractor{err: errors.New("extract down")},
		zap.NewNop(),
	)

	rec, err := e.Run(context.Background(), "https://www.youtube.com/watch?v=dQw4w9WgXcQ", nil)
	assert.Nil(t, rec)

	var adapterErr *domain.AdapterError
	assert.True(t, errors.As(err, &adapterErr))
	assert.Equal(t, domain.TaskSummarize, adapterErr.Task)

	var partial *domain.PartialFailureError
	assert.False(t, errors.As(err, &partial))
}

func TestExecutorStreamsThroughChunkHook(t *testing.T) {
	e := NewExecutor(
		&fakeFetcher{result: fetchedResult()},
		&fakeSummarizer{notes: "hello world", chunks: []string{"hello ", "world"}},
		&fakeExtractor{extraction: okExtraction()},
		zap.NewNop(),
	)

	// Both leaf goroutines fire the lifecycle hooks concurrently.
	var mu sync.Mutex
	var chunks []string
	var started, completed []domain.TaskName
	hooks := &Hooks{
		TaskStarted: func(task domain.TaskName) {
			mu.Lock()
			defer mu.Unlock()
			started = append(started, task)
		},
		TaskCompleted: func(task domain.TaskName) {
			mu.Lock()
			defer mu.Unlock()
			completed = append(completed, task)
		},
		SummaryChunk: func(text string) error {
			mu.Lock()
			defer mu.Unlock()
			chunks = append(chunks, text)
			return nil
		},
	}

	rec, err := e.Run(context.Background(), "https://www.youtube.com/watch?v=dQw4w9WgXcQ", hooks)
	assert.NoError(t, err)
	assert.Equal(t, []string{"hello ", "world"}, chunks)
	assert.Equal(t, "hello world", rec.Notes)
	assert.Contains(t, started, domain.TaskFetch)
	assert.Contains(t, completed, domain.TaskSummarize)
	assert.Contains(t, completed, domain.TaskExtract)
}

func TestExecutorChunkHookAbortsSummarize(t *testing.T) {
	e := NewExecutor(
		&fakeFetcher{result: fetchedResult()},
		&fakeSummarizer{notes: "hello world", chunks: []string{"hello ", "world"}},
		&fakeExtractor{extraction: okExtraction()},
		zap.NewNop(),
	)

	hooks := &Hooks{
		SummaryChunk: func(text string) error { return context.Canceled },
	}

	_, err := e.Run(context.Background(), "https://www.youtube.com/watch?v=dQw4w9WgXcQ", hooks)
	assert.True(t, errors.Is(err, context.Canceled))
}
