package stream

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tzhao11/lectern/internal/domain"
)

type captureSink struct {
	mu     sync.Mutex
	events []domain.StreamEvent
	failAt int // fail the Nth Send (1-based), 0 disables
	sends  int
}

func (c *captureSink) Send(ev domain.StreamEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sends++
	if c.failAt > 0 && c.sends >= c.failAt {
		return errors.New("client gone")
	}
	c.events = append(c.events, ev)
	return nil
}

func (c *captureSink) kinds() []domain.EventKind {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.EventKind, 0, len(c.events))
	for _, ev := range c.events {
		out = append(out, ev.Type)
	}
	return out
}

// withoutStatus drops the informational status events, leaving the ordered
// protocol skeleton every stream must share.
func withoutStatus(kinds []domain.EventKind) []domain.EventKind {
	out := make([]domain.EventKind, 0, len(kinds))
	for _, k := range kinds {
		if k != domain.EventStatus {
			out = append(out, k)
		}
	}
	return out
}

func storedRecord() *domain.CacheRecord {
	cls := &domain.Classification{PrimaryType: "science", Confidence: 0.7, Matched: []string{"cell", "dna", "atom"}}
	return &domain.CacheRecord{
		RecordID: "rec_ab12cd34",
		Record: domain.NoteRecord{
			SourceKey:      "dQw4w9WgXcQ",
			SourceURL:      "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
			Transcript:     "the cell is the basic unit of life",
			Meta:           domain.SourceMeta{Title: "Cell Biology 101", Channel: "BioHub"},
			Notes:          "# Cell Biology\n\nCells are the basic unit of life. DNA carries the genome.",
			Concepts:       []domain.Concept{{Name: "Cell", Category: "term", Confidence: 0.9, Importance: "high"}},
			Classification: cls,
			TaskTrace:      []domain.TaskName{domain.TaskFetch, domain.TaskSummarize, domain.TaskExtract},
		},
		CreatedAt: time.Now().Add(-6 * 24 * time.Hour),
	}
}

func TestReplayProducesFullSequence(t *testing.T) {
	sink := &captureSink{}
	p := NewReplayProducer(storedRecord(), 20, 0)

	require.NoError(t, p.Produce(context.Background(), sink))

	kinds := sink.kinds()
	assert.Equal(t, domain.EventCache, kinds[0])
	assert.Equal(t, domain.EventMetadata, kinds[1])
	assert.Equal(t, domain.EventComplete, kinds[len(kinds)-1])

	skeleton := withoutStatus(kinds)
	assert.Equal(t, domain.EventNotesComplete, skeleton[len(skeleton)-3])
	assert.Equal(t, domain.EventConcepts, skeleton[len(skeleton)-2])

	for _, k := range skeleton[2 : len(skeleton)-3] {
		assert.Equal(t, domain.EventChunk, k)
	}
}

func TestReplayCacheEventCarriesAge(t *testing.T) {
	sink := &captureSink{}
	rec := storedRecord()
	p := NewReplayProducer(rec, 50, 0)

	require.NoError(t, p.Produce(context.Background(), sink))

	var payload domain.CachePayload
	require.NoError(t, json.Unmarshal(sink.events[0].Data, &payload))
	assert.True(t, payload.FromCache)
	assert.NotEmpty(t, payload.CachedAt)
	assert.InDelta(t, 144, payload.CacheAgeHours, 1)
}

func TestReplayChunksReassembleNotes(t *testing.T) {
	sink := &captureSink{}
	rec := storedRecord()
	p := NewReplayProducer(rec, 7, 0)

	require.NoError(t, p.Produce(context.Background(), sink))

	var rebuilt string
	for _, ev := range sink.events {
		if ev.Type != domain.EventChunk {
			continue
		}
		var payload ChunkPayload
		require.NoError(t, json.Unmarshal(ev.Data, &payload))
		rebuilt += payload.Text
	}
	assert.Equal(t, rec.Record.Notes, rebuilt)
}

func TestReplayStopsOnCancellation(t *testing.T) {
	sink := &captureSink{}
	ctx, cancel := context.WithCancel(context.Background())
	p := NewReplayProducer(storedRecord(), 5, 0)

	// Cancel once metadata is out; no event after that point may be sent.
	cancellingSink := sinkFunc(func(ev domain.StreamEvent) error {
		err := sink.Send(ev)
		if ev.Type == domain.EventMetadata {
			cancel()
		}
		return err
	})

	err := p.Produce(ctx, cancellingSink)
	assert.True(t, errors.Is(err, context.Canceled))

	kinds := sink.kinds()
	assert.Equal(t, []domain.EventKind{domain.EventCache, domain.EventMetadata}, kinds)
}

type sinkFunc func(ev domain.StreamEvent) error

func (f sinkFunc) Send(ev domain.StreamEvent) error { return f(ev) }

func TestReplaySinkFailureBecomesStreamError(t *testing.T) {
	sink := &captureSink{failAt: 2}
	p := NewReplayProducer(storedRecord(), 50, 0)

	err := p.Produce(context.Background(), sink)

	var streamErr *domain.StreamError
	assert.True(t, errors.As(err, &streamErr))
}

func TestRunEmitsErrorEvent(t *testing.T) {
	sink := &captureSink{}
	p := producerFunc(func(ctx context.Context, s Sink) error {
		return &domain.NotFoundError{Key: "dQw4w9WgXcQ", Reason: "no transcript available"}
	})

	err := Run(context.Background(), p, sink)
	assert.Error(t, err)

	kinds := sink.kinds()
	require.Len(t, kinds, 1)
	assert.Equal(t, domain.EventError, kinds[0])

	var payload domain.ErrorPayload
	require.NoError(t, json.Unmarshal(sink.events[0].Data, &payload))
	assert.Equal(t, "not_found", payload.Code)
}

func TestRunStaysSilentOnCancellation(t *testing.T) {
	sink := &captureSink{}
	p := producerFunc(func(ctx context.Context, s Sink) error {
		return context.Canceled
	})

	err := Run(context.Background(), p, sink)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Empty(t, sink.kinds())
}

type producerFunc func(ctx context.Context, sink Sink) error

func (f producerFunc) Produce(ctx context.Context, sink Sink) error { return f(ctx, sink) }

func TestErrorCodeMapping(t *testing.T) {
	cases := []struct {
		err  error
		code string
	}{
		{&domain.InvalidReferenceError{Reference: "x", Reason: "no id"}, "invalid_reference"},
		{&domain.NotFoundError{Key: "dQw4w9WgXcQ", Reason: "gone"}, "not_found"},
		{&domain.AdapterError{Task: domain.TaskSummarize, Err: errors.New("down")}, "adapter_error"},
		{&domain.PartialFailureError{FailedTask: domain.TaskExtract, Err: errors.New("down")}, "partial_failure"},
		{&domain.DuplicateUpdateError{Task: domain.TaskExtract}, "duplicate_update"},
		{&domain.StreamError{Err: errors.New("pipe")}, "stream_error"},
		{errors.New("boom"), "internal"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.code, ErrorCode(tc.err))
	}
}
