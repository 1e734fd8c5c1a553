package stream

import (
	"context"
	"time"

	"github.com/tzhao11/lectern/internal/domain"
)

// ReplayProducer streams a stored record as if it were being generated,
// chunking the notes text at a fixed size with a pacing delay between chunks.
type ReplayProducer struct {
	record     *domain.CacheRecord
	chunkSize  int
	chunkDelay time.Duration
	now        func() time.Time
}

// NewReplayProducer creates a replay over a stored record.
func NewReplayProducer(record *domain.CacheRecord, chunkSize int, chunkDelay time.Duration) *ReplayProducer {
	return &ReplayProducer{
		record:     record,
		chunkSize:  chunkSize,
		chunkDelay: chunkDelay,
		now:        time.Now,
	}
}

// ChunkPayload is the data for a chunk event.
type ChunkPayload struct {
	Text string `json:"text"`
}

// Produce emits the full replay sequence: cache, metadata, notes chunks,
// notes_complete, concepts, complete.
func (p *ReplayProducer) Produce(ctx context.Context, sink Sink) error {
	em := newEmitter(ctx, sink)
	rec := &p.record.Record

	age := p.record.Age(p.now())
	if err := em.emit(domain.EventCache, domain.CachePayload{
		FromCache:     true,
		CachedAt:      p.record.CreatedAt.UTC().Format(time.RFC3339),
		CacheAgeHours: age.Hours(),
	}); err != nil {
		return err
	}

	if err := em.emit(domain.EventMetadata, domain.MetadataPayloadFor(rec)); err != nil {
		return err
	}

	for _, chunk := range chunkRunes(rec.Notes, p.chunkSize) {
		if err := em.emit(domain.EventChunk, ChunkPayload{Text: chunk}); err != nil {
			return err
		}
		if p.chunkDelay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(p.chunkDelay):
			}
		}
	}

	if err := em.emit(domain.EventNotesComplete, nil); err != nil {
		return err
	}

	if err := em.emit(domain.EventConcepts, domain.ConceptsPayload{
		Concepts:       rec.Concepts,
		Classification: rec.Classification,
	}); err != nil {
		return err
	}

	return em.emit(domain.EventComplete, nil)
}

// chunkRunes splits text into fixed-size rune groups so multibyte characters
// are never split mid-sequence.
func chunkRunes(text string, size int) []string {
	if text == "" {
		return nil
	}
	runes := []rune(text)
	if size <= 0 {
		size = len(runes)
	}
	chunks := make([]string, 0, len(runes)/size+1)
	for i := 0; i < len(runes); i += size {
		end := i + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[i:end]))
	}
	return chunks
}
