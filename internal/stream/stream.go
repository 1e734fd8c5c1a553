// Package stream encodes pipeline progress as an ordered event stream. Live
// runs and cached replays go through the same producer contract so consumers
// see one event shape regardless of origin.
package stream

import (
	"context"
	"errors"
	"sync"

	"github.com/tzhao11/lectern/internal/domain"
)

// Sink receives encoded events. Implementations translate events onto a wire
// (SSE, test capture). Send must be safe to call from one goroutine at a
// time; the emitter serializes callers.
type Sink interface {
	Send(ev domain.StreamEvent) error
}

// Producer drives one stream to completion over a sink.
type Producer interface {
	Produce(ctx context.Context, sink Sink) error
}

// Status texts shown while the corresponding task runs.
var statusText = map[domain.TaskName]string{
	domain.TaskFetch:     "Fetching transcript...",
	domain.TaskSummarize: "Generating lecture notes...",
	domain.TaskExtract:   "Extracting key concepts...",
}

// StatusPayload is the data for a status event.
type StatusPayload struct {
	Message string `json:"message"`
}

// emitter serializes event emission and checks for consumer cancellation
// before every event. Once the consumer is gone, nothing more is written.
type emitter struct {
	ctx  context.Context
	sink Sink
	mu   sync.Mutex
}

func newEmitter(ctx context.Context, sink Sink) *emitter {
	return &emitter{ctx: ctx, sink: sink}
}

func (e *emitter) emit(kind domain.EventKind, payload any) error {
	if err := e.ctx.Err(); err != nil {
		return err
	}

	ev, err := domain.NewStreamEvent(kind, payload)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.sink.Send(ev); err != nil {
		return &domain.StreamError{Err: err}
	}
	return nil
}

// Run drives a producer and terminates the stream on failure with a single
// error event. Consumer cancellation ends the stream silently. The producer's
// error is returned either way so callers can log it.
func Run(ctx context.Context, p Producer, sink Sink) error {
	if err := p.Produce(ctx, sink); err != nil {
		return Fail(ctx, sink, err)
	}
	return nil
}

// Fail terminates a stream with a single error event carrying the error's
// wire code. Cancellation and broken sinks produce no event.
func Fail(ctx context.Context, sink Sink, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var streamErr *domain.StreamError
	if errors.As(err, &streamErr) {
		// The sink is broken; an error event cannot reach the consumer.
		return err
	}

	em := newEmitter(ctx, sink)
	_ = em.emit(domain.EventError, domain.ErrorPayload{
		Code:    ErrorCode(err),
		Message: err.Error(),
	})
	return err
}

// ErrorCode maps a pipeline error to its wire code.
func ErrorCode(err error) string {
	var (
		invalidRef *domain.InvalidReferenceError
		notFound   *domain.NotFoundError
		adapter    *domain.AdapterError
		partial    *domain.PartialFailureError
		duplicate  *domain.DuplicateUpdateError
		stream     *domain.StreamError
	)
	switch {
	case errors.As(err, &invalidRef):
		return "invalid_reference"
	case errors.As(err, &notFound):
		return "not_found"
	case errors.As(err, &partial):
		return "partial_failure"
	case errors.As(err, &adapter):
		return "adapter_error"
	case errors.As(err, &duplicate):
		return "duplicate_update"
	case errors.As(err, &stream):
		return "stream_error"
	default:
		return "internal"
	}
}
