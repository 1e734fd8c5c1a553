package domain

import "encoding/json"

// EventKind tags one streamed message.
type EventKind string

const (
	EventCache         EventKind = "cache"
	EventStatus        EventKind = "status"
	EventMetadata      EventKind = "metadata"
	EventChunk         EventKind = "chunk"
	EventNotesComplete EventKind = "notes_complete"
	EventConcepts      EventKind = "concepts"
	EventComplete      EventKind = "complete"
	EventError         EventKind = "error"
)

// StreamEvent is one typed message in the ordered streaming response.
//
// Kind ordering within one stream: cache (optional) and status events may
// interleave, metadata precedes all chunk events, notes_complete follows the
// last chunk and precedes concepts, complete is always last. An error event
// terminates the stream; no complete follows it.
type StreamEvent struct {
	Type EventKind       `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// NewStreamEvent builds an event with a marshalled payload. A nil payload
// produces an event with no data field.
func NewStreamEvent(kind EventKind, payload any) (StreamEvent, error) {
	ev := StreamEvent{Type: kind}
	if payload == nil {
		return ev, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return StreamEvent{}, err
	}
	ev.Data = data
	return ev, nil
}

// CachePayload is the data for a cache event.
type CachePayload struct {
	FromCache     bool    `json:"from_cache"`
	CachedAt      string  `json:"cached_at,omitempty"`
	CacheAgeHours float64 `json:"cache_age_hours,omitempty"`
	Reason        string  `json:"reason,omitempty"`
}

// MetadataPayload is the data for a metadata event.
type MetadataPayload struct {
	SourceKey  SourceKey `json:"source_key"`
	SourceURL  string    `json:"source_url"`
	Title      string    `json:"title"`
	Channel    string    `json:"channel"`
	Duration   int       `json:"duration,omitempty"`
	Transcript string    `json:"transcript"`
}

// MetadataPayloadFor builds the metadata event payload from a record's
// fetch-stage fields.
func MetadataPayloadFor(rec *NoteRecord) MetadataPayload {
	return MetadataPayload{
		SourceKey:  rec.SourceKey,
		SourceURL:  rec.SourceURL,
		Title:      rec.Meta.Title,
		Channel:    rec.Meta.Channel,
		Duration:   rec.Meta.Duration,
		Transcript: rec.Transcript,
	}
}

// ConceptsPayload is the data for a concepts event.
type ConceptsPayload struct {
	Concepts       []Concept       `json:"concepts"`
	Classification *Classification `json:"classification,omitempty"`
}

// ErrorPayload is the data for an error event.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
