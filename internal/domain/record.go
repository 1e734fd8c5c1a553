// Package domain defines the core domain models for the lecture pipeline.
package domain

import "time"

// TaskName identifies one node of the processing graph.
type TaskName string

const (
	TaskFetch     TaskName = "fetch_transcript"
	TaskSummarize TaskName = "summarize"
	TaskExtract   TaskName = "extract_concepts"
)

// SourceMeta is the descriptive metadata of a lecture source.
type SourceMeta struct {
	Title    string `json:"title"`
	Channel  string `json:"channel"`
	Duration int    `json:"duration,omitempty"` // seconds
}

// Concept is one structured item extracted from a transcript.
type Concept struct {
	Name       string   `json:"name"`
	Category   string   `json:"category"`
	Definition string   `json:"definition,omitempty"`
	Snippet    string   `json:"snippet"`
	Timestamp  *float64 `json:"timestamp,omitempty"` // seconds into the lecture
	Confidence float64  `json:"confidence"`
	Importance string   `json:"importance"` // high, medium, low
}

// Classification is the detected content type of a lecture.
type Classification struct {
	PrimaryType string   `json:"primary_type"` // science, history, business, tech, math, general
	Confidence  float64  `json:"confidence"`
	Matched     []string `json:"keywords_matched"`
}

// NoteRecord is the accumulating result of one pipeline run.
//
// Every field except TaskTrace is written by exactly one task exactly once:
// Transcript and Meta by the fetch task, Notes by the summarize task,
// Concepts and Classification by the extract task. TaskTrace is append-only
// and records actual completion order, which is any topological order of the
// graph (fetch always first).
type NoteRecord struct {
	SourceKey      SourceKey       `json:"source_key"`
	SourceURL      string          `json:"source_url"`
	Transcript     string          `json:"transcript"`
	Meta           SourceMeta      `json:"meta"`
	Notes          string          `json:"notes"`
	Concepts       []Concept       `json:"concepts"`
	Classification *Classification `json:"classification,omitempty"`
	TaskTrace      []TaskName      `json:"task_trace"`
}

// CacheRecord is a persisted prior NoteRecord plus its storage identity and
// creation time. Later runs for the same SourceKey supersede, not delete.
type CacheRecord struct {
	RecordID  string     `json:"record_id"`
	Record    NoteRecord `json:"record"`
	CreatedAt time.Time  `json:"created_at"`
}

// Age returns how long ago the record was created.
func (c *CacheRecord) Age(now time.Time) time.Duration {
	return now.Sub(c.CreatedAt)
}
