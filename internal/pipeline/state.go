// Package pipeline runs the fixed lecture processing graph: one fetch task
// followed by two concurrent leaf tasks, merging their results into a single
// accumulating record.
package pipeline

import (
	"sync"

	"github.com/tzhao11/lectern/internal/domain"
)

// Update is one task's contribution to the run state. Each task populates a
// disjoint set of fields, so merging is plain assignment plus trace append.
type Update struct {
	Task TaskFields
}

// TaskFields carries the writable fields of one task.
type TaskFields struct {
	// fetch_transcript
	SourceKey  domain.SourceKey
	SourceURL  string
	Transcript string
	Meta       *domain.SourceMeta

	// summarize
	Notes *string

	// extract_concepts
	Concepts       []domain.Concept
	Classification *domain.Classification
}

// State is the mutable run state. It is safe for concurrent updates from the
// leaf tasks; the task trace records actual completion order.
type State struct {
	mu      sync.Mutex
	record  domain.NoteRecord
	applied map[domain.TaskName]bool
}

// NewState creates an empty run state.
func NewState() *State {
	return &State{applied: make(map[domain.TaskName]bool)}
}

// Apply merges one task's update into the state. A second update for the same
// task fails with DuplicateUpdateError and leaves the state untouched.
func (s *State) Apply(task domain.TaskName, up Update) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.applied[task] {
		return &domain.DuplicateUpdateError{Task: task}
	}
	s.applied[task] = true

	f := up.Task
	if f.SourceKey != "" {
		s.record.SourceKey = f.SourceKey
	}
	if f.SourceURL != "" {
		s.record.SourceURL = f.SourceURL
	}
	if f.Transcript != "" {
		s.record.Transcript = f.Transcript
	}
	if f.Meta != nil {
		s.record.Meta = *f.Meta
	}
	if f.Notes != nil {
		s.record.Notes = *f.Notes
	}
	if f.Concepts != nil {
		s.record.Concepts = f.Concepts
	}
	if f.Classification != nil {
		s.record.Classification = f.Classification
	}

	s.record.TaskTrace = append(s.record.TaskTrace, task)
	return nil
}

// Snapshot returns a copy of the current record.
func (s *State) Snapshot() domain.NoteRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.record
	rec.TaskTrace = append([]domain.TaskName(nil), s.record.TaskTrace...)
	rec.Concepts = append([]domain.Concept(nil), s.record.Concepts...)
	return rec
}
