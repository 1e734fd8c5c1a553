package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/tzhao11/lectern/internal/domain"
)

// StudyResult bundles generated study materials with their source record.
type StudyResult struct {
	RecordID      string                `json:"record_id"`
	Title         string                `json:"title"`
	Flashcards    []domain.Flashcard    `json:"flashcards"`
	QuizQuestions []domain.QuizQuestion `json:"quiz_questions"`
}

// GenerateStudySet builds flashcards and quiz questions for a stored record.
func (s *Service) GenerateStudySet(ctx context.Context, recordID string) (*StudyResult, error) {
	rec, err := s.GetRecord(ctx, recordID)
	if err != nil {
		return nil, err
	}

	set, err := s.study.Generate(ctx, &rec.Record)
	if err != nil {
		return nil, err
	}
	s.logger.Info("study set generated",
		zap.String("record_id", recordID),
		zap.Int("flashcards", len(set.Flashcards)),
		zap.Int("quiz_questions", len(set.QuizQuestions)))

	return &StudyResult{
		RecordID:      recordID,
		Title:         rec.Record.Meta.Title,
		Flashcards:    set.Flashcards,
		QuizQuestions: set.QuizQuestions,
	}, nil
}
