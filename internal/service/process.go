package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/tzhao11/lectern/internal/domain"
	"github.com/tzhao11/lectern/internal/stream"
)

// ProcessResult is the batch processing response: the record plus its cache
// provenance.
type ProcessResult struct {
	RecordID      string            `json:"record_id,omitempty"`
	Record        domain.NoteRecord `json:"record"`
	FromCache     bool              `json:"from_cache"`
	CachedAt      string            `json:"cached_at,omitempty"`
	CacheAgeHours float64           `json:"cache_age_hours,omitempty"`
	Reason        string            `json:"reason,omitempty"`
}

// Process runs one lecture through the pipeline in batch mode. A fresh enough
// stored record short-circuits the run unless force is set. Partial or failed
// runs are never persisted.
func (s *Service) Process(ctx context.Context, sourceURL string, force bool) (*ProcessResult, error) {
	key, err := s.admit(ctx, sourceURL)
	if err != nil {
		return nil, err
	}

	decision, err := s.gate.Decide(ctx, key, s.config.CacheWindow(), force)
	if err != nil {
		return nil, err
	}
	if decision.FromCache() {
		cached := decision.Cached
		s.logger.Info("serving cached record",
			zap.String("source_key", key.String()),
			zap.String("record_id", cached.RecordID))
		return &ProcessResult{
			RecordID:      cached.RecordID,
			Record:        cached.Record,
			FromCache:     true,
			CachedAt:      cached.CreatedAt.UTC().Format(time.RFC3339),
			CacheAgeHours: cached.Age(time.Now()).Hours(),
		}, nil
	}

	rec, err := s.runner.Run(ctx, sourceURL, nil)
	if err != nil {
		var partial *domain.PartialFailureError
		if errors.As(err, &partial) {
			s.logger.Warn("run ended in partial failure",
				zap.String("source_key", key.String()),
				zap.String("failed_task", string(partial.FailedTask)))
		}
		return nil, err
	}

	recordID, err := s.store.SaveRecord(ctx, rec)
	if err != nil {
		return nil, err
	}
	s.logger.Info("record persisted",
		zap.String("source_key", key.String()),
		zap.String("record_id", recordID))

	return &ProcessResult{
		RecordID:  recordID,
		Record:    *rec,
		FromCache: false,
		Reason:    decision.Reason,
	}, nil
}

// ProcessStream runs one lecture and streams progress events to the sink. A
// fresh enough stored record is replayed chunk by chunk instead; both paths
// produce the same event shapes.
func (s *Service) ProcessStream(ctx context.Context, sourceURL string, force bool, sink stream.Sink) error {
	key, err := s.admit(ctx, sourceURL)
	if err != nil {
		return stream.Fail(ctx, sink, err)
	}

	decision, err := s.gate.Decide(ctx, key, s.config.CacheWindow(), force)
	if err != nil {
		return stream.Fail(ctx, sink, err)
	}

	var producer stream.Producer
	if decision.FromCache() {
		s.logger.Info("replaying cached record",
			zap.String("source_key", key.String()),
			zap.String("record_id", decision.Cached.RecordID))
		producer = stream.NewReplayProducer(decision.Cached, s.config.ReplayChunkSize, s.config.ReplayChunkDelay())
	} else {
		producer = stream.NewLiveProducer(s.runner, sourceURL, force, func(ctx context.Context, rec *domain.NoteRecord) error {
			recordID, err := s.store.SaveRecord(ctx, rec)
			if err != nil {
				return err
			}
			s.logger.Info("record persisted",
				zap.String("source_key", key.String()),
				zap.String("record_id", recordID))
			return nil
		})
	}

	return stream.Run(ctx, producer, sink)
}
