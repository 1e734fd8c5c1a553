// Package service coordinates the lecture pipeline: admission policy, the
// cache gate, the processing graph, persistence, and study material
// generation.
package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/tzhao11/lectern/internal/cache"
	"github.com/tzhao11/lectern/internal/config"
	"github.com/tzhao11/lectern/internal/domain"
	"github.com/tzhao11/lectern/internal/policy"
	store "github.com/tzhao11/lectern/internal/repository"
	"github.com/tzhao11/lectern/internal/stream"
)

// StudyGenerator produces study materials from a processed record.
type StudyGenerator interface {
	Generate(ctx context.Context, rec *domain.NoteRecord) (*domain.StudySet, error)
}

type Service struct {
	store        store.Store
	runner       stream.Runner
	study        StudyGenerator
	gate         *cache.Gate
	policyEngine *policy.Engine
	config       *config.Config
	logger       *zap.Logger
}

func New(store store.Store, runner stream.Runner, study StudyGenerator, gate *cache.Gate, policyEngine *policy.Engine, cfg *config.Config, logger *zap.Logger) *Service {
	return &Service{
		store:        store,
		runner:       runner,
		study:        study,
		gate:         gate,
		policyEngine: policyEngine,
		config:       cfg,
		logger:       logger,
	}
}

// admit validates a source URL against the admission policy and parses its
// key. Blocked or malformed sources fail with InvalidReferenceError.
func (s *Service) admit(ctx context.Context, sourceURL string) (domain.SourceKey, error) {
	decision, err := s.policyEngine.Evaluate(ctx, sourceURL)
	if err != nil {
		return "", err
	}
	if decision != "allow" {
		return "", &domain.InvalidReferenceError{Reference: sourceURL, Reason: "source not permitted by policy"}
	}
	return domain.ParseSourceKey(sourceURL)
}
