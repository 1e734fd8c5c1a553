package store

import (
	"context"

	"github.com/tzhao11/lectern/internal/domain"
)

// Store is the persistence contract for processed lecture records.
type Store interface {
	SaveRecord(ctx context.Context, rec *domain.NoteRecord) (string, error)
	FindLatest(ctx context.Context, key domain.SourceKey) (*domain.CacheRecord, error)
	GetRecord(ctx context.Context, recordID string) (*domain.CacheRecord, error)
	ListRecords(ctx context.Context, page, pageSize int, search string) ([]RecordSummary, int, error)
	DeleteRecord(ctx context.Context, recordID string) (bool, error)
	Close() error
}

var _ Store = (*SQLiteStore)(nil)
