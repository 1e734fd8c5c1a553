package service

import (
	"context"
	"fmt"

	"github.com/tzhao11/lectern/internal/domain"
	store "github.com/tzhao11/lectern/internal/repository"
)

// HistoryPage is one page of past records.
type HistoryPage struct {
	Records  []store.RecordSummary `json:"records"`
	Total    int                   `json:"total"`
	Page     int                   `json:"page"`
	PageSize int                   `json:"page_size"`
}

// ListHistory returns a page of processed records, newest first.
func (s *Service) ListHistory(ctx context.Context, page, pageSize int, search string) (*HistoryPage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	records, total, err := s.store.ListRecords(ctx, page, pageSize, search)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []store.RecordSummary{}
	}
	return &HistoryPage{
		Records:  records,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}, nil
}

// GetRecord retrieves one stored record by ID.
func (s *Service) GetRecord(ctx context.Context, recordID string) (*domain.CacheRecord, error) {
	rec, err := s.store.GetRecord(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, &domain.NotFoundError{Reason: fmt.Sprintf("record %s does not exist", recordID)}
	}
	return rec, nil
}

// DeleteRecord removes one stored record by ID.
func (s *Service) DeleteRecord(ctx context.Context, recordID string) error {
	deleted, err := s.store.DeleteRecord(ctx, recordID)
	if err != nil {
		return err
	}
	if !deleted {
		return &domain.NotFoundError{Reason: fmt.Sprintf("record %s does not exist", recordID)}
	}
	return nil
}
