package service

import (
	"context"
	"database/sql"
	"errors"

	"invoiceanalytics/internal/model"
	"invoiceanalytics/internal/repository"
)

// DocumentService exposes stored source documents for audit.
type DocumentService interface {
	// Get returns a single document by its ID, including the verbatim raw JSON.
	Get(ctx context.Context, id string) (*model.Document, error)
}

type documentService struct {
	repo repository.DocumentRepository
}

func NewDocumentService(repo repository.DocumentRepository) DocumentService {
	return &documentService{repo: repo}
}

func (s *documentService) Get(ctx context.Context, id string) (*model.Document, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return doc, nil
}
