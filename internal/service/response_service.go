package service

import (
	"context"

	"sparrow/internal/domain"
	"sparrow/internal/repository"
)

// ResponseService manages drafted responses outside the generation pipeline.
type ResponseService interface {
	GetByID(ctx context.Context, id string) (*domain.Response, error)
	ListByOpportunity(ctx context.Context, opportunityID string) ([]*domain.Response, error)
	UpdateText(ctx context.Context, id, text string) error
	Dismiss(ctx context.Context, id string) error
}

type responseService struct {
	responses repository.ResponseRepo
}

func NewResponseService(responses repository.ResponseRepo) ResponseService {
	return &responseService{responses: responses}
}

func (s *responseService) GetByID(ctx context.Context, id string) (*domain.Response, error) {
	return s.responses.GetByID(ctx, id)
}

func (s *responseService) ListByOpportunity(ctx context.Context, opportunityID string) ([]*domain.Response, error) {
	return s.responses.ListByOpportunity(ctx, opportunityID)
}

// UpdateText edits a draft's text. Posted and dismissed responses are
// immutable.
func (s *responseService) UpdateText(ctx context.Context, id, text string) error {
	resp, err := s.responses.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if resp.Status != domain.ResponseDraft {
		return invalidResponseStatus(id, resp.Status, "edit")
	}
	return s.responses.UpdateText(ctx, id, text)
}

// Dismiss marks a draft as dismissed, a terminal state for that version.
func (s *responseService) Dismiss(ctx context.Context, id string) error {
	resp, err := s.responses.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if resp.Status != domain.ResponseDraft {
		return invalidResponseStatus(id, resp.Status, "dismiss")
	}
	return s.responses.UpdateStatus(ctx, id, domain.ResponseDismissed)
}
