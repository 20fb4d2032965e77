// Package service exposes the lifecycle operations callers drive directly:
// opportunity listing and status changes, expiry, and the posting workflow.
package service

import (
	"context"
	"fmt"
	"time"

	"sparrow/internal/domain"
	"sparrow/internal/repository"
)

// OpportunityService manages opportunity listing and status transitions.
type OpportunityService interface {
	GetByID(ctx context.Context, id string) (*domain.Opportunity, error)
	List(ctx context.Context, q repository.OpportunityQuery) ([]*domain.Opportunity, error)
	UpdateStatus(ctx context.Context, id string, status domain.OpportunityStatus) error
	Expire(ctx context.Context) (int64, error)
}

type opportunityService struct {
	opportunities repository.OpportunityRepo
	now           func() time.Time
}

func NewOpportunityService(opportunities repository.OpportunityRepo) OpportunityService {
	return &opportunityService{opportunities: opportunities, now: time.Now}
}

func (s *opportunityService) GetByID(ctx context.Context, id string) (*domain.Opportunity, error) {
	return s.opportunities.GetByID(ctx, id)
}

func (s *opportunityService) List(ctx context.Context, q repository.OpportunityQuery) ([]*domain.Opportunity, error) {
	if q.Now.IsZero() {
		q.Now = s.now()
	}
	return s.opportunities.List(ctx, q)
}

// UpdateStatus transitions an opportunity. Only pending opportunities move;
// dismissed, responded, and expired are terminal.
func (s *opportunityService) UpdateStatus(ctx context.Context, id string, status domain.OpportunityStatus) error {
	if !domain.ValidOpportunityStatuses[string(status)] {
		return fmt.Errorf("unknown opportunity status %q", status)
	}

	opp, err := s.opportunities.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if opp.Status != domain.OpportunityPending {
		return invalidOpportunityStatus(id, opp.Status, "transition to "+string(status))
	}
	if status == domain.OpportunityPending {
		return nil
	}
	return s.opportunities.UpdateStatus(ctx, id, status)
}

func (s *opportunityService) Expire(ctx context.Context) (int64, error) {
	return s.opportunities.ExpirePending(ctx, s.now())
}
