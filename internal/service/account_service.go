package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"sparrow/internal/domain"
	"sparrow/internal/repository"
)

// AccountService manages connected platform accounts and their discovery
// schedules.
type AccountService interface {
	Create(ctx context.Context, a *domain.Account) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	List(ctx context.Context) ([]*domain.Account, error)
	SetSchedule(ctx context.Context, accountID string, typ domain.DiscoveryType, cronExpr string, enabled bool) error
	SetStatus(ctx context.Context, accountID string, status domain.AccountStatus) error
}

type accountService struct {
	accounts repository.AccountRepo
	profiles repository.ProfileRepo
}

func NewAccountService(accounts repository.AccountRepo, profiles repository.ProfileRepo) AccountService {
	return &accountService{accounts: accounts, profiles: profiles}
}

func (s *accountService) Create(ctx context.Context, a *domain.Account) error {
	if _, err := s.profiles.GetByID(ctx, a.ProfileID); err != nil {
		return fmt.Errorf("resolving profile: %w", err)
	}
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if a.Status == "" {
		a.Status = domain.AccountActive
	}
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now
	for i := range a.Schedules {
		a.Schedules[i].AccountID = a.ID
	}
	return s.accounts.Create(ctx, a)
}

func (s *accountService) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	return s.accounts.GetByID(ctx, id)
}

func (s *accountService) List(ctx context.Context) ([]*domain.Account, error) {
	return s.accounts.List(ctx)
}

// SetSchedule adds or updates the schedule entry for the discovery type.
// An existing entry keeps its last_run_at bookkeeping.
func (s *accountService) SetSchedule(ctx context.Context, accountID string, typ domain.DiscoveryType, cronExpr string, enabled bool) error {
	if !domain.ValidDiscoveryTypes[string(typ)] {
		return fmt.Errorf("unknown discovery type %q", typ)
	}

	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return err
	}
	if sched := account.Schedule(typ); sched != nil {
		sched.CronExpression = cronExpr
		sched.Enabled = enabled
	} else {
		account.Schedules = append(account.Schedules, domain.DiscoverySchedule{
			AccountID:      account.ID,
			Type:           typ,
			Enabled:        enabled,
			CronExpression: cronExpr,
		})
	}
	return s.accounts.Update(ctx, account)
}

func (s *accountService) SetStatus(ctx context.Context, accountID string, status domain.AccountStatus) error {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return err
	}
	account.Status = status
	return s.accounts.Update(ctx, account)
}
