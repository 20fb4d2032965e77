package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"sparrow/internal/domain"
	"sparrow/internal/repository"
)

// ProfileService manages generation profiles.
type ProfileService interface {
	Create(ctx context.Context, p *domain.Profile) error
	GetByID(ctx context.Context, id string) (*domain.Profile, error)
	List(ctx context.Context) ([]*domain.Profile, error)
	Update(ctx context.Context, p *domain.Profile) error
}

type profileService struct {
	profiles repository.ProfileRepo
}

func NewProfileService(profiles repository.ProfileRepo) ProfileService {
	return &profileService{profiles: profiles}
}

func (s *profileService) Create(ctx context.Context, p *domain.Profile) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	return s.profiles.Create(ctx, p)
}

func (s *profileService) GetByID(ctx context.Context, id string) (*domain.Profile, error) {
	return s.profiles.GetByID(ctx, id)
}

func (s *profileService) List(ctx context.Context) ([]*domain.Profile, error) {
	return s.profiles.List(ctx)
}

func (s *profileService) Update(ctx context.Context, p *domain.Profile) error {
	p.UpdatedAt = time.Now().UTC()
	return s.profiles.Update(ctx, p)
}
