package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"sparrow/internal/db"
	"sparrow/internal/domain"
	"sparrow/internal/metrics"
	"sparrow/internal/platform"
	"sparrow/internal/repository"
)

// PostingService publishes drafted responses to their platform.
type PostingService interface {
	Post(ctx context.Context, responseID string) (*domain.Response, error)
}

type postingService struct {
	responses     repository.ResponseRepo
	opportunities repository.OpportunityRepo
	accounts      repository.AccountRepo
	registry      *platform.Registry
	uow           db.UnitOfWork
	metrics       *metrics.Metrics
	logger        *zap.Logger
	now           func() time.Time
}

func NewPostingService(
	responses repository.ResponseRepo,
	opportunities repository.OpportunityRepo,
	accounts repository.AccountRepo,
	registry *platform.Registry,
	uow db.UnitOfWork,
	m *metrics.Metrics,
	logger *zap.Logger,
) PostingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &postingService{
		responses:     responses,
		opportunities: opportunities,
		accounts:      accounts,
		registry:      registry,
		uow:           uow,
		metrics:       m,
		logger:        logger,
		now:           time.Now,
	}
}

// Post publishes the draft. Non-draft responses are rejected before the
// adapter is touched, which makes a second post of the same response fail
// cleanly instead of double-publishing. On adapter failure both rows are
// left untouched so the caller can edit and retry.
func (s *postingService) Post(ctx context.Context, responseID string) (*domain.Response, error) {
	resp, err := s.responses.GetByID(ctx, responseID)
	if err != nil {
		return nil, err
	}
	if resp.Status != domain.ResponseDraft {
		return nil, invalidResponseStatus(responseID, resp.Status, "post")
	}

	opp, err := s.opportunities.GetByID(ctx, resp.OpportunityID)
	if err != nil {
		return nil, err
	}
	account, err := s.accounts.GetByID(ctx, opp.AccountID)
	if err != nil {
		return nil, err
	}
	adapter, err := s.registry.Get(account.Platform)
	if err != nil {
		return nil, err
	}

	result, err := adapter.Post(ctx, opp.PostID, resp.Text)
	if err != nil {
		if s.metrics != nil {
			s.metrics.PostingAttempts.WithLabelValues("error").Inc()
		}
		return nil, fmt.Errorf("posting response: %w", err)
	}

	// The platform call succeeded; both rows must flip together.
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txResponses := repository.NewSQLiteResponseRepo(tx)
		txOpportunities := repository.NewSQLiteOpportunityRepo(tx)

		if err := txResponses.MarkPosted(ctx, resp.ID, result.PlatformPostID, result.PlatformPostURL, result.PostedAt); err != nil {
			return fmt.Errorf("marking response posted: %w", err)
		}
		if err := txOpportunities.UpdateStatus(ctx, opp.ID, domain.OpportunityResponded); err != nil {
			return fmt.Errorf("marking opportunity responded: %w", err)
		}
		return nil
	})
	if err != nil {
		// The post is live but the store update failed; surface loudly.
		s.logger.Error("post published but store update failed",
			zap.String("response_id", resp.ID),
			zap.String("platform_post_id", result.PlatformPostID),
			zap.Error(err))
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.PostingAttempts.WithLabelValues("ok").Inc()
	}
	s.logger.Info("response posted",
		zap.String("response_id", resp.ID),
		zap.String("opportunity_id", opp.ID),
		zap.String("platform_post_url", result.PlatformPostURL))

	return s.responses.GetByID(ctx, resp.ID)
}
