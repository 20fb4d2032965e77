// Package discovery turns raw platform activity into scored, deduplicated
// opportunities.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"sparrow/internal/db"
	"sparrow/internal/domain"
	"sparrow/internal/metrics"
	"sparrow/internal/platform"
	"sparrow/internal/repository"
)

// ErrAccountInactive is returned when discovery is requested for an account
// that is paused or errored.
var ErrAccountInactive = errors.New("account is not active")

const (
	// Per-run fetch caps.
	repliesFetchLimit = 100
	searchFetchLimit  = 50

	// firstRunLookback bounds the window when a schedule has never run.
	firstRunLookback = 2 * time.Hour
)

// Result summarizes one discovery run and carries the opportunities it
// created.
type Result struct {
	Found   int
	Created int
	Skipped int

	Opportunities []*domain.Opportunity
}

// Engine runs discovery for accounts: fetch candidates, resolve authors,
// score, dedup, persist.
type Engine struct {
	accounts      repository.AccountRepo
	profiles      repository.ProfileRepo
	authors       repository.AuthorRepo
	opportunities repository.OpportunityRepo
	registry      *platform.Registry
	uow           db.UnitOfWork
	metrics       *metrics.Metrics
	logger        *zap.Logger

	now func() time.Time
}

func NewEngine(
	accounts repository.AccountRepo,
	profiles repository.ProfileRepo,
	authors repository.AuthorRepo,
	opportunities repository.OpportunityRepo,
	registry *platform.Registry,
	uow db.UnitOfWork,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		accounts:      accounts,
		profiles:      profiles,
		authors:       authors,
		opportunities: opportunities,
		registry:      registry,
		uow:           uow,
		metrics:       m,
		logger:        logger,
		now:           time.Now,
	}
}

// Discover runs one discovery pass for the account and type. On success it
// advances the account's lookback window to the run's start time; on failure
// it records the error and leaves the window untouched so the next run
// retries the same span.
func (e *Engine) Discover(ctx context.Context, accountID string, typ domain.DiscoveryType) (Result, error) {
	start := e.now()

	account, err := e.accounts.GetByID(ctx, accountID)
	if err != nil {
		return Result{}, fmt.Errorf("loading account: %w", err)
	}
	if account.Status != domain.AccountActive {
		return Result{}, fmt.Errorf("%w: account %s is %s", ErrAccountInactive, account.ID, account.Status)
	}

	res, err := e.run(ctx, account, typ, start)
	if e.metrics != nil {
		e.metrics.DiscoveryDuration.WithLabelValues(string(typ)).Observe(e.now().Sub(start).Seconds())
	}
	if err != nil {
		e.logger.Warn("discovery failed",
			zap.String("account_id", accountID),
			zap.String("type", string(typ)),
			zap.Error(err))
		if e.metrics != nil {
			e.metrics.DiscoveryRuns.WithLabelValues(string(typ), "error").Inc()
			e.metrics.DiscoveryErrors.WithLabelValues(string(typ)).Inc()
		}
		if markErr := e.accounts.MarkDiscoveryError(ctx, accountID, err.Error()); markErr != nil {
			e.logger.Error("recording discovery error", zap.Error(markErr))
		}
		return Result{}, err
	}

	// The account's discovery_last_at and the schedule's last_run_at must
	// move together or not at all.
	err = e.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		return repository.NewSQLiteAccountRepo(tx).MarkDiscoverySuccess(ctx, accountID, typ, start)
	})
	if err != nil {
		return res, fmt.Errorf("advancing discovery window: %w", err)
	}
	if e.metrics != nil {
		e.metrics.DiscoveryRuns.WithLabelValues(string(typ), "ok").Inc()
	}
	e.logger.Info("discovery complete",
		zap.String("account_id", accountID),
		zap.String("type", string(typ)),
		zap.Int("found", res.Found),
		zap.Int("created", res.Created),
		zap.Int("skipped", res.Skipped))
	return res, nil
}

func (e *Engine) run(ctx context.Context, account *domain.Account, typ domain.DiscoveryType, start time.Time) (Result, error) {
	profile, err := e.profiles.GetByID(ctx, account.ProfileID)
	if err != nil {
		return Result{}, fmt.Errorf("loading profile: %w", err)
	}

	adapter, err := e.registry.Get(account.Platform)
	if err != nil {
		return Result{}, err
	}

	since := start.Add(-firstRunLookback)
	if sched := account.Schedule(typ); sched != nil && sched.LastRunAt != nil {
		since = *sched.LastRunAt
	}

	var posts []platform.Post
	switch typ {
	case domain.DiscoveryReplies:
		posts, err = adapter.FetchReplies(ctx, since, repliesFetchLimit)
	case domain.DiscoverySearch:
		if len(profile.Keywords) == 0 {
			// Nothing to search for; a no-op run still advances the window.
			return Result{}, nil
		}
		posts, err = adapter.SearchPosts(ctx, profile.Keywords, since, searchFetchLimit)
	default:
		return Result{}, fmt.Errorf("unknown discovery type %q", typ)
	}
	if err != nil {
		return Result{}, fmt.Errorf("fetching candidates: %w", err)
	}

	res := Result{Found: len(posts)}
	for _, post := range posts {
		opp, err := e.ingest(ctx, account, profile, adapter, post, typ)
		if err != nil {
			return res, err
		}
		if opp != nil {
			res.Created++
			res.Opportunities = append(res.Opportunities, opp)
		} else {
			res.Skipped++
		}
	}
	return res, nil
}

// ingest processes one candidate post. It returns nil both for posts that
// were already seen and for posts scoring below the threshold.
func (e *Engine) ingest(
	ctx context.Context,
	account *domain.Account,
	profile *domain.Profile,
	adapter platform.Adapter,
	post platform.Post,
	typ domain.DiscoveryType,
) (*domain.Opportunity, error) {
	info, err := adapter.GetAuthor(ctx, post.AuthorID)
	if err != nil {
		return nil, fmt.Errorf("fetching author %s: %w", post.AuthorID, err)
	}

	// Upsert before the duplicate check so re-encountered posts still
	// refresh the cached author.
	now := e.now()
	author := &domain.Author{
		ID:             uuid.NewString(),
		Platform:       account.Platform,
		PlatformUserID: info.PlatformUserID,
		Handle:         info.Handle,
		DisplayName:    info.DisplayName,
		Bio:            info.Bio,
		FollowerCount:  info.FollowerCount,
		UpdatedAt:      now,
	}
	if err := e.authors.Upsert(ctx, author); err != nil {
		return nil, fmt.Errorf("upserting author: %w", err)
	}

	exists, err := e.opportunities.ExistsByPost(ctx, account.ID, post.ID)
	if err != nil {
		return nil, fmt.Errorf("checking for duplicate: %w", err)
	}
	if exists {
		return nil, nil
	}

	scoring := domain.ScoreOpportunity(post.PostedAt, post.Text, author, profile, now)
	if scoring.Total < domain.ScoreThreshold {
		return nil, nil
	}

	opp := &domain.Opportunity{
		ID:              uuid.NewString(),
		AccountID:       account.ID,
		AuthorID:        author.ID,
		Platform:        account.Platform,
		PostID:          post.ID,
		Content:         post.Text,
		ContentPostedAt: post.PostedAt,
		Scoring:         scoring,
		Status:          domain.OpportunityPending,
		DiscoveredAt:    now,
		ExpiresAt:       now.Add(domain.OpportunityTTL),
		DiscoveryType:   typ,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := e.opportunities.Create(ctx, opp); err != nil {
		// A concurrent run stored the same post first; treat as a skip.
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, nil
		}
		return nil, fmt.Errorf("storing opportunity: %w", err)
	}
	if e.metrics != nil {
		e.metrics.OpportunitiesCreated.WithLabelValues(string(typ)).Inc()
	}
	return opp, nil
}
