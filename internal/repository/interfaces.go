package repository

import (
	"context"
	"time"

	"sparrow/internal/domain"
)

// OpportunityQuery narrows an opportunity listing. A Status of
// OpportunityPending implicitly excludes rows whose expires_at has passed;
// other statuses apply no expiry filter.
type OpportunityQuery struct {
	AccountID string
	Status    *domain.OpportunityStatus
	Limit     int

	// Now anchors the pending expiry filter. Zero means the wall clock;
	// callers with an injected clock must set it.
	Now time.Time
}

type ProfileRepo interface {
	Create(ctx context.Context, p *domain.Profile) error
	GetByID(ctx context.Context, id string) (*domain.Profile, error)
	List(ctx context.Context) ([]*domain.Profile, error)
	Update(ctx context.Context, p *domain.Profile) error
}

type AccountRepo interface {
	Create(ctx context.Context, a *domain.Account) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	List(ctx context.Context) ([]*domain.Account, error)
	Update(ctx context.Context, a *domain.Account) error

	// MarkDiscoverySuccess records a completed discovery run: sets
	// discovery_last_at and the schedule's last_run_at to at, and clears
	// any recorded discovery error.
	MarkDiscoverySuccess(ctx context.Context, accountID string, typ domain.DiscoveryType, at time.Time) error

	// MarkDiscoveryError records a failed discovery run. The lookback
	// bookkeeping is deliberately left untouched so the next run retries
	// the same window.
	MarkDiscoveryError(ctx context.Context, accountID string, msg string) error
}

type AuthorRepo interface {
	// Upsert inserts or refreshes the author row keyed by
	// (platform, platform_user_id), last-write-wins on fields, and fills
	// in a.ID with the stored row's id.
	Upsert(ctx context.Context, a *domain.Author) error
	GetByID(ctx context.Context, id string) (*domain.Author, error)
	GetByPlatformUserID(ctx context.Context, platform, platformUserID string) (*domain.Author, error)
}

type OpportunityRepo interface {
	Create(ctx context.Context, o *domain.Opportunity) error
	GetByID(ctx context.Context, id string) (*domain.Opportunity, error)
	ExistsByPost(ctx context.Context, accountID, postID string) (bool, error)
	List(ctx context.Context, q OpportunityQuery) ([]*domain.Opportunity, error)
	UpdateStatus(ctx context.Context, id string, status domain.OpportunityStatus) error

	// ExpirePending transitions every pending opportunity whose expires_at
	// is before now to expired, returning the number of rows touched.
	ExpirePending(ctx context.Context, now time.Time) (int64, error)
}

type ResponseRepo interface {
	Create(ctx context.Context, r *domain.Response) error
	GetByID(ctx context.Context, id string) (*domain.Response, error)
	ListByOpportunity(ctx context.Context, opportunityID string) ([]*domain.Response, error)

	// MaxVersion returns the highest version persisted for the
	// opportunity, 0 when no responses exist.
	MaxVersion(ctx context.Context, opportunityID string) (int, error)

	UpdateText(ctx context.Context, id, text string) error
	UpdateStatus(ctx context.Context, id string, status domain.ResponseStatus) error

	// MarkPosted records a successful platform post on the response.
	MarkPosted(ctx context.Context, id, platformPostID, platformPostURL string, postedAt time.Time) error
}
