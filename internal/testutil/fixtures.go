package testutil

import (
	"time"

	"github.com/google/uuid"

	"sparrow/internal/domain"
)

// Profile options
type ProfileOption func(*domain.Profile)

func WithKeywords(kws ...string) ProfileOption {
	return func(p *domain.Profile) {
		p.Keywords = kws
	}
}

func WithInterests(interests ...string) ProfileOption {
	return func(p *domain.Profile) {
		p.Interests = interests
	}
}

func WithVoice(voice string) ProfileOption {
	return func(p *domain.Profile) {
		p.Voice = voice
	}
}

func NewTestProfile(name string, opts ...ProfileOption) *domain.Profile {
	now := time.Now().UTC()
	p := &domain.Profile{
		ID:         uuid.New().String(),
		Name:       name,
		Voice:      "direct and curious",
		Principles: []string{"be useful", "never overclaim"},
		Interests:  []string{"databases"},
		Keywords:   []string{"sqlite"},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Account options
type AccountOption func(*domain.Account)

func WithAccountStatus(s domain.AccountStatus) AccountOption {
	return func(a *domain.Account) {
		a.Status = s
	}
}

func WithSchedule(typ domain.DiscoveryType, cron string, lastRunAt *time.Time) AccountOption {
	return func(a *domain.Account) {
		a.Schedules = append(a.Schedules, domain.DiscoverySchedule{
			AccountID:      a.ID,
			Type:           typ,
			Enabled:        true,
			CronExpression: cron,
			LastRunAt:      lastRunAt,
		})
	}
}

func WithDisabledSchedule(typ domain.DiscoveryType, cron string) AccountOption {
	return func(a *domain.Account) {
		a.Schedules = append(a.Schedules, domain.DiscoverySchedule{
			AccountID:      a.ID,
			Type:           typ,
			Enabled:        false,
			CronExpression: cron,
		})
	}
}

func NewTestAccount(profileID string, opts ...AccountOption) *domain.Account {
	now := time.Now().UTC()
	a := &domain.Account{
		ID:        uuid.New().String(),
		Platform:  "x",
		Handle:    "testhandle",
		ProfileID: profileID,
		Status:    domain.AccountActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, opt := range opts {
		opt(a)
	}
	for i := range a.Schedules {
		a.Schedules[i].AccountID = a.ID
	}
	return a
}

// Author options
type AuthorOption func(*domain.Author)

func WithFollowers(n int) AuthorOption {
	return func(a *domain.Author) {
		a.FollowerCount = n
	}
}

func NewTestAuthor(platformUserID string, opts ...AuthorOption) *domain.Author {
	a := &domain.Author{
		ID:             uuid.New().String(),
		Platform:       "x",
		PlatformUserID: platformUserID,
		Handle:         "author_" + platformUserID,
		DisplayName:    "Author " + platformUserID,
		FollowerCount:  500,
		UpdatedAt:      time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Opportunity options
type OpportunityOption func(*domain.Opportunity)

func WithOpportunityStatus(s domain.OpportunityStatus) OpportunityOption {
	return func(o *domain.Opportunity) {
		o.Status = s
	}
}

func WithExpiresAt(t time.Time) OpportunityOption {
	return func(o *domain.Opportunity) {
		o.ExpiresAt = t
	}
}

func WithContent(text string) OpportunityOption {
	return func(o *domain.Opportunity) {
		o.Content = text
	}
}

func WithPostID(id string) OpportunityOption {
	return func(o *domain.Opportunity) {
		o.PostID = id
	}
}

func NewTestOpportunity(accountID, authorID string, opts ...OpportunityOption) *domain.Opportunity {
	now := time.Now().UTC()
	o := &domain.Opportunity{
		ID:              uuid.New().String(),
		AccountID:       accountID,
		AuthorID:        authorID,
		Platform:        "x",
		PostID:          uuid.New().String(),
		Content:         "anyone compared WAL mode to rollback journal under load?",
		ContentPostedAt: now.Add(-10 * time.Minute),
		Scoring:         domain.Scoring{Recency: 40, Impact: 16, Total: 56},
		Status:          domain.OpportunityPending,
		DiscoveredAt:    now,
		ExpiresAt:       now.Add(domain.OpportunityTTL),
		DiscoveryType:   domain.DiscoveryReplies,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Response options
type ResponseOption func(*domain.Response)

func WithResponseStatus(s domain.ResponseStatus) ResponseOption {
	return func(r *domain.Response) {
		r.Status = s
	}
}

func WithVersion(v int) ResponseOption {
	return func(r *domain.Response) {
		r.Version = v
	}
}

func NewTestResponse(opportunityID, accountID string, opts ...ResponseOption) *domain.Response {
	now := time.Now().UTC()
	r := &domain.Response{
		ID:            uuid.New().String(),
		OpportunityID: opportunityID,
		AccountID:     accountID,
		Text:          "WAL wins for concurrent readers; checkpointing is the tradeoff.",
		Version:       1,
		Status:        domain.ResponseDraft,
		Metadata:      domain.ResponseMetadata{Model: "llama3.2"},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}
