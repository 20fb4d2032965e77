package domain

import "time"

// OpportunityTTL is how long a pending opportunity stays actionable before
// it is considered stale.
const OpportunityTTL = 4 * time.Hour

// Opportunity is a discovered candidate post worth engaging with.
// PostID is the platform-native identifier of the parent post being engaged
// with; Content is a snapshot of its text at discovery time.
type Opportunity struct {
	ID              string
	AccountID       string
	AuthorID        string
	Platform        string
	PostID          string
	Content         string
	ContentPostedAt time.Time
	Scoring         Scoring
	Status          OpportunityStatus
	DiscoveredAt    time.Time
	ExpiresAt       time.Time
	DiscoveryType   DiscoveryType
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Expired reports whether the opportunity's pending window has passed.
// An opportunity expiring at exactly now counts as expired.
func (o *Opportunity) Expired(now time.Time) bool {
	return !o.ExpiresAt.After(now)
}
