package domain

import "time"

// Author is a cached projection of a platform identity, keyed by
// (platform, platform_user_id). Authors are upserted each time discovery
// encounters a post by them and are never deleted; conflicting fields are
// last-write-wins.
type Author struct {
	ID             string
	Platform       string
	PlatformUserID string
	Handle         string
	DisplayName    string
	Bio            string
	FollowerCount  int
	UpdatedAt      time.Time
}
