// Package platform defines the contract the lifecycle engine uses to talk to
// social platforms, plus the error taxonomy adapters must map their failures
// into. Concrete adapters live in subpackages; the core depends only on the
// Adapter interface.
package platform

import (
	"context"
	"fmt"
	"time"
)

// Post is a candidate post returned by discovery calls.
type Post struct {
	ID       string
	AuthorID string
	Text     string
	PostedAt time.Time
}

// AuthorInfo is the full author detail fetched during discovery.
type AuthorInfo struct {
	PlatformUserID string
	Handle         string
	DisplayName    string
	Bio            string
	FollowerCount  int
}

// PostResult is returned by a successful Post call.
type PostResult struct {
	PlatformPostID  string
	PlatformPostURL string
	PostedAt        time.Time
}

// Constraints are the platform's rules for response content.
type Constraints struct {
	MaxLength int
}

// Adapter is the per-platform capability consumed by the engine.
type Adapter interface {
	// Platform returns the platform key this adapter serves, e.g. "x".
	Platform() string

	// FetchReplies returns posts replying to the account since the given
	// time, newest capped at limit.
	FetchReplies(ctx context.Context, since time.Time, limit int) ([]Post, error)

	// SearchPosts returns recent posts matching any of the keywords.
	SearchPosts(ctx context.Context, keywords []string, since time.Time, limit int) ([]Post, error)

	// GetAuthor fetches full author detail for a platform user id.
	GetAuthor(ctx context.Context, platformUserID string) (AuthorInfo, error)

	// Post publishes text as a reply to the given parent post.
	Post(ctx context.Context, parentPostID, text string) (PostResult, error)

	// ResponseConstraints returns the platform's content rules.
	ResponseConstraints(ctx context.Context) (Constraints, error)
}

// Registry resolves adapters by platform key.
type Registry struct {
	adapters map[string]Adapter
}

func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{adapters: make(map[string]Adapter, len(adapters))}
	for _, a := range adapters {
		r.adapters[a.Platform()] = a
	}
	return r
}

// Register adds or replaces the adapter for its platform key.
func (r *Registry) Register(a Adapter) {
	r.adapters[a.Platform()] = a
}

// Get returns the adapter for the platform, or an error naming it.
func (r *Registry) Get(platform string) (Adapter, error) {
	a, ok := r.adapters[platform]
	if !ok {
		return nil, fmt.Errorf("no adapter registered for platform %q", platform)
	}
	return a, nil
}
