package x

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"sparrow/internal/platform"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient("tester", "bearer", "user",
		WithBaseURL(srv.URL),
		WithRateLimit(1000, 1000),
		WithMaxAttempts(1),
	)
}

func TestFetchReplies_ParsesPosts(t *testing.T) {
	var gotQuery string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("query")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[
			{"id":"111","author_id":"u1","text":"hey @tester","created_at":"2026-08-20T10:00:00Z"},
			{"id":"112","author_id":"u2","text":"also @tester","created_at":"2026-08-20T10:05:00Z"}
		]}`))
	})

	posts, err := client.FetchReplies(context.Background(), time.Now().Add(-2*time.Hour), 100)
	require.NoError(t, err)
	assert.Equal(t, "to:tester", gotQuery)
	require.Len(t, posts, 2)
	assert.Equal(t, "111", posts[0].ID)
	assert.Equal(t, "u1", posts[0].AuthorID)
}

func TestSearchPosts_EmptyKeywordsSkipsRequest(t *testing.T) {
	called := false
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	posts, err := client.SearchPosts(context.Background(), []string{" ", ""}, time.Time{}, 50)
	require.NoError(t, err)
	assert.Empty(t, posts)
	assert.False(t, called, "no keywords should mean no API call")
}

func TestPost_Success(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer user", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"id":"999"}}`))
	})

	res, err := client.Post(context.Background(), "111", "thoughtful reply")
	require.NoError(t, err)
	assert.Equal(t, "999", res.PlatformPostID)
	assert.Contains(t, res.PlatformPostURL, "/status/999")
	assert.False(t, res.PostedAt.IsZero())
}

func TestDo_ClassifiesStatuses(t *testing.T) {
	cases := []struct {
		name   string
		status int
		check  func(t *testing.T, err error)
	}{
		{"unauthorized", http.StatusUnauthorized, func(t *testing.T, err error) {
			assert.ErrorIs(t, err, platform.ErrAuthentication)
		}},
		{"not found", http.StatusNotFound, func(t *testing.T, err error) {
			assert.ErrorIs(t, err, platform.ErrPostNotFound)
		}},
		{"rate limited", http.StatusTooManyRequests, func(t *testing.T, err error) {
			var rl *platform.RateLimitError
			require.True(t, errors.As(err, &rl))
			assert.Equal(t, 30*time.Second, rl.RetryAfter)
			assert.True(t, platform.Retryable(err))
		}},
		{"server error", http.StatusInternalServerError, func(t *testing.T, err error) {
			var pe *platform.PostingError
			require.True(t, errors.As(err, &pe))
			assert.True(t, pe.Retryable())
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if tc.status == http.StatusTooManyRequests {
					w.Header().Set("Retry-After", "30")
				}
				w.WriteHeader(tc.status)
			})
			_, err := client.GetAuthor(context.Background(), "u1")
			require.Error(t, err)
			tc.check(t, err)
		})
	}
}

func TestPost_ContentViolationOn403(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	_, err := client.Post(context.Background(), "111", "rejected text")
	assert.ErrorIs(t, err, platform.ErrContentViolation)
}

func TestGetAuthor_MapsFields(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"id":"u1","name":"Ada","username":"ada","description":"systems","public_metrics":{"followers_count":4200}}}`))
	})

	info, err := client.GetAuthor(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "ada", info.Handle)
	assert.Equal(t, "Ada", info.DisplayName)
	assert.Equal(t, 4200, info.FollowerCount)
}
