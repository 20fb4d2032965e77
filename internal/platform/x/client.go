// Package x implements platform.Adapter against the X (Twitter) v2 API.
package x

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"sparrow/internal/platform"

	"golang.org/x/time/rate"
)

const (
	defaultBaseURL = "https://api.twitter.com/2"

	// maxPostLength is X's standard character limit for a post.
	maxPostLength = 280
)

// Client is a rate-limited X API v2 adapter. Read endpoints use the app
// bearer token; posting uses the user-context token.
type Client struct {
	baseURL     string
	handle      string
	bearerToken string
	userToken   string
	http        *http.Client
	limiter     *rate.Limiter
	maxAttempts int
	baseBackoff time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint, used by tests.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithRateLimit overrides the client-side request budget.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(rate.Limit(rps), burst) }
}

// WithMaxAttempts overrides how many times a transient failure is retried.
func WithMaxAttempts(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

// NewClient creates an adapter for the account with the given handle.
func NewClient(handle, bearerToken, userToken string, opts ...Option) *Client {
	c := &Client{
		baseURL:     defaultBaseURL,
		handle:      handle,
		bearerToken: bearerToken,
		userToken:   userToken,
		http:        &http.Client{Timeout: 15 * time.Second},
		limiter:     rate.NewLimiter(rate.Limit(2), 10),
		maxAttempts: 3,
		baseBackoff: 500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Platform() string { return "x" }

func (c *Client) FetchReplies(ctx context.Context, since time.Time, limit int) ([]platform.Post, error) {
	if c.handle == "" {
		return nil, &platform.PostingError{Op: "fetchReplies", Err: fmt.Errorf("account handle not configured")}
	}
	return c.searchRecent(ctx, "fetchReplies", "to:"+c.handle, since, limit)
}

func (c *Client) SearchPosts(ctx context.Context, keywords []string, since time.Time, limit int) ([]platform.Post, error) {
	quoted := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		if strings.ContainsRune(kw, ' ') {
			kw = `"` + kw + `"`
		}
		quoted = append(quoted, kw)
	}
	if len(quoted) == 0 {
		return nil, nil
	}
	query := "(" + strings.Join(quoted, " OR ") + ") -is:retweet"
	return c.searchRecent(ctx, "searchPosts", query, since, limit)
}

func (c *Client) GetAuthor(ctx context.Context, platformUserID string) (platform.AuthorInfo, error) {
	var out platform.AuthorInfo
	u := fmt.Sprintf("%s/users/%s?user.fields=description,public_metrics", c.baseURL, url.PathEscape(platformUserID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return out, &platform.PostingError{Op: "getAuthor", Err: err}
	}
	c.auth(req, c.bearerToken)

	body, err := c.do(ctx, "getAuthor", req)
	if err != nil {
		return out, err
	}

	var raw struct {
		Data struct {
			ID            string `json:"id"`
			Name          string `json:"name"`
			Username      string `json:"username"`
			Description   string `json:"description"`
			PublicMetrics struct {
				FollowersCount int `json:"followers_count"`
			} `json:"public_metrics"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return out, &platform.PostingError{Op: "getAuthor", Err: err}
	}
	if raw.Data.ID == "" {
		return out, platform.ErrPostNotFound
	}
	return platform.AuthorInfo{
		PlatformUserID: raw.Data.ID,
		Handle:         raw.Data.Username,
		DisplayName:    raw.Data.Name,
		Bio:            raw.Data.Description,
		FollowerCount:  raw.Data.PublicMetrics.FollowersCount,
	}, nil
}

func (c *Client) Post(ctx context.Context, parentPostID, text string) (platform.PostResult, error) {
	var out platform.PostResult
	payload := map[string]any{
		"text": text,
		"reply": map[string]any{
			"in_reply_to_tweet_id": parentPostID,
		},
	}
	b, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/tweets", bytes.NewReader(b))
	if err != nil {
		return out, &platform.PostingError{Op: "post", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	c.auth(req, c.userToken)

	body, err := c.do(ctx, "post", req)
	if err != nil {
		return out, err
	}

	var raw struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return out, &platform.PostingError{Op: "post", Err: err}
	}
	if raw.Data.ID == "" {
		return out, &platform.PostingError{Op: "post", Err: fmt.Errorf("empty post id in response")}
	}
	return platform.PostResult{
		PlatformPostID:  raw.Data.ID,
		PlatformPostURL: fmt.Sprintf("https://x.com/%s/status/%s", c.handle, raw.Data.ID),
		PostedAt:        time.Now().UTC(),
	}, nil
}

func (c *Client) ResponseConstraints(ctx context.Context) (platform.Constraints, error) {
	return platform.Constraints{MaxLength: maxPostLength}, nil
}

func (c *Client) searchRecent(ctx context.Context, op, query string, since time.Time, limit int) ([]platform.Post, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	// The recent-search endpoint rejects max_results below 10.
	if limit < 10 {
		limit = 10
	}
	q := url.Values{}
	q.Set("query", query)
	q.Set("max_results", strconv.Itoa(limit))
	q.Set("tweet.fields", "author_id,created_at")
	if !since.IsZero() {
		q.Set("start_time", since.UTC().Format(time.RFC3339))
	}
	u := c.baseURL + "/tweets/search/recent?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, &platform.PostingError{Op: op, Err: err}
	}
	c.auth(req, c.bearerToken)

	body, err := c.do(ctx, op, req)
	if err != nil {
		return nil, err
	}

	var raw struct {
		Data []struct {
			ID        string    `json:"id"`
			AuthorID  string    `json:"author_id"`
			Text      string    `json:"text"`
			CreatedAt time.Time `json:"created_at"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, &platform.PostingError{Op: op, Err: err}
	}
	posts := make([]platform.Post, 0, len(raw.Data))
	for _, d := range raw.Data {
		posts = append(posts, platform.Post{
			ID:       d.ID,
			AuthorID: d.AuthorID,
			Text:     d.Text,
			PostedAt: d.CreatedAt,
		})
	}
	return posts, nil
}

func (c *Client) auth(req *http.Request, token string) {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Accept", "application/json")
}

// do sends the request honoring the rate limiter, retries transient
// failures with linear backoff, and maps HTTP status codes onto the
// platform error taxonomy. Requests are cloned per attempt so bodies can
// be replayed.
func (c *Client) do(ctx context.Context, op string, req *http.Request) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.baseBackoff * time.Duration(attempt)):
			}
		}
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		attemptReq := req.Clone(ctx)
		if req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, &platform.PostingError{Op: op, Err: err}
			}
			attemptReq.Body = body
		}

		resp, err := c.http.Do(attemptReq)
		if err != nil {
			lastErr = &platform.PostingError{Op: op, Err: err, Retry: true}
			continue
		}
		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			lastErr = &platform.PostingError{Op: op, Err: readErr, Retry: true}
			continue
		}

		if resp.StatusCode < 400 {
			return body, nil
		}

		classified := classifyStatus(op, resp.StatusCode, resp.Header, body)
		if !platform.Retryable(classified) {
			return nil, classified
		}
		lastErr = classified
	}
	return nil, lastErr
}

// classifyStatus maps an HTTP failure onto the adapter error taxonomy.
func classifyStatus(op string, status int, header http.Header, body []byte) error {
	switch {
	case status == http.StatusUnauthorized:
		return platform.ErrAuthentication
	case status == http.StatusForbidden:
		// Posting rejections come back 403 with an explanatory body;
		// anything else forbidden is a credential problem.
		if op == "post" {
			return platform.ErrContentViolation
		}
		return platform.ErrAuthentication
	case status == http.StatusNotFound:
		return platform.ErrPostNotFound
	case status == http.StatusTooManyRequests:
		return &platform.RateLimitError{RetryAfter: retryAfter(header)}
	case status >= 500:
		return &platform.PostingError{Op: op, Err: fmt.Errorf("x api status %d", status), Retry: true}
	default:
		return &platform.PostingError{Op: op, Err: fmt.Errorf("x api status %d: %s", status, truncate(string(body), 200))}
	}
}

func retryAfter(h http.Header) time.Duration {
	if v := h.Get("Retry-After"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	// x-rate-limit-reset is a unix timestamp.
	if v := h.Get("x-rate-limit-reset"); v != "" {
		if ts, err := strconv.ParseInt(v, 10, 64); err == nil {
			if d := time.Until(time.Unix(ts, 0)); d > 0 {
				return d
			}
		}
	}
	return 0
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
