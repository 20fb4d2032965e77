package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"sparrow/internal/knowledge"
	"sparrow/internal/llm"
	"sparrow/internal/platform"
)

// FakeAdapter is a scriptable platform.Adapter that records call counts.
type FakeAdapter struct {
	mu sync.Mutex

	PlatformKey string

	Replies      []platform.Post
	SearchHits   []platform.Post
	Authors      map[string]platform.AuthorInfo
	PostResponse platform.PostResult
	MaxLength    int

	RepliesErr error
	SearchErr  error
	AuthorErr  error
	PostErr    error

	FetchRepliesCalls int
	SearchCalls       int
	PostCalls         int
	LastSearchSince   time.Time
	LastRepliesSince  time.Time
	PostedTexts       []string
}

func NewFakeAdapter() *FakeAdapter {
	return &FakeAdapter{
		PlatformKey: "x",
		Authors:     make(map[string]platform.AuthorInfo),
		MaxLength:   280,
		PostResponse: platform.PostResult{
			PlatformPostID:  "fake-post-1",
			PlatformPostURL: "https://x.com/testhandle/status/fake-post-1",
			PostedAt:        time.Now().UTC(),
		},
	}
}

func (f *FakeAdapter) Platform() string {
	if f.PlatformKey == "" {
		return "x"
	}
	return f.PlatformKey
}

func (f *FakeAdapter) FetchReplies(_ context.Context, since time.Time, _ int) ([]platform.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.FetchRepliesCalls++
	f.LastRepliesSince = since
	if f.RepliesErr != nil {
		return nil, f.RepliesErr
	}
	return f.Replies, nil
}

func (f *FakeAdapter) SearchPosts(_ context.Context, _ []string, since time.Time, _ int) ([]platform.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.SearchCalls++
	f.LastSearchSince = since
	if f.SearchErr != nil {
		return nil, f.SearchErr
	}
	return f.SearchHits, nil
}

func (f *FakeAdapter) GetAuthor(_ context.Context, platformUserID string) (platform.AuthorInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.AuthorErr != nil {
		return platform.AuthorInfo{}, f.AuthorErr
	}
	if info, ok := f.Authors[platformUserID]; ok {
		return info, nil
	}
	return platform.AuthorInfo{
		PlatformUserID: platformUserID,
		Handle:         "author_" + platformUserID,
		DisplayName:    "Author " + platformUserID,
		FollowerCount:  500,
	}, nil
}

func (f *FakeAdapter) Post(_ context.Context, _, text string) (platform.PostResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.PostCalls++
	if f.PostErr != nil {
		return platform.PostResult{}, f.PostErr
	}
	f.PostedTexts = append(f.PostedTexts, text)
	return f.PostResponse, nil
}

func (f *FakeAdapter) ResponseConstraints(_ context.Context) (platform.Constraints, error) {
	return platform.Constraints{MaxLength: f.MaxLength}, nil
}

// FakeLLM returns scripted outputs in order and records every request it saw.
type FakeLLM struct {
	mu sync.Mutex

	// Outputs are consumed one per Generate call. When exhausted the last
	// entry repeats.
	Outputs []string
	Errs    []error

	Requests []llm.GenerateRequest
	Up       bool
}

func NewFakeLLM(outputs ...string) *FakeLLM {
	return &FakeLLM{Outputs: outputs, Up: true}
}

func (f *FakeLLM) Generate(_ context.Context, req llm.GenerateRequest) (*llm.GenerateResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	idx := len(f.Requests)
	f.Requests = append(f.Requests, req)

	if idx < len(f.Errs) && f.Errs[idx] != nil {
		return nil, f.Errs[idx]
	}
	if len(f.Outputs) == 0 {
		return nil, fmt.Errorf("fake llm has no scripted output")
	}
	if idx >= len(f.Outputs) {
		idx = len(f.Outputs) - 1
	}
	return &llm.GenerateResponse{Text: f.Outputs[idx], Model: "fake-model", LatencyMs: 5}, nil
}

func (f *FakeLLM) Available(_ context.Context) bool {
	return f.Up
}

// RequestsForTask filters recorded requests by task type.
func (f *FakeLLM) RequestsForTask(task llm.TaskType) []llm.GenerateRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []llm.GenerateRequest
	for _, r := range f.Requests {
		if r.Task == task {
			out = append(out, r)
		}
	}
	return out
}

// FakeSearcher is a scriptable knowledge.Searcher.
type FakeSearcher struct {
	Chunks []knowledge.Chunk
	Err    error

	Calls        int
	LastKeywords []string
}

func (f *FakeSearcher) Search(_ context.Context, keywords []string, _ int) ([]knowledge.Chunk, error) {
	f.Calls++
	f.LastKeywords = keywords
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Chunks, nil
}
