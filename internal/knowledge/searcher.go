// Package knowledge exposes the knowledge-base collaborator to the engine as
// a semantic-search capability: given keywords, return ranked text chunks.
// Ingestion and storage of documents live outside the core.
package knowledge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Chunk is one ranked piece of knowledge-base text.
type Chunk struct {
	Text   string  `json:"text"`
	Source string  `json:"source"`
	Score  float64 `json:"score"`
}

// Searcher is the knowledge-base search contract.
type Searcher interface {
	Search(ctx context.Context, keywords []string, topK int) ([]Chunk, error)
}

// BestEffortSearch collapses every retrieval failure into zero chunks. The
// generation pipeline calls this instead of Searcher.Search directly so the
// degradation decision lives at exactly one call site.
func BestEffortSearch(ctx context.Context, s Searcher, keywords []string, topK int) []Chunk {
	if s == nil || len(keywords) == 0 {
		return nil
	}
	chunks, err := s.Search(ctx, keywords, topK)
	if err != nil {
		return nil
	}
	return chunks
}

// HTTPSearcher queries a knowledge-base service over HTTP.
type HTTPSearcher struct {
	endpoint string
	http     *http.Client
}

func NewHTTPSearcher(endpoint string) *HTTPSearcher {
	return &HTTPSearcher{
		endpoint: strings.TrimRight(endpoint, "/"),
		http:     &http.Client{Timeout: 3 * time.Second},
	}
}

func (s *HTTPSearcher) Search(ctx context.Context, keywords []string, topK int) ([]Chunk, error) {
	payload, err := json.Marshal(map[string]any{
		"keywords": keywords,
		"top_k":    topK,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint+"/search", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("knowledge search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("knowledge search returned status %d", resp.StatusCode)
	}

	var out struct {
		Chunks []Chunk `json:"chunks"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding search response: %w", err)
	}
	return out.Chunks, nil
}
