package llm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(endpoint string) LLMConfig {
	cfg := DefaultConfig()
	cfg.Endpoint = endpoint
	cfg.MaxRetries = 0
	return cfg
}

func TestGenerate_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"model":"llama3.2","response":"drafted text"}`))
	}))
	defer srv.Close()

	client := NewOllamaClient(testConfig(srv.URL), nil)
	resp, err := client.Generate(context.Background(), GenerateRequest{
		Task:       TaskGenerate,
		UserPrompt: "say something",
	})
	require.NoError(t, err)
	assert.Equal(t, "drafted text", resp.Text)
	assert.Equal(t, "llama3.2", resp.Model)
	assert.GreaterOrEqual(t, resp.LatencyMs, int64(0))
}

func TestGenerate_ServerErrorExhaustsRetries(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.MaxRetries = 1
	client := NewOllamaClient(cfg, nil)
	_, err := client.Generate(context.Background(), GenerateRequest{Task: TaskAnalyze, UserPrompt: "x"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRetryExhausted)
	assert.Equal(t, 2, calls, "one attempt plus one retry")
}

func TestAvailable_FalseWhenUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // closed on purpose

	client := NewOllamaClient(testConfig(srv.URL), nil)
	assert.False(t, client.Available(context.Background()))
}
