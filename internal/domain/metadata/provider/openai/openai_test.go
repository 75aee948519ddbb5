package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"imagemeta-server-go/internal/domain/image"
	"imagemeta-server-go/internal/domain/metadata"
	"imagemeta-server-go/internal/platform/config"
	platformtest "imagemeta-server-go/internal/platform/testing"
)

func TestProvider_Complete(t *testing.T) {
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"a foggy pier"}}]}`))
	}))
	defer server.Close()

	p := NewProvider(config.FallbackConfig{
		BaseURL:   server.URL,
		APIKey:    "k",
		ModelName: "gpt-4o-mini",
	}, platformtest.SetupTestLogger(t))

	got, err := p.Complete(context.Background(), "describe", image.Ref{URL: "https://img/x.jpg"})
	require.NoError(t, err)

	assert.Equal(t, "a foggy pier", got.Content)
	assert.Equal(t, metadata.TagFallback, p.Tag())

	messages := gotBody["messages"].([]any)
	require.Len(t, messages, 1)
	parts := messages[0].(map[string]any)["content"].([]any)
	require.Len(t, parts, 2)
	assert.Equal(t, "text", parts[0].(map[string]any)["type"])
	assert.Equal(t, "image_url", parts[1].(map[string]any)["type"])
}

func TestProvider_Error(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"quota exceeded"}}`, http.StatusTooManyRequests)
	}))
	defer server.Close()

	p := NewProvider(config.FallbackConfig{BaseURL: server.URL, APIKey: "k"},
		platformtest.SetupTestLogger(t))

	_, err := p.Complete(context.Background(), "describe", image.Ref{URL: "https://img/x.jpg"})
	require.Error(t, err)
}
