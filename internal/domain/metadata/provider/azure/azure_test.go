package azure

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"imagemeta-server-go/internal/domain/image"
	"imagemeta-server-go/internal/platform/config"
	"imagemeta-server-go/internal/platform/logging"
)

func testProvider(t *testing.T, conf config.ProviderConfig) *Provider {
	t.Helper()
	logger, err := logging.New(logging.Config{Level: "error"})
	require.NoError(t, err)
	t.Cleanup(func() { logger.Close() })

	p := NewProvider(conf, logger)
	p.backoffBase = time.Millisecond
	return p
}

func serverConfig(url string) config.ProviderConfig {
	return config.ProviderConfig{
		EndpointBase:  url,
		DeploymentID:  "vision-deploy",
		APIVersion:    "2024-02-01",
		APIKey:        "secret-key",
		ModelName:     "gpt-4o",
		TimeoutMillis: 2000,
		RetryAttempts: 3,
	}
}

func TestProvider_Configured(t *testing.T) {
	assert.True(t, testProvider(t, serverConfig("https://real.example.com")).Configured())

	conf := config.DefaultConfig().Provider
	assert.False(t, testProvider(t, conf).Configured())

	conf = serverConfig("https://real.example.com")
	conf.DeploymentID = config.SampleDeploymentID
	assert.False(t, testProvider(t, conf).Configured())

	conf = serverConfig("https://real.example.com")
	conf.APIVersion = ""
	assert.False(t, testProvider(t, conf).Configured())
}

func TestProvider_UnconfiguredServesDegraded(t *testing.T) {
	p := testProvider(t, config.DefaultConfig().Provider)

	got, err := p.Complete(context.Background(), "describe", image.Ref{URL: "https://img/x.jpg"})
	require.NoError(t, err)
	assert.True(t, got.Degraded)
	assert.Contains(t, got.Content, "Sample Image Title")
}

func TestProvider_Complete(t *testing.T) {
	var authHeader, path, query atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader.Store(r.Header.Get("Authorization"))
		path.Store(r.URL.Path)
		query.Store(r.URL.RawQuery)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"content":"a quiet harbor"}}]}`))
	}))
	defer server.Close()

	p := testProvider(t, serverConfig(server.URL))
	got, err := p.Complete(context.Background(), "describe", image.Ref{URL: "https://img/x.jpg"})
	require.NoError(t, err)

	assert.Equal(t, "a quiet harbor", got.Content)
	assert.False(t, got.Degraded)
	assert.Equal(t, "Bearer secret-key", authHeader.Load())
	assert.Equal(t, "/openai/deployments/vision-deploy/chat/completions", path.Load())
	assert.Equal(t, "api-version=2024-02-01", query.Load())
}

func TestProvider_RetriesThenFails(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "upstream overloaded", http.StatusInternalServerError)
	}))
	defer server.Close()

	p := testProvider(t, serverConfig(server.URL))
	_, err := p.Complete(context.Background(), "describe", image.Ref{URL: "https://img/x.jpg"})

	require.Error(t, err)
	assert.Equal(t, int32(3), calls.Load())

	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Equal(t, http.StatusInternalServerError, transportErr.StatusCode)
	assert.Equal(t, 3, transportErr.Attempts)
}

func TestProvider_RecoversOnRetry(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 2 {
			http.Error(w, "try again", http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"choices":[{"message":{"content":"second time lucky"}}]}`))
	}))
	defer server.Close()

	p := testProvider(t, serverConfig(server.URL))
	got, err := p.Complete(context.Background(), "describe", image.Ref{URL: "https://img/x.jpg"})

	require.NoError(t, err)
	assert.Equal(t, "second time lucky", got.Content)
	assert.Equal(t, int32(2), calls.Load())
}

func TestProvider_EmptyChoicesKeepsRaw(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	p := testProvider(t, serverConfig(server.URL))
	got, err := p.Complete(context.Background(), "describe", image.Ref{URL: "https://img/x.jpg"})

	require.NoError(t, err)
	assert.Empty(t, got.Content)
	assert.Equal(t, `{"choices":[]}`, got.Raw)
}

func TestProvider_ContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := testProvider(t, serverConfig(server.URL))
	_, err := p.Complete(ctx, "describe", image.Ref{URL: "https://img/x.jpg"})
	require.Error(t, err)
}
