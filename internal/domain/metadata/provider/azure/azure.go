// Package azure implements the primary vision provider against an Azure
// OpenAI deployment endpoint.
package azure

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"imagemeta-server-go/internal/domain/image"
	"imagemeta-server-go/internal/domain/metadata"
	"imagemeta-server-go/internal/platform/config"
	"imagemeta-server-go/internal/platform/errors"
	"imagemeta-server-go/internal/platform/logging"
)

const (
	defaultTimeout  = 30 * time.Second
	defaultAttempts = 3
	maxTokens       = 500
	temperature     = 0.7
	topP            = 0.95
)

// Provider calls the deployment-style chat completions endpoint:
// {endpoint_base}/openai/deployments/{deployment_id}/chat/completions.
type Provider struct {
	conf        config.ProviderConfig
	client      *http.Client
	logger      *logging.Logger
	timeout     time.Duration
	attempts    int
	backoffBase time.Duration
}

// TransportError reports a request that failed after all retry attempts.
type TransportError struct {
	StatusCode int
	Message    string
	Attempts   int
}

func (e *TransportError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("provider request failed with status %d after %d attempts: %s", e.StatusCode, e.Attempts, e.Message)
	}
	return fmt.Sprintf("provider request failed after %d attempts: %s", e.Attempts, e.Message)
}

func NewProvider(conf config.ProviderConfig, logger *logging.Logger) *Provider {
	timeout := defaultTimeout
	if conf.TimeoutMillis > 0 {
		timeout = time.Duration(conf.TimeoutMillis) * time.Millisecond
	}
	attempts := defaultAttempts
	if conf.RetryAttempts > 0 {
		attempts = conf.RetryAttempts
	}

	return &Provider{
		conf:        conf,
		client:      &http.Client{},
		logger:      logger,
		timeout:     timeout,
		attempts:    attempts,
		backoffBase: time.Second,
	}
}

func (p *Provider) Name() string {
	return "azure"
}

func (p *Provider) Tag() metadata.Tag {
	return metadata.TagPrimary
}

// Configured reports whether the endpoint settings point at a real
// deployment rather than the shipped sample placeholders.
func (p *Provider) Configured() bool {
	if strings.TrimSpace(p.conf.EndpointBase) == "" || p.conf.EndpointBase == config.SampleEndpointBase {
		return false
	}
	if strings.TrimSpace(p.conf.DeploymentID) == "" || p.conf.DeploymentID == config.SampleDeploymentID {
		return false
	}
	return strings.TrimSpace(p.conf.APIVersion) != ""
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatMessage struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model,omitempty"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
	TopP        float64       `json:"top_p"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Complete sends one vision completion request with retries. When the
// provider is unconfigured it returns a canned degraded completion without
// touching the network, so the rest of the pipeline keeps working.
func (p *Provider) Complete(ctx context.Context, prompt string, ref image.Ref) (*metadata.Completion, error) {
	if !p.Configured() {
		p.logger.WarnTag("Provider", "endpoint not configured, serving degraded response")
		return p.degradedCompletion(prompt), nil
	}

	body, err := json.Marshal(p.buildRequest(prompt, ref))
	if err != nil {
		return nil, errors.Wrap(errors.KindProvider, "azure.Complete", "marshal request", err)
	}

	endpoint := fmt.Sprintf("%s/openai/deployments/%s/chat/completions?api-version=%s",
		strings.TrimRight(p.conf.EndpointBase, "/"), p.conf.DeploymentID, p.conf.APIVersion)
	p.logDebugCurl(endpoint, body)

	var lastStatus int
	var lastMessage string
	for attempt := 1; attempt <= p.attempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return nil, errors.Wrap(errors.KindTransport, "azure.Complete", "canceled during backoff", ctx.Err())
			case <-time.After(p.backoffBase << (attempt - 2)):
			}
		}

		content, raw, status, err := p.doRequest(ctx, endpoint, body)
		if err == nil {
			return &metadata.Completion{Content: content, Raw: raw}, nil
		}
		if ctx.Err() != nil {
			return nil, errors.Wrap(errors.KindTransport, "azure.Complete", "request canceled", ctx.Err())
		}

		lastStatus = status
		lastMessage = err.Error()
		p.logger.WarnTag("Provider", "attempt %d/%d failed: %v", attempt, p.attempts, err)
	}

	return nil, &TransportError{StatusCode: lastStatus, Message: lastMessage, Attempts: p.attempts}
}

func (p *Provider) buildRequest(prompt string, ref image.Ref) chatRequest {
	return chatRequest{
		Model: p.conf.ModelName,
		Messages: []chatMessage{
			{
				Role: "user",
				Content: []contentPart{
					{Type: "text", Text: prompt},
					{Type: "image_url", ImageURL: &imageURL{URL: ref.PayloadURL()}},
				},
			},
		},
		MaxTokens:   maxTokens,
		Temperature: temperature,
		TopP:        topP,
	}
}

// doRequest runs a single attempt with its own timeout slice.
func (p *Provider) doRequest(parent context.Context, endpoint string, body []byte) (content, raw string, status int, err error) {
	ctx, cancel := context.WithTimeout(parent, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", "", 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if p.conf.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.conf.APIKey)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return "", "", 0, err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", "", resp.StatusCode, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", "", resp.StatusCode, fmt.Errorf("status %d: %s", resp.StatusCode, truncate(string(payload), 200))
	}

	var parsed chatResponse
	if err := json.Unmarshal(payload, &parsed); err != nil {
		// Still a 2xx: hand the body to the parser rather than retrying.
		return "", string(payload), resp.StatusCode, nil
	}
	if len(parsed.Choices) == 0 {
		return "", string(payload), resp.StatusCode, nil
	}
	return parsed.Choices[0].Message.Content, string(payload), resp.StatusCode, nil
}

// degradedCompletion mimics a successful structured answer so callers can
// exercise the full pipeline against an unconfigured endpoint.
func (p *Provider) degradedCompletion(prompt string) *metadata.Completion {
	content := `{"Title":"Sample Image Title","Description":"This is a sample description generated without a configured vision endpoint.","Keywords":"sample, placeholder, unconfigured"}`
	raw := fmt.Sprintf(`{"degraded":true,"prompt":%q}`, truncate(prompt, 120))
	return &metadata.Completion{Content: content, Raw: raw, Degraded: true}
}

// logDebugCurl writes a reproducible request for troubleshooting, with the
// key redacted.
func (p *Provider) logDebugCurl(endpoint string, body []byte) {
	auth := ""
	if p.conf.APIKey != "" {
		auth = ` -H "Authorization: Bearer ***"`
	}
	p.logger.DebugTag("Provider", `curl -X POST %q -H "Content-Type: application/json"%s -d %q`,
		endpoint, auth, truncate(string(body), 400))
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
