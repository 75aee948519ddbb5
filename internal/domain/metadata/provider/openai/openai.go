// Package openai implements the secondary vision provider on top of any
// OpenAI-compatible chat completions endpoint.
package openai

import (
	"context"
	"encoding/json"
	"time"

	sdk "github.com/sashabaranov/go-openai"

	"imagemeta-server-go/internal/domain/image"
	"imagemeta-server-go/internal/domain/metadata"
	"imagemeta-server-go/internal/platform/config"
	"imagemeta-server-go/internal/platform/errors"
	"imagemeta-server-go/internal/platform/logging"
)

const defaultTimeout = 30 * time.Second

type Provider struct {
	client  *sdk.Client
	model   string
	timeout time.Duration
	logger  *logging.Logger
}

func NewProvider(conf config.FallbackConfig, logger *logging.Logger) *Provider {
	clientConf := sdk.DefaultConfig(conf.APIKey)
	if conf.BaseURL != "" {
		clientConf.BaseURL = conf.BaseURL
	}

	timeout := defaultTimeout
	if conf.TimeoutMillis > 0 {
		timeout = time.Duration(conf.TimeoutMillis) * time.Millisecond
	}

	model := conf.ModelName
	if model == "" {
		model = sdk.GPT4oMini
	}

	return &Provider{
		client:  sdk.NewClientWithConfig(clientConf),
		model:   model,
		timeout: timeout,
		logger:  logger,
	}
}

func (p *Provider) Name() string {
	return "openai"
}

func (p *Provider) Tag() metadata.Tag {
	return metadata.TagFallback
}

func (p *Provider) Complete(ctx context.Context, prompt string, ref image.Ref) (*metadata.Completion, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	resp, err := p.client.CreateChatCompletion(ctx, sdk.ChatCompletionRequest{
		Model:     p.model,
		MaxTokens: 500,
		Messages: []sdk.ChatCompletionMessage{
			{
				Role: sdk.ChatMessageRoleUser,
				MultiContent: []sdk.ChatMessagePart{
					{Type: sdk.ChatMessagePartTypeText, Text: prompt},
					{
						Type:     sdk.ChatMessagePartTypeImageURL,
						ImageURL: &sdk.ChatMessageImageURL{URL: ref.PayloadURL()},
					},
				},
			},
		},
	})
	if err != nil {
		return nil, errors.Wrap(errors.KindProvider, "openai.Complete", "chat completion", err)
	}

	raw, _ := json.Marshal(resp)
	content := ""
	if len(resp.Choices) > 0 {
		content = resp.Choices[0].Message.Content
	} else {
		p.logger.WarnTag("Provider", "fallback response carried no choices")
	}

	return &metadata.Completion{Content: content, Raw: string(raw)}, nil
}
