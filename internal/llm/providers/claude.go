package providers

import (
	"context"
	"errors"
	"strings"
	"time"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"emailwise/backend/internal/llm/contract"
)

const claudeDefaultMaxTokens = 1024

type ClaudeProvider struct {
	client anthropic.Client
	config *contract.ProviderConfig
}

func NewClaudeProvider(config *contract.ProviderConfig) *ClaudeProvider {
	opts := []option.RequestOption{option.WithAPIKey(config.APIKey), option.WithMaxRetries(0)}
	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}
	return &ClaudeProvider{
		client: anthropic.NewClient(opts...),
		config: config,
	}
}

func (c *ClaudeProvider) Name() string { return "claude" }

func (c *ClaudeProvider) Available() bool { return c.config.APIKey != "" }

func (c *ClaudeProvider) Complete(ctx context.Context, req contract.CompletionRequest) (*contract.Completion, error) {
	ctx, cancel := context.WithTimeout(ctx, timeoutFor(c.config))
	defer cancel()

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = claudeDefaultMaxTokens
	}
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.config.ModelName),
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}
	if req.Temperature != nil {
		params.Temperature = anthropic.Float(*req.Temperature)
	}

	start := time.Now()
	result, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, c.classify(err)
	}

	var text strings.Builder
	for _, block := range result.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	content := strings.TrimSpace(text.String())
	if content == "" {
		return nil, contract.NewRemoteError(c.Name(), contract.KindEmpty, errors.New("empty response"))
	}
	// Strip any prose around the JSON object.
	if req.JSON {
		content = extractJSON(content)
	}
	return &contract.Completion{
		Text:  content,
		Usage: usageRecord(c.Name(), c.config.ModelName, req.Feature, start, int(result.Usage.InputTokens), int(result.Usage.OutputTokens), nil),
	}, nil
}

func (c *ClaudeProvider) classify(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return contract.NewRemoteError(c.Name(), kindForStatus(apiErr.StatusCode), err)
	}
	return contract.NewRemoteError(c.Name(), classifyMessage(err), err)
}
