package providers

import (
	"context"
	"errors"
	"strings"
	"time"

	cohere "github.com/cohere-ai/cohere-go"

	"emailwise/backend/internal/llm/contract"
)

type CohereProvider struct {
	client *cohere.Client
	config *contract.ProviderConfig
}

func NewCohereProvider(config *contract.ProviderConfig) *CohereProvider {
	client, _ := cohere.CreateClient(config.APIKey)
	return &CohereProvider{client: client, config: config}
}

func (c *CohereProvider) Name() string { return "cohere" }

func (c *CohereProvider) Available() bool { return c.client != nil && c.config.APIKey != "" }

func (c *CohereProvider) Complete(ctx context.Context, req contract.CompletionRequest) (*contract.Completion, error) {
	if c.client == nil {
		return nil, contract.NewRemoteError(c.Name(), contract.KindUnavailable, errors.New("cohere client not initialized"))
	}
	prompt := req.Prompt
	if req.System != "" {
		prompt = req.System + "\n\n" + prompt
	}
	opts := cohere.GenerateOptions{
		Model:  c.config.ModelName,
		Prompt: prompt,
	}
	if req.MaxTokens > 0 {
		maxTokens := uint(req.MaxTokens)
		opts.MaxTokens = &maxTokens
	}
	if req.Temperature != nil {
		temperature := *req.Temperature
		opts.Temperature = &temperature
	}

	// The cohere client is not context aware, so the deadline is enforced here.
	type generateResult struct {
		resp *cohere.GenerateResponse
		err  error
	}
	done := make(chan generateResult, 1)
	start := time.Now()
	go func() {
		resp, err := c.client.Generate(opts)
		done <- generateResult{resp: resp, err: err}
	}()

	timer := time.NewTimer(timeoutFor(c.config))
	defer timer.Stop()

	var result generateResult
	select {
	case <-ctx.Done():
		return nil, contract.NewRemoteError(c.Name(), contract.KindTransport, ctx.Err())
	case <-timer.C:
		return nil, contract.NewRemoteError(c.Name(), contract.KindTransport, context.DeadlineExceeded)
	case result = <-done:
	}
	if result.err != nil {
		return nil, contract.NewRemoteError(c.Name(), classifyMessage(result.err), result.err)
	}
	if result.resp == nil || len(result.resp.Generations) == 0 || strings.TrimSpace(result.resp.Generations[0].Text) == "" {
		return nil, contract.NewRemoteError(c.Name(), contract.KindEmpty, errors.New("empty response"))
	}
	content := strings.TrimSpace(result.resp.Generations[0].Text)
	if req.JSON {
		content = extractJSON(content)
	}
	return &contract.Completion{
		Text:  content,
		Usage: usageRecord(c.Name(), c.config.ModelName, req.Feature, start, 0, 0, nil),
	}, nil
}
