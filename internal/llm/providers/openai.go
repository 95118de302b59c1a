package providers

import (
	"context"
	"errors"
	"strings"
	"time"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"emailwise/backend/internal/llm/contract"
)

type OpenAIProvider struct {
	client openai.Client
	config *contract.ProviderConfig
}

func NewOpenAIProvider(config *contract.ProviderConfig) *OpenAIProvider {
	opts := []option.RequestOption{option.WithAPIKey(config.APIKey), option.WithMaxRetries(0)}
	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}
	return &OpenAIProvider{
		client: openai.NewClient(opts...),
		config: config,
	}
}

func (o *OpenAIProvider) Name() string { return "openai" }

func (o *OpenAIProvider) Available() bool { return o.config.APIKey != "" }

func (o *OpenAIProvider) Complete(ctx context.Context, req contract.CompletionRequest) (*contract.Completion, error) {
	ctx, cancel := context.WithTimeout(ctx, timeoutFor(o.config))
	defer cancel()

	params := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(o.config.ModelName),
		Messages: []openai.ChatCompletionMessageParamUnion{},
	}
	if req.System != "" {
		params.Messages = append(params.Messages, systemMessage(req.System))
	}
	params.Messages = append(params.Messages, userMessage(req.Prompt))
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}
	if req.Temperature != nil {
		params.Temperature = openai.Float(*req.Temperature)
	}
	if req.JSON {
		format := shared.NewResponseFormatJSONObjectParam()
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &format,
		}
	}

	start := time.Now()
	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, o.classify(err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return nil, contract.NewRemoteError(o.Name(), contract.KindEmpty, errors.New("empty response"))
	}
	return &contract.Completion{
		Text:  resp.Choices[0].Message.Content,
		Usage: usageRecord(o.Name(), o.config.ModelName, req.Feature, start, int(resp.Usage.PromptTokens), int(resp.Usage.CompletionTokens), nil),
	}, nil
}

func (o *OpenAIProvider) classify(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return contract.NewRemoteError(o.Name(), kindForStatus(apiErr.StatusCode), err)
	}
	return contract.NewRemoteError(o.Name(), classifyMessage(err), err)
}

func systemMessage(content string) openai.ChatCompletionMessageParamUnion {
	return openai.ChatCompletionMessageParamUnion{
		OfSystem: &openai.ChatCompletionSystemMessageParam{
			Content: openai.ChatCompletionSystemMessageParamContentUnion{
				OfString: openai.String(content),
			},
		},
	}
}

func userMessage(content string) openai.ChatCompletionMessageParamUnion {
	return openai.ChatCompletionMessageParamUnion{
		OfUser: &openai.ChatCompletionUserMessageParam{
			Content: openai.ChatCompletionUserMessageParamContentUnion{
				OfString: openai.String(content),
			},
		},
	}
}
