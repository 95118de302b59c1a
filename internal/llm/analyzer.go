package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"emailwise/backend/internal/attachments"
	"emailwise/backend/internal/llm/contract"
	"emailwise/backend/internal/metrics"
)

const (
	MethodRemote = "ai"
	MethodLocal  = "local"

	chatRefusal = "I can only answer questions in online mode with an API key."
	chatFailure = "I encountered an error trying to answer that."
)

// UsageRecorder persists one record per remote completion attempt.
type UsageRecorder interface {
	InsertUsage(ctx context.Context, record UsageRecord) error
}

type Analyzer struct {
	provider         Provider
	usage            UsageRecorder
	maxContentLength int
	log              zerolog.Logger
}

func NewAnalyzer(provider Provider, usage UsageRecorder, maxContentLength int, log zerolog.Logger) *Analyzer {
	if maxContentLength <= 0 {
		maxContentLength = DefaultMaxContentLength
	}
	return &Analyzer{
		provider:         provider,
		usage:            usage,
		maxContentLength: maxContentLength,
		log:              log.With().Str("component", "analyzer").Logger(),
	}
}

// Mode reports whether analyses will be attempted remotely.
func (a *Analyzer) Mode() string {
	if a.provider != nil && a.provider.Available() {
		return MethodRemote
	}
	return MethodLocal
}

// AnalyzeEmail runs the remote analyzer when a provider is configured and
// degrades to the local extractor on any remote failure. It never returns a
// Go error: failures are reported through the response envelope and the
// result's Method.
func (a *Analyzer) AnalyzeEmail(ctx context.Context, req Request) *AnalysisResponse {
	opts := req.Options.Normalize()
	attachmentText := attachments.Process(req.Attachments, a.log)
	text := PrepareContent(req.Content, attachmentText, a.maxContentLength)

	if a.Mode() == MethodLocal {
		a.log.Warn().Msg("no completion provider configured, using local analysis")
		return a.runLocal(text, opts, MethodLocal)
	}

	result, remoteErr := a.analyzeRemote(ctx, text, opts)
	if remoteErr != nil {
		a.log.Warn().
			Str("provider", remoteErr.Provider).
			Str("kind", remoteErr.Kind.String()).
			Err(remoteErr.Err).
			Msg("remote analysis failed, falling back to local analysis")
		return a.runLocal(text, opts, MethodLocal+" ("+fallbackReason(remoteErr.Kind)+")")
	}
	metrics.RecordAnalysis(result.Method)
	return &AnalysisResponse{Success: true, Data: result}
}

func (a *Analyzer) analyzeRemote(ctx context.Context, text string, opts Options) (*AnalysisResult, *contract.RemoteError) {
	temperature := analysisTemperature
	completion, remoteErr := a.complete(ctx, contract.CompletionRequest{
		System:      analysisSystemPrompt,
		Prompt:      buildAnalysisPrompt(text, opts),
		JSON:        true,
		Temperature: &temperature,
		MaxTokens:   analysisMaxTokens,
		Feature:     "analyze",
	})
	if remoteErr != nil {
		return nil, remoteErr
	}
	result, err := decodeAnalysis(completion.Text)
	if err != nil {
		return nil, contract.NewRemoteError(a.provider.Name(), contract.KindParse, err)
	}
	result.Method = MethodRemote
	return result, nil
}

func (a *Analyzer) runLocal(text string, opts Options, method string) (resp *AnalysisResponse) {
	defer func() {
		if r := recover(); r != nil {
			a.log.Error().Interface("panic", r).Msg("local analysis failed")
			metrics.RecordAnalysis("failed")
			resp = &AnalysisResponse{Success: false, Error: fmt.Sprintf("Local analysis failed: %v", r)}
		}
	}()
	result := analyzeLocally(text, opts)
	result.Method = method
	metrics.RecordAnalysis(method)
	return &AnalysisResponse{Success: true, Data: result}
}

// ChatWithEmail answers a follow-up question about content. Without a remote
// provider it returns a fixed refusal; remote failures become a fixed apology.
func (a *Analyzer) ChatWithEmail(ctx context.Context, content, query string) string {
	if a.Mode() == MethodLocal {
		metrics.RecordChat("refused")
		return chatRefusal
	}
	completion, remoteErr := a.complete(ctx, contract.CompletionRequest{
		System:    chatSystemPrompt,
		Prompt:    buildChatPrompt(SmartTruncate(content, a.maxContentLength), query),
		MaxTokens: chatMaxTokens,
		Feature:   "chat",
	})
	if remoteErr != nil {
		a.log.Error().Str("kind", remoteErr.Kind.String()).Err(remoteErr.Err).Msg("chat completion failed")
		metrics.RecordChat("failed")
		return chatFailure
	}
	metrics.RecordChat("answered")
	return completion.Text
}

func (a *Analyzer) complete(ctx context.Context, req contract.CompletionRequest) (*contract.Completion, *contract.RemoteError) {
	start := time.Now()
	completion, err := a.provider.Complete(ctx, req)
	if err == nil && (completion == nil || completion.Text == "") {
		err = contract.NewRemoteError(a.provider.Name(), contract.KindEmpty, fmt.Errorf("empty completion"))
	}

	status := "ok"
	record := contract.UsageRecord{Provider: a.provider.Name(), Feature: req.Feature, Latency: time.Since(start), Success: true}
	remoteErr := contract.AsRemoteError(a.provider.Name(), err)
	if remoteErr != nil {
		status = remoteErr.Kind.String()
		record.Success = false
		record.ErrorMessage = remoteErr.Error()
	} else {
		record = completion.Usage
		record.Feature = req.Feature
		if record.Provider == "" {
			record.Provider = a.provider.Name()
		}
		if record.Latency == 0 {
			record.Latency = time.Since(start)
		}
	}
	metrics.RecordRemoteCall(a.provider.Name(), req.Feature, status, time.Since(start))
	if a.usage != nil {
		if err := a.usage.InsertUsage(context.WithoutCancel(ctx), record); err != nil {
			a.log.Warn().Err(err).Msg("failed to record llm usage")
		}
	}
	if remoteErr != nil {
		return nil, remoteErr
	}
	return completion, nil
}

func fallbackReason(kind contract.ErrorKind) string {
	switch kind {
	case contract.KindRateLimit:
		return "API rate limit exceeded"
	case contract.KindAuth:
		return "API authentication failed"
	case contract.KindEmpty:
		return "empty API response"
	case contract.KindParse:
		return "invalid API response"
	case contract.KindUnavailable:
		return "API temporarily unavailable"
	default:
		return "API request failed"
	}
}
