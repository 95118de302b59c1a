package providers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"emailwise/backend/internal/llm/contract"
)

const defaultTimeout = 90 * time.Second

func extractJSON(text string) string {
	start := strings.IndexAny(text, "{[")
	end := strings.LastIndexAny(text, "}]")
	if start == -1 || end == -1 || end <= start {
		return text
	}
	return text[start : end+1]
}

func timeoutFor(config *contract.ProviderConfig) time.Duration {
	if config.Timeout > 0 {
		return config.Timeout
	}
	return defaultTimeout
}

func kindForStatus(status int) contract.ErrorKind {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return contract.KindAuth
	case status == http.StatusTooManyRequests:
		return contract.KindRateLimit
	default:
		return contract.KindTransport
	}
}

// classifyMessage is used when the SDK error carries no status code.
func classifyMessage(err error) contract.ErrorKind {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return contract.KindTransport
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "429") || strings.Contains(msg, "rate limit"):
		return contract.KindRateLimit
	case strings.Contains(msg, "401") || strings.Contains(msg, "invalid api key") || strings.Contains(msg, "unauthorized"):
		return contract.KindAuth
	default:
		return contract.KindTransport
	}
}

func usageRecord(provider, model, feature string, start time.Time, input, output int, err error) contract.UsageRecord {
	record := contract.UsageRecord{
		Provider:     provider,
		Model:        model,
		InputTokens:  input,
		OutputTokens: output,
		TotalTokens:  input + output,
		Latency:      time.Since(start),
		Success:      err == nil,
		Feature:      feature,
	}
	if err != nil {
		record.ErrorMessage = err.Error()
	}
	return record
}
