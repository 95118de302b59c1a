package contract

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var ErrUnavailable = errors.New("completion provider not configured")

type Provider interface {
	Name() string
	Available() bool
	Complete(ctx context.Context, req CompletionRequest) (*Completion, error)
}

type ProviderConfig struct {
	ProviderName string
	APIKey       string
	ModelName    string
	BaseURL      string
	Timeout      time.Duration
}

type CompletionRequest struct {
	System      string
	Prompt      string
	JSON        bool
	Temperature *float64
	MaxTokens   int
	Feature     string
}

type Completion struct {
	Text  string
	Usage UsageRecord
}

type UsageRecord struct {
	Provider     string
	Model        string
	InputTokens  int
	OutputTokens int
	TotalTokens  int
	Latency      time.Duration
	Success      bool
	ErrorMessage string
	Feature      string
}

// ErrorKind classifies why a remote completion could not be used.
type ErrorKind int

const (
	KindTransport ErrorKind = iota
	KindUnavailable
	KindAuth
	KindRateLimit
	KindEmpty
	KindParse
)

func (k ErrorKind) String() string {
	switch k {
	case KindUnavailable:
		return "unavailable"
	case KindAuth:
		return "auth"
	case KindRateLimit:
		return "rate_limit"
	case KindEmpty:
		return "empty"
	case KindParse:
		return "parse"
	default:
		return "transport"
	}
}

type RemoteError struct {
	Kind     ErrorKind
	Provider string
	Err      error
}

func (e *RemoteError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s error", e.Provider, e.Kind)
	}
	return fmt.Sprintf("%s: %s error: %v", e.Provider, e.Kind, e.Err)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

func NewRemoteError(provider string, kind ErrorKind, err error) *RemoteError {
	return &RemoteError{Kind: kind, Provider: provider, Err: err}
}

// AsRemoteError returns err as a *RemoteError, classifying anything else as a
// transport failure.
func AsRemoteError(provider string, err error) *RemoteError {
	if err == nil {
		return nil
	}
	var remote *RemoteError
	if errors.As(err, &remote) {
		return remote
	}
	if errors.Is(err, ErrUnavailable) {
		return NewRemoteError(provider, KindUnavailable, err)
	}
	return NewRemoteError(provider, KindTransport, err)
}
