package providers

import (
	"context"

	"emailwise/backend/internal/llm/contract"
)

// Unavailable stands in for a remote provider when no credential is configured.
type Unavailable struct {
	name string
}

func NewUnavailable(name string) *Unavailable {
	if name == "" {
		name = "none"
	}
	return &Unavailable{name: name}
}

func (u *Unavailable) Name() string { return u.name }

func (u *Unavailable) Available() bool { return false }

func (u *Unavailable) Complete(ctx context.Context, req contract.CompletionRequest) (*contract.Completion, error) {
	return nil, contract.NewRemoteError(u.name, contract.KindUnavailable, contract.ErrUnavailable)
}
