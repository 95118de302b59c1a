package llm

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"emailwise/backend/internal/llm/contract"
)

// GuardedProvider trips after repeated transport failures so that a dead
// upstream sends requests straight to the local analyzer.
type GuardedProvider struct {
	inner contract.Provider
	cb    *gobreaker.CircuitBreaker
}

func NewGuardedProvider(inner contract.Provider, log zerolog.Logger) *GuardedProvider {
	settings := gobreaker.Settings{
		Name:        "llm-" + inner.Name(),
		MaxRequests: 2,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			// Auth and rate-limit answers prove the upstream is reachable.
			var remote *contract.RemoteError
			if errors.As(err, &remote) {
				return remote.Kind != contract.KindTransport
			}
			return err == nil
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
		},
	}
	return &GuardedProvider{inner: inner, cb: gobreaker.NewCircuitBreaker(settings)}
}

func (g *GuardedProvider) Name() string { return g.inner.Name() }

func (g *GuardedProvider) Available() bool { return g.inner.Available() }

func (g *GuardedProvider) Complete(ctx context.Context, req contract.CompletionRequest) (*contract.Completion, error) {
	out, err := g.cb.Execute(func() (interface{}, error) {
		return g.inner.Complete(ctx, req)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, contract.NewRemoteError(g.Name(), contract.KindUnavailable, err)
	}
	if err != nil {
		return nil, err
	}
	completion, _ := out.(*contract.Completion)
	return completion, nil
}

func (g *GuardedProvider) State() gobreaker.State {
	return g.cb.State()
}
