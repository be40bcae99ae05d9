package redlock

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// go-redis's client already is the "scoped checkout" capability the
// protocol asks for: every command it issues, including EVAL/EVALSHA,
// borrows a pooled connection for the duration of that single call and
// returns it on every exit path (success, error, or context
// cancellation). That removes the need for a separate bare-connection-
// vs-pool distinction at this layer; instance always holds a
// redis.UniversalClient and lets it manage checkout.
//
// The constructors below instead cover the other axis of the protocol's
// "polymorphic connection input" design note: a caller may already have
// live clients, or may only have a list of connection URLs.

// NewCoordinatorFromClients is an alias of NewCoordinator, kept for
// parity with NewCoordinatorFromURLs so both forms read the same way at
// a call site.
func NewCoordinatorFromClients(ctx context.Context, clients []redis.UniversalClient, opts ...CoordinatorOption) (*Coordinator, error) {
	return NewCoordinator(ctx, clients, nil, opts...)
}

// NewCoordinatorFromURLs builds one *redis.Client per URL (redis:// or
// rediss://, go-redis's own ParseURL syntax) and wraps them in a
// Coordinator. The clients are returned alongside the Coordinator;
// closing them is the caller's responsibility via CloseClients, since Coordinator
// itself holds no lifecycle hook of its own (client ownership and
// lifetime are left to the caller throughout this package, matching how
// instance treats the client it's given).
func NewCoordinatorFromURLs(ctx context.Context, urls []string, opts ...CoordinatorOption) (*Coordinator, []redis.UniversalClient, error) {
	if len(urls) == 0 {
		return nil, nil, ErrNoInstances
	}

	clients := make([]redis.UniversalClient, len(urls))
	for i, u := range urls {
		cfg, err := redis.ParseURL(u)
		if err != nil {
			return nil, nil, err
		}
		clients[i] = redis.NewClient(cfg)
	}

	coord, err := NewCoordinator(ctx, clients, urls, opts...)
	if err != nil {
		CloseClients(clients)
		return nil, nil, err
	}
	return coord, clients, nil
}

// CloseClients closes every client in the slice, collecting nothing:
// failures to close a pooled connection are not actionable by the
// caller and are not the coordinator's concern once it has returned.
func CloseClients(clients []redis.UniversalClient) {
	for _, c := range clients {
		if c != nil {
			_ = c.Close()
		}
	}
}
