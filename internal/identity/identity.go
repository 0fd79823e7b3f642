// Package identity carries the per-turn actor identity through the call
// chain. The transport sets it immediately before invoking the agent for a
// turn; scheduling operations read it when the caller omits an explicit
// creator id. Context scoping keeps concurrently handled turns from leaking
// into each other.
package identity

import "context"

type contextKey struct{}

// WithActor returns a derived context carrying the actor id of the human
// driving the current conversation turn.
func WithActor(ctx context.Context, actorID int64) context.Context {
	if ctx == nil || actorID <= 0 {
		return ctx
	}
	return context.WithValue(ctx, contextKey{}, actorID)
}

// ActorFrom extracts the actor id attached to the context. The boolean is
// false when no identity was set for this turn.
func ActorFrom(ctx context.Context) (int64, bool) {
	if ctx == nil {
		return 0, false
	}
	actorID, ok := ctx.Value(contextKey{}).(int64)
	return actorID, ok
}
