// Package fabric defines the broadcast fabric the gateway joins connections
// to. A fabric owns group membership entirely; callers only join, leave and
// publish.
package fabric

import (
	"context"

	"chat-gateway/internal/models"
)

// Handle is the fabric-facing side of one live connection. Delivery is
// non-blocking: a handle whose buffer is full is shut down and evicted.
type Handle interface {
	// Enqueue offers an encoded event to the connection's outbound path.
	// It reports false when the connection cannot keep up.
	Enqueue(payload []byte) bool

	// Shutdown closes the outbound path. Must be idempotent.
	Shutdown()
}

// Fabric is a named-group broadcast mechanism. Publishing to a group delivers
// to every currently-joined handle, including the publisher's own.
type Fabric interface {
	Join(ctx context.Context, group string, h Handle) error
	Leave(ctx context.Context, group string, h Handle) error
	Publish(ctx context.Context, group string, event models.Event) error
	Close() error
}
