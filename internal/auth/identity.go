package auth

import (
	"context"
	"errors"
	"net/http"
)

// Identity is a resolved participant.
type Identity struct {
	UserID   string
	Username string
}

var (
	ErrNoCredential = errors.New("no credential presented")
	ErrNoIdentity   = errors.New("no resolvable identity")
)

// Resolver turns an incoming connection request into a participant identity.
// Implementations must fail closed: any ambiguity is an error, never a
// degraded-but-accepted identity.
type Resolver interface {
	Resolve(r *http.Request) (*Identity, error)
}

type contextKey struct{}

// WithIdentity stores an identity in the request context. Surrounding
// session middleware uses this to hand an already-authenticated user to the
// gateway.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext returns the identity stored by WithIdentity, if any.
func FromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(contextKey{}).(Identity)
	if !ok {
		return nil, false
	}
	return &id, true
}

// SessionResolver reads the ambient identity established by upstream
// middleware.
type SessionResolver struct{}

func (SessionResolver) Resolve(r *http.Request) (*Identity, error) {
	id, ok := FromContext(r.Context())
	if !ok {
		return nil, ErrNoIdentity
	}
	if id.UserID == "" {
		return nil, ErrNoIdentity
	}
	return id, nil
}

// Chain tries each resolver in order and returns the first identity found.
type Chain []Resolver

func (c Chain) Resolve(r *http.Request) (*Identity, error) {
	err := ErrNoIdentity
	for _, res := range c {
		id, rerr := res.Resolve(r)
		if rerr == nil {
			return id, nil
		}
		err = rerr
	}
	return nil, err
}
