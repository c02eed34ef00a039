// Package identity supplies the caller principal for every request: the
// token type itself, context helpers, and bearer token issuing/verification.
package identity

import "context"

// Principal identifies a caller. Two principals are the same caller iff they
// compare equal.
type Principal string

func (p Principal) String() string { return string(p) }

type ctxKey struct{}

// WithCaller returns a copy of ctx carrying p.
func WithCaller(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

// FromContext returns the caller stored by WithCaller.
func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(ctxKey{}).(Principal)
	if !ok || p == "" {
		return "", false
	}
	return p, true
}
