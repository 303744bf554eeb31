package originauth

import "context"

type contextKey uint8

const (
	principalContextKey contextKey = iota
)

// WithPrincipal returns a context carrying the verified principal. The
// middleware package attaches it after a successful Authenticate.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, p)
}

// PrincipalFromContext extracts the principal attached by [WithPrincipal].
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	if ctx == nil {
		return Principal{}, false
	}
	p, ok := ctx.Value(principalContextKey).(Principal)
	return p, ok
}
