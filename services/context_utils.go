package services

import "context"

type requestMetaKey struct{}

// RequestMeta is the client information stamped on audit rows.
type RequestMeta struct {
	IPAddress string
	UserAgent string
}

// WithRequestMeta attaches client information for the audit trail.
func WithRequestMeta(ctx context.Context, meta RequestMeta) context.Context {
	return context.WithValue(ctx, requestMetaKey{}, meta)
}

func requestMetaFrom(ctx context.Context) RequestMeta {
	meta, _ := ctx.Value(requestMetaKey{}).(RequestMeta)
	return meta
}

// persistentContext keeps request values but ignores cancellation, so an
// entry for an already committed transition is still written when the
// client goes away.
func persistentContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return context.WithoutCancel(ctx)
}
