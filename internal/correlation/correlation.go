// Package correlation carries per-request correlation and trace-context
// values through context.Context so handlers, the request logger, and the
// error normalizer all report the same identifiers.
package correlation

import "context"

// Header names used on both requests and responses.
const (
	HeaderCorrelationID = "X-Correlation-ID"
	HeaderTraceParent   = "traceparent"
)

// NotSet is reported when no correlation middleware ran for the request.
const NotSet = "not-set"

// Context holds the identifiers established for a single request. It is
// created at request entry and discarded with the request context.
type Context struct {
	CorrelationID string
	TraceParent   string
}

type ctxKey struct{}

// NewContext returns a copy of ctx carrying c.
func NewContext(ctx context.Context, c Context) context.Context {
	return context.WithValue(ctx, ctxKey{}, c)
}

// FromContext extracts the correlation context established by the middleware.
func FromContext(ctx context.Context) (Context, bool) {
	c, ok := ctx.Value(ctxKey{}).(Context)
	return c, ok
}

// ID returns the request's correlation id, or NotSet if the middleware
// did not run.
func ID(ctx context.Context) string {
	if c, ok := FromContext(ctx); ok && c.CorrelationID != "" {
		return c.CorrelationID
	}
	return NotSet
}
