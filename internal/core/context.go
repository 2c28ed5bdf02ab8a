package core

import "context"

type contextKey string

const ctxKeySource contextKey = "upload_source"

// ContextWithSource records where an upload came from (client IP, "cli").
// The value is stored on the upload log entry.
func ContextWithSource(ctx context.Context, source string) context.Context {
	return context.WithValue(ctx, ctxKeySource, source)
}

// SourceFromContext returns the upload source, or "" if none was set.
func SourceFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeySource).(string); ok {
		return v
	}
	return ""
}
