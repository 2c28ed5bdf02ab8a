package web

import (
	"context"
	"net"
	"net/http"

	"github.com/JonMunkholm/awards/internal/core"
)

// withUploadSource tags ctx with the client address so the upload log can
// record where a file came from. RemoteAddr has already been rewritten by
// the trusted real IP middleware.
func withUploadSource(ctx context.Context, r *http.Request) context.Context {
	host := r.RemoteAddr
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	return core.ContextWithSource(ctx, host)
}
