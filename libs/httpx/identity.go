package httpx

import (
	"context"
	"net/http"
	"strings"
)

// Headers set by the gateway after verifying the caller's token.
const (
	HeaderUserID    = "X-User-Id"
	HeaderUserEmail = "X-User-Email"
	HeaderRole      = "X-Role"
)

type Identity struct {
	UserID string
	Email  string
	Role   string
}

func (id Identity) Authenticated() bool { return id.UserID != "" }

func IdentityFromHeaders(h http.Header) Identity {
	return Identity{
		UserID: strings.TrimSpace(h.Get(HeaderUserID)),
		Email:  strings.TrimSpace(h.Get(HeaderUserEmail)),
		Role:   strings.TrimSpace(h.Get(HeaderRole)),
	}
}

func IdentityFromContext(ctx context.Context) Identity {
	v, _ := ctx.Value(ctxKeyIdentity).(Identity)
	return v
}

// WithIdentity copies the gateway identity headers into the request context.
func WithIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := IdentityFromHeaders(r.Header)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKeyIdentity, id)))
	})
}
