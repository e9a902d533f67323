package main

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"github.com/teampro-ai/teampro/libs/auth"
	"github.com/teampro-ai/teampro/libs/httpx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type routes struct {
	facility     http.Handler
	notification http.Handler
	verifier     *auth.Verifier
}

func registerRoutes(mux *http.ServeMux, rt routes) {
	authed := func(h http.Handler) http.Handler { return requireAuth(h, rt.verifier) }

	registerProxy(mux, "/api/v1/facilities", authed(rt.facility))
	registerProxy(mux, "/api/v1/bookings", authed(rt.facility))
	registerProxy(mux, "/api/v1/blackouts", authed(requireRole(rt.facility, auth.RoleSuperAdmin, auth.RoleAdminOperations)))
	registerProxy(mux, "/api/v1/payments", authed(rt.facility))
	// Stripe reaches the webhook without a JWT; the signature is the auth.
	mux.Handle("POST /api/v1/payments/webhooks/stripe", stripIdentity(rt.facility))
	registerProxy(mux, "/api/v1/notifications", authed(rt.notification))
}

func registerProxy(mux *http.ServeMux, prefix string, handler http.Handler) {
	mux.Handle(prefix, handler)
	mux.Handle(prefix+"/", handler)
}

func parseUpstream(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, err
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid upstream url %q", raw)
	}
	return u, nil
}

func newProxy(target *url.URL) *httputil.ReverseProxy {
	p := httputil.NewSingleHostReverseProxy(target)
	p.Transport = otelhttp.NewTransport(http.DefaultTransport)
	return p
}

func stripIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Header.Del(httpx.HeaderUserID)
		r.Header.Del(httpx.HeaderUserEmail)
		r.Header.Del(httpx.HeaderRole)
		next.ServeHTTP(w, r)
	})
}

// requireAuth verifies the bearer token and replaces any identity headers the
// caller sent with the token's claims.
func requireAuth(next http.Handler, verifier *auth.Verifier) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if !strings.HasPrefix(authHeader, "Bearer ") || token == "" {
			http.Error(w, "missing or invalid Authorization header", http.StatusUnauthorized)
			return
		}
		claims, err := verifier.Verify(token)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		r.Header.Set(httpx.HeaderUserID, claims.UserID())
		r.Header.Set(httpx.HeaderRole, claims.Role)
		if claims.Email != "" {
			r.Header.Set(httpx.HeaderUserEmail, claims.Email)
		} else {
			r.Header.Del(httpx.HeaderUserEmail)
		}
		next.ServeHTTP(w, r)
	})
}

func requireRole(next http.Handler, roles ...string) http.Handler {
	allowed := map[string]struct{}{}
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := allowed[r.Header.Get(httpx.HeaderRole)]; !ok {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
