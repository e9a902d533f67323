package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/teampro-ai/teampro/libs/auth"
	"github.com/teampro-ai/teampro/libs/httpx"
)

const secret = "test-secret"

func token(t *testing.T, role string) string {
	t.Helper()
	tok, err := auth.SignHS256(auth.NewClaims("user-1", "u1@example.com", role, time.Hour, time.Now()), secret)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return tok
}

// echo records the identity headers each upstream receives.
type echo struct {
	name string
	last http.Header
}

func (e *echo) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	e.last = r.Header.Clone()
	w.Header().Set("X-Upstream", e.name)
	w.WriteHeader(http.StatusOK)
}

func newGateway() (http.Handler, *echo, *echo) {
	facility := &echo{name: "facility"}
	notification := &echo{name: "notification"}
	mux := http.NewServeMux()
	registerRoutes(mux, routes{
		facility:     facility,
		notification: notification,
		verifier:     &auth.Verifier{Secret: secret},
	})
	return mux, facility, notification
}

func send(h http.Handler, method, path, bearer string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRoutes_ForwardIdentity(t *testing.T) {
	gw, facility, _ := newGateway()

	rec := send(gw, http.MethodGet, "/api/v1/facilities/f1/calendar", token(t, auth.RoleTeamUser), map[string]string{
		httpx.HeaderRole: auth.RoleSuperAdmin,
	})
	if rec.Code != http.StatusOK || rec.Header().Get("X-Upstream") != "facility" {
		t.Fatalf("expected facility upstream, got %d %q", rec.Code, rec.Header().Get("X-Upstream"))
	}
	if got := facility.last.Get(httpx.HeaderRole); got != auth.RoleTeamUser {
		t.Fatalf("expected role from token, got %q", got)
	}
	if got := facility.last.Get(httpx.HeaderUserID); got != "user-1" {
		t.Fatalf("expected user id from token, got %q", got)
	}
	if got := facility.last.Get(httpx.HeaderUserEmail); got != "u1@example.com" {
		t.Fatalf("expected email from token, got %q", got)
	}
}

func TestRoutes_RequireToken(t *testing.T) {
	gw, _, _ := newGateway()

	if rec := send(gw, http.MethodGet, "/api/v1/bookings/mine", "", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}
	if rec := send(gw, http.MethodGet, "/api/v1/bookings/mine", "badtoken", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad token, got %d", rec.Code)
	}
	expired, err := auth.SignHS256(auth.NewClaims("user-1", "", auth.RoleTeamUser, time.Hour, time.Now().Add(-2*time.Hour)), secret)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if rec := send(gw, http.MethodGet, "/api/v1/bookings/mine", expired, nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for expired token, got %d", rec.Code)
	}
}

func TestRoutes_BlackoutsAdminOnly(t *testing.T) {
	gw, _, _ := newGateway()

	if rec := send(gw, http.MethodDelete, "/api/v1/blackouts/b1", token(t, auth.RoleTeamAdmin), nil); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	if rec := send(gw, http.MethodDelete, "/api/v1/blackouts/b1", token(t, auth.RoleAdminOperations), nil); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRoutes_StripeWebhookIsPublic(t *testing.T) {
	gw, facility, _ := newGateway()

	rec := send(gw, http.MethodPost, "/api/v1/payments/webhooks/stripe", "", map[string]string{
		httpx.HeaderUserID: "spoofed",
		httpx.HeaderRole:   auth.RoleSuperAdmin,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if facility.last.Get(httpx.HeaderUserID) != "" || facility.last.Get(httpx.HeaderRole) != "" {
		t.Fatalf("expected identity headers stripped, got %v", facility.last)
	}

	if rec := send(gw, http.MethodGet, "/api/v1/payments/mine", "", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected other payment routes to need a token, got %d", rec.Code)
	}
}

func TestRoutes_Notifications(t *testing.T) {
	gw, _, notification := newGateway()

	rec := send(gw, http.MethodGet, "/api/v1/notifications", token(t, auth.RoleViewOnly), nil)
	if rec.Code != http.StatusOK || rec.Header().Get("X-Upstream") != "notification" {
		t.Fatalf("expected notification upstream, got %d %q", rec.Code, rec.Header().Get("X-Upstream"))
	}
	if notification.last.Get(httpx.HeaderUserID) != "user-1" {
		t.Fatalf("expected forwarded identity, got %v", notification.last)
	}
}

func TestParseUpstream(t *testing.T) {
	if _, err := parseUpstream("facility-service:8082"); err == nil {
		t.Fatalf("expected error for url without scheme")
	}
	u, err := parseUpstream(" http://facility-service:8082 ")
	if err != nil || u.Host != "facility-service:8082" {
		t.Fatalf("unexpected result %v, %v", u, err)
	}
}

func TestNewVerifier_RequiresKeySource(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("JWKS_URL", "")
	if _, err := newVerifier(time.Minute); err == nil {
		t.Fatalf("expected error without JWT_SECRET or JWKS_URL")
	}

	t.Setenv("JWT_SECRET", secret)
	v, err := newVerifier(time.Minute)
	if err != nil {
		t.Fatalf("expected verifier, got %v", err)
	}
	claims, err := v.Verify(token(t, auth.RoleTeamUser))
	if err != nil || claims.Subject != "user-1" {
		t.Fatalf("expected token signed with JWT_SECRET to verify, got %+v %v", claims, err)
	}

	t.Setenv("JWT_SECRET", "")
	t.Setenv("JWKS_URL", "http://auth.local/.well-known/jwks.json")
	v, err = newVerifier(time.Minute)
	if err != nil || v.JWKS == nil {
		t.Fatalf("expected JWKS-only verifier, got %+v %v", v, err)
	}
}
