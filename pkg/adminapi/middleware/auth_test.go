package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthMiddlewareDisabledPassesThrough(t *testing.T) {
	h := AuthMiddleware(AuthConfig{Enabled: false})(okHandler())
	req := httptest.NewRequest(http.MethodGet, "/admin/status", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestAuthMiddlewarePublicPathSkipsToken(t *testing.T) {
	h := AuthMiddleware(AuthConfig{Enabled: true, JWTSecret: "s", PublicPaths: []string{"/healthz"}})(okHandler())
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestAuthMiddlewareRejectsMissingToken(t *testing.T) {
	h := AuthMiddleware(AuthConfig{Enabled: true, JWTSecret: "s"})(okHandler())
	req := httptest.NewRequest(http.MethodGet, "/admin/status", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestAuthMiddlewareAcceptsValidToken(t *testing.T) {
	secret := "s3cr3t"
	token, err := GenerateToken("operator-1", secret)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	var sawSubject string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if claims, ok := GetClaimsFromContext(r.Context()); ok {
			sawSubject = claims.Subject
		}
		w.WriteHeader(http.StatusOK)
	})

	h := AuthMiddleware(AuthConfig{Enabled: true, JWTSecret: secret})(handler)
	req := httptest.NewRequest(http.MethodGet, "/admin/status", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if sawSubject != "operator-1" {
		t.Errorf("expected subject operator-1, got %q", sawSubject)
	}
}

func TestAuthMiddlewareRejectsWrongSecret(t *testing.T) {
	token, err := GenerateToken("operator-1", "right-secret")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	h := AuthMiddleware(AuthConfig{Enabled: true, JWTSecret: "wrong-secret"})(okHandler())
	req := httptest.NewRequest(http.MethodGet, "/admin/status", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}
