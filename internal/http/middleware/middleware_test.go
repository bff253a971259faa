package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"cspguard/internal/core"
	"cspguard/internal/csp"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/csrf"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	_, _ = io.WriteString(w, r.URL.Scheme)
})

func TestTrustedProxy(t *testing.T) {
	h := TrustedProxy([]string{"10.0.0.0/8", "192.168.1.5", "::1"})(okHandler)

	tests := []struct {
		name       string
		remote     string
		proto      string
		wantStatus int
		wantScheme string
	}{
		{"cidr https", "10.1.2.3:5000", "https", http.StatusOK, "https"},
		{"single ip", "192.168.1.5:80", "", http.StatusOK, "http"},
		{"ipv6", "[::1]:443", "HTTPS", http.StatusOK, "https"},
		{"untrusted", "192.168.1.6:80", "https", http.StatusForbidden, ""},
		{"no port", "10.1.2.3", "", http.StatusBadRequest, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			if tt.proto != "" {
				req.Header.Set("X-Forwarded-Proto", tt.proto)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusOK && rec.Body.String() != tt.wantScheme {
				t.Errorf("scheme = %q, want %q", rec.Body.String(), tt.wantScheme)
			}
		})
	}
}

func TestCSRFPlaintext(t *testing.T) {
	cfg := core.Config{Env: "dev"}
	h := CSRF(cfg, []byte(strings.Repeat("k", 32)))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, csrf.Token(r))
	}))

	// GET выдаёт токен и cookie
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/form", nil))
	token := rec.Body.String()
	cookies := rec.Result().Cookies()
	if token == "" || len(cookies) == 0 {
		t.Fatalf("no token issued: token=%q cookies=%d", token, len(cookies))
	}

	// POST без токена
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/form", nil))
	if rec.Code != http.StatusForbidden {
		t.Errorf("POST without token: status = %d", rec.Code)
	}

	// POST с токеном по HTTP проходит
	req := httptest.NewRequest(http.MethodPost, "/form", nil)
	req.Header.Set("X-CSRF-Token", token)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("POST with token: status = %d, body = %s", rec.Code, rec.Body.String())
	}
}

func TestUseCommonCSPOnPanic(t *testing.T) {
	mw, err := csp.New(csp.Options{Policies: csp.DefaultPolicies()})
	if err != nil {
		t.Fatal(err)
	}
	r := chi.NewRouter()
	UseCommon(r, core.Config{Env: "dev"}, mw)
	r.Get("/panic", func(http.ResponseWriter, *http.Request) { panic("boom") })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/panic", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Header().Get(csp.HeaderEnforce) == "" {
		t.Error("500 after panic has no CSP header")
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("secure headers missing")
	}
}
