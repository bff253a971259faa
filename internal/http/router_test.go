package httpx

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"cspguard/internal/core"
	"cspguard/internal/csp"
	"cspguard/internal/view"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	reg := prometheus.NewRegistry()
	mw, err := csp.New(csp.Options{
		Policies:  csp.DefaultPolicies(),
		Generator: func() (string, error) { return "r0uter", nil },
		Metrics:   csp.NewMetrics(reg),
	})
	if err != nil {
		t.Fatal(err)
	}
	tpl, err := view.New()
	if err != nil {
		t.Fatal(err)
	}
	cfg := core.Config{Env: "dev"}
	return NewRouter(cfg, Deps{
		CSP:       mw,
		Templates: tpl,
		CSRFKey:   []byte(strings.Repeat("k", 32)),
		Metrics:   promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	})
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestRoutes(t *testing.T) {
	h := newTestRouter(t)

	tests := []struct {
		path         string
		status       int
		enforce      string // подстрока; "" — заголовка быть не должно
		reportOnly   string
		bodyContains string
	}{
		{"/", http.StatusOK, "'nonce-r0uter'", "", `nonce="r0uter"`},
		{"/form", http.StatusOK, "form-action 'self'", "", `name="csrf_token"`},
		{"/embed", http.StatusOK, "", "", "виджет"},
		{"/legacy", http.StatusOK, "script-src 'self' https://cdn.jsdelivr.net 'nonce-r0uter'", "report-uri /csp-report", `nonce="r0uter"`},
		{"/healthz", http.StatusOK, "default-src 'self'", "", `"status":"ok"`},
		{"/missing", http.StatusNotFound, "default-src 'self'", "", "не существует"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := get(t, h, tt.path)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
			checkHeader(t, rec, csp.HeaderEnforce, tt.enforce)
			checkHeader(t, rec, csp.HeaderReportOnly, tt.reportOnly)
			if body := rec.Body.String(); !strings.Contains(strings.ToLower(body), strings.ToLower(tt.bodyContains)) {
				t.Errorf("body does not contain %q:\n%s", tt.bodyContains, body)
			}
		})
	}
}

func checkHeader(t *testing.T, rec *httptest.ResponseRecorder, name, want string) {
	t.Helper()
	got, ok := rec.Header()[name]
	if want == "" {
		if ok {
			t.Errorf("%s = %q, want absent", name, got)
		}
		return
	}
	if !ok || !strings.Contains(got[0], want) {
		t.Errorf("%s = %q, want substring %q", name, got, want)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestRouter(t)
	get(t, h, "/")
	get(t, h, "/embed")

	rec := get(t, h, "/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		"csp_nonces_generated_total 1",
		`csp_headers_applied_total{header="Content-Security-Policy"}`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics missing %q:\n%s", want, body)
		}
	}
}

func TestFormPostWithoutToken(t *testing.T) {
	h := newTestRouter(t)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/form", strings.NewReader("name=x")))
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
	if rec.Header().Get(csp.HeaderEnforce) == "" {
		t.Error("403 without CSP header")
	}
}
