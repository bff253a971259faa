package view

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"cspguard/internal/csp"
)

func newTemplates(t *testing.T) *Templates {
	t.Helper()
	tpl, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return tpl
}

func withCSP(t *testing.T, h http.Handler) (http.Handler, *int) {
	t.Helper()
	calls := 0
	mw, err := csp.New(csp.Options{
		Policies: csp.DefaultPolicies(),
		Generator: func() (string, error) {
			calls++
			return "abc123", nil
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	return mw(h), &calls
}

func TestNewParsesAllPages(t *testing.T) {
	tpl := newTemplates(t)
	for _, name := range []string{"home", "form", "embed", "legacy", "notfound"} {
		if _, ok := tpl.templates[name]; !ok {
			t.Errorf("page %q not parsed", name)
		}
	}
}

func TestRenderNonceMatchesHeader(t *testing.T) {
	tpl := newTemplates(t)
	h, calls := withCSP(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := tpl.Render(w, r, http.StatusOK, "home", "Главная", nil); err != nil {
			t.Error(err)
		}
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if *calls != 1 {
		t.Errorf("generator called %d times, want 1", *calls)
	}
	if got := rec.Header().Get(csp.HeaderEnforce); !strings.Contains(got, "'nonce-abc123'") {
		t.Errorf("header = %q", got)
	}
	body := rec.Body.String()
	if n := strings.Count(body, `nonce="abc123"`); n != 2 {
		t.Errorf("body has %d nonce attributes, want 2:\n%s", n, body)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestRenderWithoutNonce(t *testing.T) {
	tpl := newTemplates(t)
	h, calls := withCSP(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := tpl.Render(w, r, http.StatusNotFound, "notfound", "Страница не найдена", nil); err != nil {
			t.Error(err)
		}
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))

	if *calls != 0 {
		t.Errorf("generator called %d times for a page without nonce", *calls)
	}
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d", rec.Code)
	}
	got := rec.Header().Get(csp.HeaderEnforce)
	if strings.Contains(got, "nonce-") || !strings.Contains(got, "script-src 'self' https://cdn.jsdelivr.net") {
		t.Errorf("header = %q", got)
	}
}

func TestRenderErrors(t *testing.T) {
	tpl := newTemplates(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if err := tpl.Render(rec, req, http.StatusOK, "missing", "x", nil); err == nil {
		t.Error("unknown template rendered")
	}

	// вне csp.Middleware nonce недоступен: страница не должна уйти частично
	rec = httptest.NewRecorder()
	if err := tpl.Render(rec, req, http.StatusOK, "home", "Главная", nil); err == nil {
		t.Error("home rendered without nonce scope")
	}
	if rec.Body.Len() != 0 {
		t.Errorf("partial body written: %q", rec.Body.String())
	}
}

func TestPageDataNonceWithoutContext(t *testing.T) {
	if _, err := (PageData{}).Nonce(); err != csp.ErrNoNonceScope {
		t.Errorf("err = %v, want ErrNoNonceScope", err)
	}
}
