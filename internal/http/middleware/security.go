// security.go
package middleware

import (
	"net/http"

	"cspguard/internal/core"

	"github.com/gorilla/csrf"
)

// CSRF — защита форм через gorilla/csrf (OWASP A01).
// Без SECURE запросы по HTTP помечаются как plaintext, иначе csrf
// требует HTTPS-Referer и отклоняет все POST в dev.
func CSRF(cfg core.Config, key []byte) func(http.Handler) http.Handler {
	protect := csrf.Protect(key,
		csrf.Secure(cfg.Secure),
		csrf.Path("/"),
		csrf.HttpOnly(true),
		csrf.SameSite(csrf.SameSiteStrictMode),
		csrf.FieldName("csrf_token"),
		csrf.ErrorHandler(http.HandlerFunc(csrfFailed)),
	)
	return func(next http.Handler) http.Handler {
		h := protect(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.Secure && r.TLS == nil && r.URL.Scheme != "https" {
				r = csrf.PlaintextHTTPRequest(r)
			}
			h.ServeHTTP(w, r)
		})
	}
}

func csrfFailed(w http.ResponseWriter, r *http.Request) {
	msg := "CSRF token invalid"
	if reason := csrf.FailureReason(r); reason != nil {
		msg += ": " + reason.Error()
	}
	core.Fail(w, r, core.Forbidden(msg))
}
