package core

// security.go
import (
	"net/http"

	"github.com/unrolled/secure"
)

// SecureHeaders добавляет заголовки безопасности (Security Misconfiguration).
// Content-Security-Policy сюда намеренно не входит: его ставит csp.Middleware,
// потому что значение зависит от nonce запроса.
func SecureHeaders(cfg Config) func(http.Handler) http.Handler {
	s := secure.New(secure.Options{
		FrameDeny:               true,
		ContentTypeNosniff:      true,
		ReferrerPolicy:          "strict-origin-when-cross-origin",
		PermissionsPolicy:       "camera=(), microphone=(), geolocation=(), payment=()",
		CrossOriginOpenerPolicy: "same-origin",

		// HSTS — только в проде и только за HTTPS (Cryptographic Failures)
		STSSeconds:           hstsSeconds(cfg),
		STSIncludeSubdomains: true,
		STSPreload:           true,
		SSLProxyHeaders:      map[string]string{"X-Forwarded-Proto": "https"},

		IsDevelopment: cfg.Env == "dev",
	})
	return s.Handler
}

func hstsSeconds(cfg Config) int64 {
	if cfg.Secure && cfg.Env == "prod" {
		return 31536000
	}
	return 0
}
