// common.go
package middleware

import (
	"net/http"

	"cspguard/internal/core"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// UseCommon подключает общую цепочку. CSP стоит снаружи Recoverer,
// чтобы заголовок получили и ответы 500 после паники.
func UseCommon(r *chi.Mux, cfg core.Config, cspMW func(http.Handler) http.Handler) {
	r.Use(middleware.RequestID)
	if len(cfg.TrustedProxies) > 0 {
		r.Use(TrustedProxy(cfg.TrustedProxies)) // до RealIP: проверяем адрес самого прокси
	}
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(cspMW)
	r.Use(core.SecureHeaders(cfg))
	r.Use(middleware.Recoverer)
	if cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(cfg.RequestTimeout))
	}
}
