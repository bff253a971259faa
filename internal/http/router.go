package httpx

import (
	"net/http"

	"cspguard/internal/core"
	"cspguard/internal/csp"
	"cspguard/internal/http/handler"
	"cspguard/internal/http/middleware"
	"cspguard/internal/view"

	"github.com/go-chi/chi/v5"
)

// Deps — зависимости роутера, собираются в main.
type Deps struct {
	CSP       func(http.Handler) http.Handler // csp.New
	Templates *view.Templates
	CSRFKey   []byte
	Metrics   http.Handler // promhttp; nil — /metrics не публикуется
	Legacy    *csp.Policy  // политика для /legacy; nil — csp.LegacyReportOnly
}

func NewRouter(cfg core.Config, d Deps) http.Handler {
	legacy := d.Legacy
	if legacy == nil {
		legacy = csp.LegacyReportOnly()
	}

	r := chi.NewRouter()
	middleware.UseCommon(r, cfg, d.CSP) // request id, logger, csp, secure, recover, timeout

	// служебные
	r.Get("/healthz", handler.Health)
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics)
	}

	// страницы
	r.Group(func(r chi.Router) {
		r.Use(middleware.CSRF(cfg, d.CSRFKey))

		r.Get("/", handler.Home(d.Templates))
		r.Get("/form", handler.FormIndex(d.Templates))
		r.Post("/form", handler.FormSubmit(d.Templates))
		r.With(csp.Exempt).Get("/embed", handler.Embed(d.Templates))
		r.With(csp.Replace(legacy)).Get("/legacy", handler.Legacy(d.Templates))
	})

	r.NotFound(handler.NotFound(d.Templates))
	return r
}
