package csp

// middleware.go
import (
	"io"
	"net/http"

	"github.com/felixge/httpsnoop"
)

// Options — настройки Middleware. Передаются один раз при старте.
type Options struct {
	Policies  Policies
	Generator Generator // nil — DefaultGenerator
	Metrics   *Metrics  // nil — без метрик
}

// New проверяет настройки и возвращает middleware. Ошибка здесь —
// ошибка конфигурации: сервер не должен стартовать.
//
// Заголовки ставятся в момент отправки ответа (первый WriteHeader/Write/Flush)
// или после выхода обработчика, если он ничего не записал. Заголовок,
// уже выставленный обработчиком, не трогается.
func New(opts Options) (func(http.Handler) http.Handler, error) {
	if p := opts.Policies.Enforce; p != nil && p.mode != Enforce {
		return nil, &ConfigError{Mode: p.mode, Reason: "report-only policy configured as enforce"}
	}
	if p := opts.Policies.ReportOnly; p != nil && p.mode != ReportOnly {
		return nil, &ConfigError{Mode: p.mode, Reason: "enforce policy configured as report-only"}
	}
	gen := opts.Generator
	if gen == nil {
		gen = DefaultGenerator
	}
	usesNonce := opts.Policies.UsesNonce()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			state := NewNonceState(gen, usesNonce)
			state.metrics = opts.Metrics
			sc := &scope{
				nonce:      state,
				enforce:    opts.Policies.Enforce,
				reportOnly: opts.Policies.ReportOnly,
			}
			apply := func() { sc.apply(w.Header(), opts.Metrics) }

			ww := httpsnoop.Wrap(w, httpsnoop.Hooks{
				WriteHeader: func(next httpsnoop.WriteHeaderFunc) httpsnoop.WriteHeaderFunc {
					return func(code int) {
						// 1xx (кроме 101) не фиксируют заголовки ответа
						if code >= 200 || code == http.StatusSwitchingProtocols {
							apply()
						}
						next(code)
					}
				},
				Write: func(next httpsnoop.WriteFunc) httpsnoop.WriteFunc {
					return func(b []byte) (int, error) {
						apply()
						return next(b)
					}
				},
				ReadFrom: func(next httpsnoop.ReadFromFunc) httpsnoop.ReadFromFunc {
					return func(src io.Reader) (int64, error) {
						apply()
						return next(src)
					}
				},
				Flush: func(next httpsnoop.FlushFunc) httpsnoop.FlushFunc {
					return func() {
						apply()
						next()
					}
				},
			})

			next.ServeHTTP(ww, r.WithContext(withScope(r.Context(), sc)))
			apply()
		})
	}, nil
}

// apply выставляет заголовки один раз за запрос.
func (sc *scope) apply(h http.Header, m *Metrics) {
	if sc.applied {
		return
	}
	sc.applied = true
	sc.nonce.seal()
	if sc.exempt {
		return
	}
	for _, p := range [...]*Policy{sc.enforce, sc.reportOnly} {
		if p == nil {
			continue
		}
		name := p.mode.HeaderName()
		if _, ok := h[name]; ok {
			m.headerPreserved(name)
			continue
		}
		h.Set(name, p.Serialize(sc.nonce))
		m.headerApplied(name)
	}
}

func (sc *scope) usesNonce() bool {
	return Policies{Enforce: sc.enforce, ReportOnly: sc.reportOnly}.UsesNonce()
}

// Exempt отключает CSP-заголовки для маршрута. Вне Middleware ничего не делает.
func Exempt(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if sc := scopeFrom(r.Context()); sc != nil && !sc.applied {
			sc.exempt = true
			sc.nonce.enabled = false
		}
		next.ServeHTTP(w, r)
	})
}

// Replace подменяет политику того же режима для маршрута.
func Replace(p *Policy) func(http.Handler) http.Handler {
	if p == nil {
		panic("csp: Replace with nil policy")
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if sc := scopeFrom(r.Context()); sc != nil && !sc.applied {
				if p.mode == ReportOnly {
					sc.reportOnly = p
				} else {
					sc.enforce = p
				}
				sc.nonce.enabled = !sc.exempt && sc.usesNonce()
			}
			next.ServeHTTP(w, r)
		})
	}
}
