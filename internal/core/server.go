package core

import (
	"net/http"
)

// Server возвращает готовую конфигурацию http.Server.
// Таймауты берутся из Config, чтобы сервер не зависал на медленных клиентах.
func Server(cfg Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:    cfg.Addr, // Адрес, на котором будет слушать сервер (например, ":8080")
		Handler: handler,  // Главный обработчик запросов (роутер + middleware)

		// --- Таймауты для защиты от "медленных" клиентов ---
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    1 << 20, // 1MB
	}
}
