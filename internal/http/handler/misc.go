package handler

import (
	"net/http"

	"cspguard/internal/core"
	"cspguard/internal/view"
)

// Health — healthcheck с core.JSON (OWASP A09).
func Health(w http.ResponseWriter, r *http.Request) {
	core.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// NotFound — 404 с шаблоном.
func NotFound(tpl *view.Templates) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render(w, r, tpl, http.StatusNotFound, "notfound", "Страница не найдена", nil)
	}
}

// Embed — страница для встраивания в чужие сайты, маршрут без CSP.
func Embed(tpl *view.Templates) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render(w, r, tpl, http.StatusOK, "embed", "Виджет", nil)
	}
}

// Legacy — старая страница под отдельной report-only политикой.
func Legacy(tpl *view.Templates) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render(w, r, tpl, http.StatusOK, "legacy", "Старая версия", nil)
	}
}
