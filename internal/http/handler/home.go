package handler

//home.go
import (
	"net/http"

	"cspguard/internal/core"
	"cspguard/internal/view"
)

// Home возвращает обработчик для главной страницы (OWASP A03: Injection).
// Шаблон использует inline <style> и <script> с nonce.
func Home(tpl *view.Templates) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render(w, r, tpl, http.StatusOK, "home", "Главная", nil)
	}
}

// render — общий рендер страницы; ошибка шаблона превращается в 500.
func render(w http.ResponseWriter, r *http.Request, tpl *view.Templates, status int, name, title string, data any) {
	if err := tpl.Render(w, r, status, name, title, data); err != nil {
		core.Fail(w, r, core.Internal("template error", err))
	}
}
