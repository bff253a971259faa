package view

//views.go
import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"cspguard/internal/core"
	"cspguard/internal/csp"

	"github.com/gorilla/csrf"
)

//go:embed templates
var templateFS embed.FS

const layoutFile = "templates/layouts/base.gohtml"

// Templates — структура для хранения шаблонов.
type Templates struct {
	templates map[string]*template.Template
}

// PageData — унифицированная структура для всех шаблонов (OWASP A03, A07).
type PageData struct {
	Title     string
	CSRFField template.HTML
	Data      any // Для кастомных данных (например, FormView)

	ctx context.Context
}

// Nonce — CSP-nonce запроса для {{ .Nonce }} в шаблоне.
// Создаётся только если шаблон действительно к нему обратился.
func (p PageData) Nonce() (string, error) {
	if p.ctx == nil {
		return "", csp.ErrNoNonceScope
	}
	return csp.RequestNonce(p.ctx)
}

// New парсит встроенные шаблоны: layout + страница (OWASP A05).
func New() (*Templates, error) {
	pages := map[string]string{
		"home":     "templates/pages/home.gohtml",
		"form":     "templates/pages/form.gohtml",
		"embed":    "templates/pages/embed.gohtml",
		"legacy":   "templates/pages/legacy.gohtml",
		"notfound": "templates/pages/404.gohtml",
	}

	layout, err := template.New("layout").ParseFS(templateFS, layoutFile)
	if err != nil {
		return nil, fmt.Errorf("ошибка парсинга layout: %w", err)
	}

	t := &Templates{templates: make(map[string]*template.Template, len(pages))}
	for name, pagePath := range pages {
		tpl := template.Must(layout.Clone())
		if _, err := tpl.ParseFS(templateFS, pagePath); err != nil {
			return nil, fmt.Errorf("ошибка парсинга шаблона %q: %w", name, err)
		}
		if tpl.Lookup("base") == nil {
			return nil, fmt.Errorf("в шаблонах отсутствует define \"base\" для страницы %s", name)
		}
		t.templates[name] = tpl
	}
	return t, nil
}

// Render рендерит страницу в буфер и только потом пишет ответ: так nonce
// создаётся до отправки заголовков, а ошибка шаблона не оставляет полстраницы.
func (t *Templates) Render(w http.ResponseWriter, r *http.Request, status int, templateName, title string, data any) error {
	tpl, ok := t.templates[templateName]
	if !ok {
		return fmt.Errorf("шаблон не найден: %s", templateName)
	}

	page := PageData{
		Title:     title,
		CSRFField: csrf.TemplateField(r),
		Data:      data,
		ctx:       r.Context(),
	}

	var buf bytes.Buffer
	if err := tpl.ExecuteTemplate(&buf, "base", page); err != nil {
		return fmt.Errorf("render %s: %w", templateName, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		// заголовки уже ушли — остаётся только залогировать
		core.LogWarn("Ошибка записи ответа", map[string]interface{}{"template": templateName, "error": err})
	}
	return nil
}
