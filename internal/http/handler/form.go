package handler

// form.go
import (
	"errors"
	"net/http"
	"strings"

	"cspguard/internal/core"
	"cspguard/internal/view"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
)

type FormData struct {
	Name    string `validate:"required,min=2,max=100"`
	Email   string `validate:"required,email"`
	Message string `validate:"required,max=2000"`
}

// FormView — данные шаблона form.gohtml (PageData.Data).
type FormView struct {
	OK     bool
	Form   FormData
	Errors map[string]string
}

// Валидатор и санитайзер (OWASP A05).
var (
	validate  = validator.New()
	sanitizer = bluemonday.UGCPolicy()
)

// FormIndex рендерит форму (GET).
func FormIndex(tpl *view.Templates) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := FormView{
			OK:     r.URL.Query().Get("ok") == "1",
			Errors: map[string]string{},
		}
		render(w, r, tpl, http.StatusOK, "form", "Форма", data)
	}
}

// FormSubmit обрабатывает отправку формы (POST).
func FormSubmit(tpl *view.Templates) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB (OWASP A05).
		if err := r.ParseForm(); err != nil {
			core.Fail(w, r, core.BadRequest("некорректная форма", err))
			return
		}

		f := FormData{
			Name:    sanitizer.Sanitize(strings.TrimSpace(r.Form.Get("name"))),
			Email:   sanitizer.Sanitize(strings.TrimSpace(r.Form.Get("email"))),
			Message: sanitizer.Sanitize(strings.TrimSpace(r.Form.Get("message"))),
		}

		errs := validateForm(f)
		if len(errs) > 0 {
			core.LogWarn("Validation failed", map[string]interface{}{"errors": errs})
			data := FormView{Form: f, Errors: errs}
			render(w, r, tpl, http.StatusUnprocessableEntity, "form", "Форма", data)
			return
		}

		core.LogInfo("Форма отправлена", map[string]interface{}{"email": f.Email})
		http.Redirect(w, r, "/form?ok=1", http.StatusSeeOther)
	}
}

// validateForm переводит ошибки валидатора в сообщения для полей формы.
func validateForm(f FormData) map[string]string {
	errs := map[string]string{}
	err := validate.Struct(f)
	if err == nil {
		return errs
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		core.LogError("Unexpected validation error", map[string]interface{}{"error": err})
		errs["form"] = "Ошибка валидации"
		return errs
	}
	for _, e := range verrs {
		switch e.Field() {
		case "Name":
			switch e.Tag() {
			case "required":
				errs["name"] = "Укажите имя"
			case "min":
				errs["name"] = "Имя должно быть не короче 2 символов"
			case "max":
				errs["name"] = "Слишком длинное имя (макс. 100)"
			default:
				errs["name"] = "Некорректное имя"
			}
		case "Email":
			switch e.Tag() {
			case "required":
				errs["email"] = "Укажите email"
			case "email":
				errs["email"] = "Введите корректный email"
			default:
				errs["email"] = "Некорректный email"
			}
		case "Message":
			switch e.Tag() {
			case "required":
				errs["message"] = "Напишите сообщение"
			case "max":
				errs["message"] = "Слишком длинное сообщение (макс. 2000)"
			default:
				errs["message"] = "Некорректное сообщение"
			}
		}
	}
	return errs
}
