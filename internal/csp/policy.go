package csp

// policy.go
import (
	"fmt"
	"strings"
)

// Mode — режим политики: блокирующий или только отчёты.
type Mode uint8

const (
	Enforce Mode = iota
	ReportOnly
)

const (
	HeaderEnforce    = "Content-Security-Policy"
	HeaderReportOnly = "Content-Security-Policy-Report-Only"
)

// HeaderName возвращает имя заголовка ответа для режима.
func (m Mode) HeaderName() string {
	if m == ReportOnly {
		return HeaderReportOnly
	}
	return HeaderEnforce
}

func (m Mode) String() string {
	if m == ReportOnly {
		return "report-only"
	}
	return "enforce"
}

// PolicyDirective — имя директивы и упорядоченный список источников.
type PolicyDirective struct {
	Name   string
	Values []Source
}

// Directive — короткая запись для PolicyDirective.
func Directive(name string, values ...Source) PolicyDirective {
	return PolicyDirective{Name: name, Values: values}
}

// Policy — неизменяемая политика CSP. Создаётся один раз при старте
// и читается конкурентно без блокировок.
type Policy struct {
	mode       Mode
	directives []PolicyDirective
	usesNonce  bool
}

// Policies — набор политик приложения: ни одной, одна или обе.
type Policies struct {
	Enforce    *Policy
	ReportOnly *Policy
}

// UsesNonce сообщает, ссылается ли хоть одна политика на Nonce.
func (ps Policies) UsesNonce() bool {
	return (ps.Enforce != nil && ps.Enforce.usesNonce) ||
		(ps.ReportOnly != nil && ps.ReportOnly.usesNonce)
}

// ConfigError — ошибка конфигурации политики. Должна останавливать запуск.
type ConfigError struct {
	Mode      Mode
	Directive string
	Reason    string
}

func (e *ConfigError) Error() string {
	if e.Directive == "" {
		return fmt.Sprintf("csp: %s policy: %s", e.Mode, e.Reason)
	}
	return fmt.Sprintf("csp: %s policy: directive %q: %s", e.Mode, e.Directive, e.Reason)
}

// NewPolicy проверяет директивы и собирает Policy. Порядок директив
// и значений сохраняется. Неизвестные имена директив пропускаются как есть.
func NewPolicy(mode Mode, directives ...PolicyDirective) (*Policy, error) {
	if mode != Enforce && mode != ReportOnly {
		return nil, &ConfigError{Mode: mode, Reason: fmt.Sprintf("unknown mode %d", mode)}
	}

	p := &Policy{mode: mode, directives: make([]PolicyDirective, 0, len(directives))}
	seen := make(map[string]struct{}, len(directives))
	for _, d := range directives {
		name := strings.ToLower(strings.TrimSpace(d.Name))
		if !validDirectiveName(name) {
			return nil, &ConfigError{Mode: mode, Directive: d.Name, Reason: "malformed directive name"}
		}
		if _, dup := seen[name]; dup {
			return nil, &ConfigError{Mode: mode, Directive: name, Reason: "duplicate directive"}
		}
		seen[name] = struct{}{}

		values := make([]Source, 0, len(d.Values))
		for _, v := range d.Values {
			switch v := v.(type) {
			case Token:
				if !v.valid() {
					return nil, &ConfigError{Mode: mode, Directive: name, Reason: "invalid token"}
				}
				if v == Nonce {
					p.usesNonce = true
				}
			case Literal:
				if !validLiteral(string(v)) {
					return nil, &ConfigError{Mode: mode, Directive: name, Reason: fmt.Sprintf("invalid source %q", string(v))}
				}
			case nil:
				return nil, &ConfigError{Mode: mode, Directive: name, Reason: "nil source"}
			}
			values = append(values, v)
		}
		p.directives = append(p.directives, PolicyDirective{Name: name, Values: values})
	}
	return p, nil
}

// MustPolicy как NewPolicy, но паникует. Для статических политик в коде.
func MustPolicy(mode Mode, directives ...PolicyDirective) *Policy {
	p, err := NewPolicy(mode, directives...)
	if err != nil {
		panic(err)
	}
	return p
}

func (p *Policy) Mode() Mode { return p.mode }

// UsesNonce сообщает, есть ли в политике плейсхолдер Nonce.
func (p *Policy) UsesNonce() bool { return p.usesNonce }

// Directives возвращает копию директив.
func (p *Policy) Directives() []PolicyDirective {
	out := make([]PolicyDirective, len(p.directives))
	for i, d := range p.directives {
		values := make([]Source, len(d.Values))
		copy(values, d.Values)
		out[i] = PolicyDirective{Name: d.Name, Values: values}
	}
	return out
}

// validDirectiveName: [a-z0-9-]+ (имя уже приведено к нижнему регистру)
func validDirectiveName(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') && r != '-' {
			return false
		}
	}
	return true
}

// литерал не должен ломать грамматику заголовка
func validLiteral(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r == ';' || r == ',' || r <= ' ' || r > '~' {
			return false
		}
	}
	return true
}
