package csp

// token.go
import "strings"

// Source — одно значение директивы CSP: ключевое слово (Token) или литерал (Literal).
// Набор реализаций закрыт: других типов Source вне пакета быть не может.
type Source interface {
	isSource()
}

// Literal — произвольный источник как есть: хост, схема, хэш ('sha256-...').
type Literal string

func (Literal) isSource() {}

// Token — стандартные ключевые слова CSP Level 3 и плейсхолдер Nonce.
type Token uint8

const (
	tokenInvalid Token = iota
	Self
	None
	UnsafeInline
	UnsafeEval
	UnsafeHashes
	StrictDynamic
	ReportSample
	WasmUnsafeEval
	UnsafeAllowRedirects
	InlineSpeculationRules

	// Nonce — плейсхолдер "вставить nonce запроса". Заменяется сериализатором
	// на 'nonce-<value>' или выбрасывается, если nonce не создавался.
	Nonce
)

func (Token) isSource() {}

var keywords = [...]string{
	Self:                   "'self'",
	None:                   "'none'",
	UnsafeInline:           "'unsafe-inline'",
	UnsafeEval:             "'unsafe-eval'",
	UnsafeHashes:           "'unsafe-hashes'",
	StrictDynamic:          "'strict-dynamic'",
	ReportSample:           "'report-sample'",
	WasmUnsafeEval:         "'wasm-unsafe-eval'",
	UnsafeAllowRedirects:   "'unsafe-allow-redirects'",
	InlineSpeculationRules: "'inline-speculation-rules'",
}

// имена для ссылок из конфигурации (YAML, MySQL)
var tokenNames = map[string]Token{
	"SELF":                     Self,
	"NONE":                     None,
	"UNSAFE_INLINE":            UnsafeInline,
	"UNSAFE_EVAL":              UnsafeEval,
	"UNSAFE_HASHES":            UnsafeHashes,
	"STRICT_DYNAMIC":           StrictDynamic,
	"REPORT_SAMPLE":            ReportSample,
	"WASM_UNSAFE_EVAL":         WasmUnsafeEval,
	"UNSAFE_ALLOW_REDIRECTS":   UnsafeAllowRedirects,
	"INLINE_SPECULATION_RULES": InlineSpeculationRules,
	"NONCE":                    Nonce,
}

// Keyword возвращает ключевое слово в кавычках, например 'self'.
// Для Nonce и неизвестных значений — пустая строка.
func (t Token) Keyword() string {
	if int(t) < len(keywords) {
		return keywords[t]
	}
	return ""
}

// IsPlaceholder сообщает, что токен требует подстановки во время запроса.
func (t Token) IsPlaceholder() bool { return t == Nonce }

func (t Token) valid() bool {
	return t == Nonce || t.Keyword() != ""
}

func (t Token) String() string {
	for name, tok := range tokenNames {
		if tok == t {
			return name
		}
	}
	return "INVALID"
}

// LookupToken ищет токен по имени из конфигурации ("SELF", "NONCE", ...).
func LookupToken(name string) (Token, bool) {
	t, ok := tokenNames[strings.ToUpper(strings.TrimSpace(name))]
	return t, ok
}

// ParseSource превращает строку конфигурации в Source: известное имя токена
// становится Token, всё остальное — Literal.
func ParseSource(s string) Source {
	s = strings.TrimSpace(s)
	// имена токенов пишутся только заглавными — "self" без кавычек это хост
	if s == strings.ToUpper(s) {
		if t, ok := tokenNames[s]; ok {
			return t
		}
	}
	return Literal(s)
}

// NonceSource форматирует nonce как источник CSP: 'nonce-<value>'.
func NonceSource(value string) string {
	return "'nonce-" + value + "'"
}
