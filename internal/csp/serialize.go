package csp

// serialize.go
import "strings"

// Serialize собирает значение заголовка: директивы в порядке политики,
// значения через пробел, директивы через "; ".
//
// Nonce подставляется только если state его создал. Иначе источник
// выбрасывается: пустой 'nonce-' сломал бы грамматику заголовка.
// state == nil равносилен "nonce не создавался".
func (p *Policy) Serialize(state *NonceState) string {
	nonce, haveNonce := state.Value()

	var b strings.Builder
	for i, d := range p.directives {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(d.Name)
		for _, v := range d.Values {
			var s string
			switch v := v.(type) {
			case Token:
				if v == Nonce {
					if !haveNonce {
						continue
					}
					s = NonceSource(nonce)
				} else {
					s = v.Keyword()
				}
			case Literal:
				s = string(v)
			}
			b.WriteByte(' ')
			b.WriteString(s)
		}
	}
	return b.String()
}

// String — политика без nonce.
func (p *Policy) String() string { return p.Serialize(nil) }
