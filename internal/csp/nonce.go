package csp

// nonce.go
import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
)

// nonceLen — 16 байт = 128 бит энтропии
const nonceLen = 16

var (
	// ErrNoNonceScope — запрос не прошёл через Middleware.
	ErrNoNonceScope = errors.New("csp: no nonce scope in request context")
	// ErrHeadersSent — nonce запрошен впервые после отправки заголовков:
	// в CSP его уже не добавить.
	ErrHeadersSent = errors.New("csp: nonce requested after headers were sent")
)

// Generator создаёт новый nonce. Подменяется в тестах.
type Generator func() (string, error)

// DefaultGenerator — 16 случайных байт из crypto/rand в base64.
func DefaultGenerator() (string, error) {
	b := make([]byte, nonceLen)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("csp: read random nonce: %w", err)
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

// NonceState — nonce одного запроса. Принадлежит одному обработчику,
// поэтому блокировок нет.
type NonceState struct {
	gen       Generator
	enabled   bool
	sealed    bool
	generated bool
	value     string
	metrics   *Metrics
}

// NewNonceState создаёт состояние. enabled=false означает, что ни одна
// политика не использует nonce: Nonce() тогда отдаёт "" без генерации.
func NewNonceState(gen Generator, enabled bool) *NonceState {
	if gen == nil {
		gen = DefaultGenerator
	}
	return &NonceState{gen: gen, enabled: enabled}
}

// Nonce возвращает nonce запроса, создавая его при первом вызове.
func (s *NonceState) Nonce() (string, error) {
	if s.generated {
		return s.value, nil
	}
	if !s.enabled {
		return "", nil
	}
	if s.sealed {
		return "", ErrHeadersSent
	}
	v, err := s.gen()
	if err != nil {
		return "", err
	}
	if v == "" {
		return "", errors.New("csp: generator returned empty nonce")
	}
	s.value, s.generated = v, true
	s.metrics.nonceGenerated()
	return v, nil
}

// Generated сообщает, создавался ли nonce в этом запросе.
func (s *NonceState) Generated() bool { return s != nil && s.generated }

// Value возвращает nonce, если он был создан.
func (s *NonceState) Value() (string, bool) {
	if s == nil || !s.generated {
		return "", false
	}
	return s.value, true
}

// seal вызывается при отправке заголовков.
func (s *NonceState) seal() { s.sealed = true }

type scopeKey struct{}

// scope — состояние CSP одного запроса.
type scope struct {
	nonce      *NonceState
	enforce    *Policy
	reportOnly *Policy
	exempt     bool
	applied    bool
}

func withScope(ctx context.Context, sc *scope) context.Context {
	return context.WithValue(ctx, scopeKey{}, sc)
}

func scopeFrom(ctx context.Context) *scope {
	sc, _ := ctx.Value(scopeKey{}).(*scope)
	return sc
}

// RequestNonce — точка доступа к nonce для шаблонов и обработчиков:
// "дай nonce этого запроса, создав его при необходимости".
func RequestNonce(ctx context.Context) (string, error) {
	sc := scopeFrom(ctx)
	if sc == nil {
		return "", ErrNoNonceScope
	}
	return sc.nonce.Nonce()
}

// NonceStateFrom возвращает состояние nonce запроса (nil вне Middleware).
func NonceStateFrom(ctx context.Context) *NonceState {
	if sc := scopeFrom(ctx); sc != nil {
		return sc.nonce
	}
	return nil
}
