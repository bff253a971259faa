package csp

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"

	"pgregory.net/rapid"
)

// countingGenerator возвращает генератор и счётчик его вызовов.
func countingGenerator(value string) (Generator, *int) {
	calls := 0
	return func() (string, error) {
		calls++
		return value, nil
	}, &calls
}

func TestDefaultGenerator(t *testing.T) {
	a, err := DefaultGenerator()
	if err != nil {
		t.Fatalf("DefaultGenerator(): %v", err)
	}
	raw, err := base64.StdEncoding.DecodeString(a)
	if err != nil {
		t.Fatalf("nonce %q is not base64: %v", a, err)
	}
	if len(raw) < nonceLen {
		t.Errorf("nonce has %d bytes of entropy, want >= %d", len(raw), nonceLen)
	}
	b, _ := DefaultGenerator()
	if a == b {
		t.Errorf("two nonces are equal: %q", a)
	}
}

func TestNonceMemoized(t *testing.T) {
	gen, calls := countingGenerator("abc123")
	s := NewNonceState(gen, true)
	if s.Generated() {
		t.Fatal("Generated() = true before first call")
	}
	t1, err := s.Nonce()
	if err != nil {
		t.Fatal(err)
	}
	t2, err := s.Nonce()
	if err != nil {
		t.Fatal(err)
	}
	if t1 != t2 || t1 != "abc123" {
		t.Errorf("Nonce() = %q then %q, want abc123 twice", t1, t2)
	}
	if *calls != 1 {
		t.Errorf("generator called %d times, want 1", *calls)
	}
	if v, ok := s.Value(); !ok || v != "abc123" {
		t.Errorf("Value() = %q, %t", v, ok)
	}
}

func TestNonceMemoizedProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		value := rapid.StringMatching(`[A-Za-z0-9]{8,32}`).Draw(rt, "value")
		n := rapid.IntRange(1, 20).Draw(rt, "calls")
		gen, calls := countingGenerator(value)
		s := NewNonceState(gen, true)
		for i := 0; i < n; i++ {
			got, err := s.Nonce()
			if err != nil || got != value {
				rt.Fatalf("call %d: Nonce() = %q, %v; want %q", i, got, err, value)
			}
		}
		if *calls != 1 {
			rt.Fatalf("generator called %d times for %d requests", *calls, n)
		}
	})
}

func TestNonceDisabled(t *testing.T) {
	gen, calls := countingGenerator("x")
	s := NewNonceState(gen, false)
	got, err := s.Nonce()
	if err != nil || got != "" {
		t.Errorf("Nonce() = %q, %v; want empty", got, err)
	}
	if *calls != 0 || s.Generated() {
		t.Errorf("disabled state generated a nonce (%d calls)", *calls)
	}
}

func TestNonceSealed(t *testing.T) {
	gen, _ := countingGenerator("x")
	s := NewNonceState(gen, true)
	s.seal()
	if _, err := s.Nonce(); !errors.Is(err, ErrHeadersSent) {
		t.Errorf("Nonce() after seal: err = %v, want ErrHeadersSent", err)
	}

	// созданный до отправки nonce остаётся доступным
	s = NewNonceState(gen, true)
	want, _ := s.Nonce()
	s.seal()
	if got, err := s.Nonce(); err != nil || got != want {
		t.Errorf("Nonce() after seal = %q, %v; want %q", got, err, want)
	}
}

func TestNonceGeneratorError(t *testing.T) {
	boom := errors.New("boom")
	s := NewNonceState(func() (string, error) { return "", boom }, true)
	if _, err := s.Nonce(); !errors.Is(err, boom) {
		t.Errorf("Nonce() err = %v, want %v", err, boom)
	}
	if s.Generated() {
		t.Error("Generated() = true after failure")
	}
	s = NewNonceState(func() (string, error) { return "", nil }, true)
	if _, err := s.Nonce(); err == nil {
		t.Error("empty nonce accepted")
	}
}

func TestRequestNonceOutsideMiddleware(t *testing.T) {
	if _, err := RequestNonce(context.Background()); !errors.Is(err, ErrNoNonceScope) {
		t.Errorf("RequestNonce() err = %v, want ErrNoNonceScope", err)
	}
	if NonceStateFrom(context.Background()) != nil {
		t.Error("NonceStateFrom() != nil outside middleware")
	}
	var s *NonceState
	if s.Generated() {
		t.Error("nil state reports Generated")
	}
}
