package crypto

import (
	"bytes"
	"errors"
	"testing"
)

func testKey() []byte { return bytes.Repeat([]byte{7}, 32) }

func TestSealStringRoundTrip(t *testing.T) {
	s, err := NewSealer(testKey())
	if err != nil {
		t.Fatalf("new sealer: %v", err)
	}
	sealed, err := s.SealString(`{"answers":[]}`)
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	if !IsSealed(sealed) {
		t.Fatalf("expected sealed prefix, got %q", sealed)
	}
	plain, err := s.OpenString(sealed)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if plain != `{"answers":[]}` {
		t.Fatalf("unexpected plaintext %q", plain)
	}
}

func TestOpenStringPassesPlaintextThrough(t *testing.T) {
	s, _ := NewSealer(testKey())
	got, err := s.OpenString(`{"legacy":true}`)
	if err != nil || got != `{"legacy":true}` {
		t.Fatalf("expected passthrough, got %q, %v", got, err)
	}
}

func TestOpenStringWrongKey(t *testing.T) {
	a, _ := NewSealer(testKey())
	b, _ := NewSealer(bytes.Repeat([]byte{9}, 32))
	sealed, _ := a.SealString("secreto")
	if _, err := b.OpenString(sealed); !errors.Is(err, ErrAuthenticationFailed) {
		t.Fatalf("expected ErrAuthenticationFailed, got %v", err)
	}
	if _, err := a.OpenString(sealedPrefix + "!!"); !errors.Is(err, ErrInvalidCiphertext) {
		t.Fatalf("expected ErrInvalidCiphertext, got %v", err)
	}
}

func TestNewSealerRejectsBadKey(t *testing.T) {
	if _, err := NewSealer([]byte("short")); !errors.Is(err, ErrInvalidKeySize) {
		t.Fatalf("expected ErrInvalidKeySize, got %v", err)
	}
}
