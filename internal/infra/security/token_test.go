package security

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func newTestCodec(t *testing.T) *TokenCodec {
	t.Helper()
	codec, err := NewTokenCodec("unit-test-secret", "operator-auth")
	if err != nil {
		t.Fatalf("new token codec: %v", err)
	}
	return codec
}

func TestTokenSignVerifyRoundtrip(t *testing.T) {
	codec := newTestCodec(t)
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	token, err := codec.Sign("op-1", "sess-1", now, now.Add(30*time.Minute))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	claims, err := codec.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.OperatorID != "op-1" || claims.SessionID != "sess-1" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestTokenVerifyExpired(t *testing.T) {
	codec := newTestCodec(t)
	past := time.Now().Add(-2 * time.Hour)

	token, err := codec.Sign("op-1", "sess-1", past, past.Add(time.Minute))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := codec.Verify(token); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestTokenVerifyTampered(t *testing.T) {
	codec := newTestCodec(t)
	now := time.Now()

	token, err := codec.Sign("op-1", "sess-1", now, now.Add(time.Hour))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	parts := strings.Split(token, ".")
	tampered := parts[0] + "." + parts[1] + "." + strings.Repeat("A", len(parts[2]))

	if _, err := codec.Verify(tampered); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestTokenVerifyWrongSecret(t *testing.T) {
	codec := newTestCodec(t)
	other, err := NewTokenCodec("different-secret", "operator-auth")
	if err != nil {
		t.Fatalf("new codec: %v", err)
	}

	now := time.Now()
	token, err := other.Sign("op-1", "sess-1", now, now.Add(time.Hour))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := codec.Verify(token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestTokenVerifyWrongIssuer(t *testing.T) {
	codec := newTestCodec(t)
	other, err := NewTokenCodec("unit-test-secret", "some-other-service")
	if err != nil {
		t.Fatalf("new codec: %v", err)
	}

	now := time.Now()
	token, err := other.Sign("op-1", "sess-1", now, now.Add(time.Hour))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := codec.Verify(token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestTokenVerifyGarbage(t *testing.T) {
	codec := newTestCodec(t)

	for _, raw := range []string{"", "  ", "not.a.jwt", "abc"} {
		if _, err := codec.Verify(raw); !errors.Is(err, ErrTokenInvalid) {
			t.Fatalf("input %q: expected ErrTokenInvalid, got %v", raw, err)
		}
	}
}

func TestHashTokenStableAndDistinct(t *testing.T) {
	if HashToken("token-a") != HashToken("token-a") {
		t.Fatal("hashing must be deterministic")
	}
	if HashToken("token-a") == HashToken("token-b") {
		t.Fatal("distinct tokens must hash differently")
	}
	if len(HashToken("token-a")) != 64 {
		t.Fatal("expected hex-encoded sha-256 output")
	}
}
