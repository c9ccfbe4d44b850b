package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestVerifyRoundTrip(t *testing.T) {
	gen := NewGenerator("test-secret-long-enough", "issuer")
	verifier := NewVerifier("test-secret-long-enough", "bot-app-id")

	token, err := gen.Generate("bot-app-id", "https://smba.example.com/tenant")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	claims, err := verifier.Verify(token)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if claims.ServiceURL != "https://smba.example.com/tenant" {
		t.Errorf("ServiceURL = %q", claims.ServiceURL)
	}
	if claims.Issuer != "issuer" {
		t.Errorf("Issuer = %q", claims.Issuer)
	}
}

func TestVerifyHeader(t *testing.T) {
	gen := NewGenerator("test-secret-long-enough", "issuer")
	verifier := NewVerifier("test-secret-long-enough", "bot-app-id")

	token, err := gen.Generate("bot-app-id", "")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if _, err := verifier.VerifyHeader("Bearer " + token); err != nil {
		t.Errorf("VerifyHeader with bearer prefix failed: %v", err)
	}
	if _, err := verifier.VerifyHeader(token); !errors.Is(err, ErrMissingToken) {
		t.Errorf("expected ErrMissingToken without prefix, got %v", err)
	}
	if _, err := verifier.VerifyHeader(""); !errors.Is(err, ErrMissingToken) {
		t.Errorf("expected ErrMissingToken for empty header, got %v", err)
	}
}

func TestVerifyRejections(t *testing.T) {
	verifier := NewVerifier("test-secret-long-enough", "bot-app-id")

	t.Run("wrong secret", func(t *testing.T) {
		gen := NewGenerator("a-different-secret-entirely", "issuer")
		token, _ := gen.Generate("bot-app-id", "")
		if _, err := verifier.Verify(token); err == nil {
			t.Error("expected error for token signed with wrong secret")
		}
	})

	t.Run("wrong audience", func(t *testing.T) {
		gen := NewGenerator("test-secret-long-enough", "issuer")
		token, _ := gen.Generate("other-app", "")
		if _, err := verifier.Verify(token); !errors.Is(err, ErrWrongAudience) {
			t.Errorf("expected ErrWrongAudience, got %v", err)
		}
	})

	t.Run("expired", func(t *testing.T) {
		claims := Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				Audience:  jwt.ClaimStrings{"bot-app-id"},
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
				IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
			},
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).
			SignedString([]byte("test-secret-long-enough"))
		if err != nil {
			t.Fatalf("sign: %v", err)
		}
		if _, err := verifier.Verify(token); err == nil {
			t.Error("expected error for expired token")
		}
	})

	t.Run("wrong algorithm", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				Audience: jwt.ClaimStrings{"bot-app-id"},
			},
		})
		signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
		if err != nil {
			t.Fatalf("sign: %v", err)
		}
		if _, err := verifier.Verify(signed); err == nil {
			t.Error("expected error for unsigned token")
		}
	})

	t.Run("garbage", func(t *testing.T) {
		if _, err := verifier.Verify("not.a.jwt"); err == nil {
			t.Error("expected error for malformed token")
		}
	})
}
