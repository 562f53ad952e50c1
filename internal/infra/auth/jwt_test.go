package auth

import (
	"errors"
	"testing"
	"time"

	"untrivially-api/internal/domain"

	"github.com/golang-jwt/jwt/v5"
)

func TestIssueAndVerify(t *testing.T) {
	t.Parallel()

	svc, err := NewTokenService("super-secret", 0)
	if err != nil {
		t.Fatalf("new token service: %v", err)
	}
	avatar := "https://example.com/a.png"
	tok, err := svc.Issue(domain.User{ID: "user-123", Email: "a@example.com", Name: "A", AvatarURL: &avatar})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	claims, err := svc.Verify(tok)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.Subject != "user-123" || claims.Email != "a@example.com" || claims.Name != "A" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if claims.AvatarURL == nil || *claims.AvatarURL != avatar {
		t.Fatalf("expected avatar url in claims")
	}
	if got := claims.ExpiresAt.Sub(claims.IssuedAt.Time); got != DefaultAccessTTL {
		t.Fatalf("expected %s lifetime, got %s", DefaultAccessTTL, got)
	}
}

func TestVerifyExpired(t *testing.T) {
	t.Parallel()

	svc, _ := NewTokenService("secret", time.Minute)
	now := time.Now()
	svc.now = func() time.Time { return now }
	tok, err := svc.Issue(domain.User{ID: "u1"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	svc.now = func() time.Time { return now.Add(2 * time.Minute) }
	if _, err := svc.Verify(tok); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerifyWrongSecret(t *testing.T) {
	t.Parallel()

	issuer, _ := NewTokenService("right-secret", time.Hour)
	verifier, _ := NewTokenService("wrong-secret", time.Hour)
	tok, _ := issuer.Issue(domain.User{ID: "u2"})

	if _, err := verifier.Verify(tok); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerifyRejectsOtherAlgorithms(t *testing.T) {
	t.Parallel()

	svc, _ := NewTokenService("secret", time.Hour)
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u3",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}

	if _, err := svc.Verify(unsigned); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestNewTokenServiceRequiresSecret(t *testing.T) {
	t.Parallel()

	if _, err := NewTokenService("", time.Minute); err == nil {
		t.Fatalf("expected error for empty secret")
	}
}
