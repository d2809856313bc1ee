package jwt

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var testSecret = []byte("access-secret-for-tests")

func TestSignVerifyRoundTrip(t *testing.T) {
	c := NewCodec("authcore", 0)
	id := Identity{Subject: "u1", Email: "a@b.com", Role: "USER"}

	token, err := c.Sign(id, testSecret, time.Minute)
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}
	claims, err := c.Verify(token, testSecret)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if claims.Identity() != id {
		t.Fatalf("unexpected identity: %+v", claims.Identity())
	}
	if claims.ID == "" {
		t.Fatal("expected jti to be set")
	}
}

func TestVerifyExpiredToken(t *testing.T) {
	c := NewCodec("", 0)
	past := time.Now().Add(-time.Hour)
	c.now = func() time.Time { return past }

	token, err := c.Sign(Identity{Subject: "u1"}, testSecret, time.Minute)
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}

	c.now = time.Now
	if _, err := c.Verify(token, testSecret); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestVerifyRejectsWrongSecretAndTampering(t *testing.T) {
	c := NewCodec("", 0)
	token, _ := c.Sign(Identity{Subject: "u1", Role: "USER"}, testSecret, time.Minute)

	if _, err := c.Verify(token, []byte("other-secret")); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid for wrong secret, got %v", err)
	}

	parts := strings.Split(token, ".")
	forged := parts[0] + "." + parts[1] + "x." + parts[2]
	if _, err := c.Verify(forged, testSecret); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid for tampered payload, got %v", err)
	}

	for _, in := range []string{"", "not.a.jwt", "a.b"} {
		if _, err := c.Verify(in, testSecret); !errors.Is(err, ErrTokenInvalid) {
			t.Fatalf("expected ErrTokenInvalid for %q, got %v", in, err)
		}
	}
}

func TestVerifyRejectsUnexpectedAlgorithm(t *testing.T) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS384, claims).SignedString(testSecret)
	if err != nil {
		t.Fatalf("SignedString failed: %v", err)
	}

	if _, err := NewCodec("", 0).Verify(token, testSecret); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid for HS384, got %v", err)
	}
}

func TestVerifyRequiresIssuerWhenConfigured(t *testing.T) {
	token, _ := NewCodec("someone-else", 0).Sign(Identity{Subject: "u1"}, testSecret, time.Minute)

	if _, err := NewCodec("authcore", 0).Verify(token, testSecret); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid for issuer mismatch, got %v", err)
	}
}

func TestSignRejectsBadInput(t *testing.T) {
	c := NewCodec("", 0)
	if _, err := c.Sign(Identity{Subject: "u1"}, nil, time.Minute); err == nil {
		t.Fatal("expected error for empty secret")
	}
	if _, err := c.Sign(Identity{Subject: "u1"}, testSecret, 0); err == nil {
		t.Fatal("expected error for zero ttl")
	}
}

// FuzzVerify checks that arbitrary input never panics.
func FuzzVerify(f *testing.F) {
	c := NewCodec("fuzz", 0)
	valid, err := c.Sign(Identity{Subject: "u1", Email: "a@b.com", Role: "USER"}, testSecret, time.Minute)
	if err != nil {
		f.Fatal(err)
	}

	f.Add(valid)
	f.Add("")
	f.Add("not.a.jwt")
	f.Add("eyJhbGciOiJub25lIn0.eyJzdWIiOiJ1MSJ9.")

	f.Fuzz(func(t *testing.T, input string) {
		claims, err := c.Verify(input, testSecret)
		if err != nil {
			return
		}
		if claims.Subject != "u1" {
			t.Fatalf("unexpected subject %q", claims.Subject)
		}
	})
}
