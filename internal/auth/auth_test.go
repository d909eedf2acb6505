package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func TestVerifyValidToken(t *testing.T) {
	v := NewJWTVerifier(testSecret)
	token := signToken(t, testSecret, jwt.MapClaims{"userId": "u-42"})

	uid, err := v.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if uid != "u-42" {
		t.Fatalf("expected u-42, got %q", uid)
	}
}

func TestVerifyFailsClosed(t *testing.T) {
	v := NewJWTVerifier(testSecret)

	cases := map[string]string{
		"empty":         "",
		"garbage":       "not.a.token",
		"wrong secret":  signToken(t, "other-secret", jwt.MapClaims{"userId": "u-42"}),
		"missing claim": signToken(t, testSecret, jwt.MapClaims{"sub": "u-42"}),
		"expired": signToken(t, testSecret, jwt.MapClaims{
			"userId": "u-42",
			"exp":    time.Now().Add(-time.Hour).Unix(),
		}),
	}
	for name, token := range cases {
		if _, err := v.Verify(token); !errors.Is(err, ErrUnauthenticated) {
			t.Fatalf("%s: expected ErrUnauthenticated, got %v", name, err)
		}
	}
}

func TestVerifyRejectsNoneAlgorithm(t *testing.T) {
	v := NewJWTVerifier(testSecret)
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"userId": "u-42"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign unsigned token: %v", err)
	}
	if _, err := v.Verify(token); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated for alg=none, got %v", err)
	}
}
