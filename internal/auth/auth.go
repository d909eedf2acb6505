// Package auth validates connection credentials. It fails closed: any
// doubt about a token yields ErrUnauthenticated.
package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sketchwire/sketchwire/internal/domain"
)

var ErrUnauthenticated = errors.New("unauthenticated")

// Verifier turns an opaque credential into a stable user identity.
type Verifier interface {
	Verify(credential string) (domain.UserID, error)
}

// JWTVerifier accepts HS256 tokens carrying a userId claim.
type JWTVerifier struct {
	secret []byte
}

func NewJWTVerifier(secret string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret)}
}

func (v *JWTVerifier) Verify(credential string) (domain.UserID, error) {
	if credential == "" {
		return "", ErrUnauthenticated
	}
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(credential, claims, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	}
	userID, ok := claims["userId"].(string)
	if !ok || userID == "" {
		return "", fmt.Errorf("%w: missing userId claim", ErrUnauthenticated)
	}
	return domain.UserID(userID), nil
}
