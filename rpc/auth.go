package rpc

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Sentinel errors for channel authentication.
var (
	// ErrMissingToken is returned when the handshake carries no bearer
	// token and the server requires one.
	ErrMissingToken = errors.New("rpc: missing bearer token")

	// ErrInvalidToken is returned when the bearer token fails validation.
	ErrInvalidToken = errors.New("rpc: invalid bearer token")
)

// authenticate validates the handshake's bearer token against the shared
// HMAC secret. Only HS256 tokens are accepted; an unexpected signing
// method is rejected rather than trusted.
func authenticate(r *http.Request, secret []byte) error {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ErrMissingToken
	}
	tokenString, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return ErrMissingToken
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return ErrInvalidToken
	}
	return nil
}

// NewToken mints an HS256 bearer token for the shared secret. Clients use
// it to fill Options.Token.
func NewToken(secret []byte, claims jwt.MapClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("rpc: signing token: %w", err)
	}
	return signed, nil
}
