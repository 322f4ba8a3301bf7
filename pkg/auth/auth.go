// Package auth implements the access gate: a single shared passphrase
// exchanged for a short-lived session token. It controls visibility of the
// API for a small trusted group; it is not a multi-user security boundary.
package auth

import (
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Gate validates the shared passphrase and issues/verifies session tokens.
type Gate struct {
	passphrase []byte
	secret     []byte
	ttl        time.Duration
}

func NewGate(passphrase, secret string, ttl time.Duration) *Gate {
	return &Gate{
		passphrase: []byte(passphrase),
		secret:     []byte(secret),
		ttl:        ttl,
	}
}

// Login exchanges the passphrase for a signed session token. The comparison
// is constant-time.
func (g *Gate) Login(passphrase string) (string, error) {
	if subtle.ConstantTimeCompare([]byte(passphrase), g.passphrase) != 1 {
		return "", fmt.Errorf("invalid passphrase")
	}

	now := time.Now()
	claims := jwt.RegisteredClaims{
		Issuer:    "loanbook",
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(g.ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(g.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify checks a session token's signature and expiry.
func (g *Gate) Verify(tokenString string) error {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return g.secret, nil
	})
	if err != nil {
		return fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid {
		return fmt.Errorf("invalid token")
	}
	return nil
}

// Middleware rejects requests without a valid bearer token.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			unauthorized(w, "Authorization header required")
			return
		}
		if !strings.HasPrefix(header, "Bearer ") {
			unauthorized(w, "Invalid authorization header format")
			return
		}
		token := strings.TrimPrefix(header, "Bearer ")
		if err := g.Verify(token); err != nil {
			unauthorized(w, "Invalid token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
