package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"neuroscan/internal/domain"
)

// ErrTokenInvalid covers expired, malformed and badly signed tokens.
var ErrTokenInvalid = errors.New("invalid token")

type tokenClaims struct {
	Role      string `json:"role"`
	PatientID *int64 `json:"patient_id,omitempty"`
	jwt.RegisteredClaims
}

// GenerateToken mints an HS256 bearer token for API clients that do not
// hold a browser session.
func GenerateToken(id domain.Identity, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := tokenClaims{
		Role:      string(id.Role),
		PatientID: id.PatientID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ParseToken validates a bearer token and recovers the identity it carries.
func ParseToken(tokenString string, secret []byte) (domain.Identity, error) {
	claims := &tokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return domain.Identity{}, ErrTokenInvalid
	}

	if claims.Subject == "" || claims.Role == "" {
		return domain.Identity{}, ErrTokenInvalid
	}
	return domain.Identity{
		Username:  claims.Subject,
		Role:      domain.Role(claims.Role),
		PatientID: claims.PatientID,
	}, nil
}
