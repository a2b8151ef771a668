package auth

import (
	"errors"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JWTClaims represents the claims in our JWT token
type JWTClaims struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	Role  string `json:"role"` // always "guest" for now
	jwt.RegisteredClaims
}

// ErrInvalidToken is returned for tokens that parse but do not validate.
var ErrInvalidToken = errors.New("invalid token")

// JWTSecret is loaded from JWT_SECRET at startup; the default only
// exists so local development works without a .env file.
var JWTSecret = []byte("omnilodge-dev-secret")

// LoadSecret reads JWT_SECRET from the environment, keeping the
// development default when unset.
func LoadSecret() {
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		JWTSecret = []byte(secret)
	}
}

// GenerateGuestToken generates a JWT token for guest authentication
func GenerateGuestToken(email, name string) (string, error) {
	claims := &JWTClaims{
		Email: email,
		Name:  name,
		Role:  "guest",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(7 * 24 * time.Hour)), // 7 days
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(JWTSecret)
}

// ValidateToken validates a JWT token and returns the claims
func ValidateToken(tokenString string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return JWTSecret, nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*JWTClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, ErrInvalidToken
}
