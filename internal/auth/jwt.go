package auth

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// ParseToken validates an HS256 token and returns its user_id claim.
func ParseToken(secret []byte, tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return "", err
	}
	if !token.Valid {
		return "", fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("unexpected claims type")
	}
	uid, ok := claims["user_id"].(string)
	if !ok {
		return "", fmt.Errorf("missing user_id claim")
	}
	return uid, nil
}
