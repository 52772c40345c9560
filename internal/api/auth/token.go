package auth

import (
	"errors"
	"fmt"
	"time"

	"arcana-app/internal/domain/users"

	"github.com/golang-jwt/jwt/v5"
)

// TokenTTL is the lifetime of an issued session token.
const TokenTTL = 24 * time.Hour

// Claims is the session view carried in the signed token.
type Claims struct {
	UserID string
	Email  string
	Name   string
	Image  string
	Role   string
}

var ErrInvalidToken = errors.New("invalid or expired token")

// IssueToken signs an HS256 session token for user.
func IssueToken(user *users.User, secret string, now time.Time) (string, error) {
	if secret == "" {
		return "", errors.New("jwt secret not configured")
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": user.ID,
		"email":   user.Email,
		"name":    user.Name,
		"image":   user.Image,
		"role":    user.Role,
		"iat":     now.Unix(),
		"exp":     now.Add(TokenTTL).Unix(),
	})
	return t.SignedString([]byte(secret))
}

// ParseToken verifies tokenString and extracts its claims.
func ParseToken(tokenString, secret string) (*Claims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	mc, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	claims := &Claims{}
	claims.UserID, _ = mc["user_id"].(string)
	claims.Email, _ = mc["email"].(string)
	claims.Name, _ = mc["name"].(string)
	claims.Image, _ = mc["image"].(string)
	claims.Role, _ = mc["role"].(string)
	if claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
