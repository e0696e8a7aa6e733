package server

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/gosuda/ideaboard/internal/domain"
)

// Claims is the board-scoped connection token. A token grants one user one
// role on one board; connecting to any other board with it is rejected.
type Claims struct {
	BoardID  int64       `json:"board_id"`
	UserID   int64       `json:"user_id"`
	Username string      `json:"username"`
	Color    string      `json:"color"`
	Role     domain.Role `json:"role"`
	jwt.RegisteredClaims
}

var ErrInvalidToken = errors.New("server: invalid token")

// MintToken signs a connection token for one user on one board.
func MintToken(secret string, boardID int64, user domain.ActiveUser, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		BoardID:  boardID,
		UserID:   user.UserID,
		Username: user.Username,
		Color:    user.Color,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Subject:   fmt.Sprintf("%d", user.UserID),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("server.MintToken: %w", err)
	}
	return signed, nil
}

// VerifyToken parses and validates a connection token.
func VerifyToken(secret, token string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("server.VerifyToken: %w: %w", ErrInvalidToken, err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, fmt.Errorf("server.VerifyToken: %w", ErrInvalidToken)
	}
	if !claims.Role.Valid() {
		return nil, fmt.Errorf("server.VerifyToken: %w: bad role %q", ErrInvalidToken, claims.Role)
	}
	return claims, nil
}
