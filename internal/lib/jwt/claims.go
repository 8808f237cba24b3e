package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// CustomClaims описывает пользовательские данные, хранящиеся в JWT.
// ID сессии лежит в стандартном поле jti.
type CustomClaims struct {
	UserID               int64  `json:"uid"`
	Username             string `json:"username"`
	jwt.RegisteredClaims        // ExpiresAt, IssuedAt, ID (jti)
}

// SessionID возвращает ID сессии из токена.
func (c *CustomClaims) SessionID() string {
	return c.ID
}

// GenerateToken создаёт подписанный токен и возвращает момент его истечения.
func (j *MakerImpl) GenerateToken(userID int64, username, sessionID string) (string, time.Time, error) {
	const op = "jwt.GenerateToken"

	issued := j.now()
	expires := issued.Add(j.tokenTTL)
	claims := CustomClaims{
		UserID:   userID,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sessionID,
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(j.secretKey))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("%s: %w", op, err)
	}
	return signed, expires, nil
}

// ParseToken проверяет подпись и срок жизни токена и возвращает его claims.
func (j *MakerImpl) ParseToken(tokenStr string) (*CustomClaims, error) {
	const op = "jwt.ParseToken"

	token, err := jwt.ParseWithClaims(tokenStr, &CustomClaims{}, func(_ *jwt.Token) (any, error) {
		return []byte(j.secretKey), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%s: invalid token", op)
	}
	if claims.UserID <= 0 || claims.ID == "" {
		return nil, fmt.Errorf("%s: %w", op, errors.New("token without subject"))
	}
	return claims, nil
}
