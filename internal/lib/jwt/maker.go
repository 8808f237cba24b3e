// Package jwt выпускает и разбирает токены сессий.
//
// В токене лежат ID пользователя, его имя и ID сессии (jti). Проверка
// подписи и срока жизни — задача пакета, проверка того, что сессия ещё
// не отозвана, делается выше по стеку.
package jwt

import (
	"time"
)

// Maker описывает генерацию и разбор токенов сессии.
type Maker interface {
	GenerateToken(userID int64, username, sessionID string) (string, time.Time, error)
	ParseToken(tokenStr string) (*CustomClaims, error)
}

// MakerImpl подписывает токены HS256 секретным ключом.
type MakerImpl struct {
	secretKey string        // Секретный ключ для подписи токенов.
	tokenTTL  time.Duration // Время жизни токена.
	now       func() time.Time
}

// NewJWTMaker создаёт MakerImpl на основе секретного ключа и TTL.
func NewJWTMaker(secretKey string, ttl time.Duration) *MakerImpl {
	return &MakerImpl{
		secretKey: secretKey,
		tokenTTL:  ttl,
		now:       time.Now,
	}
}

// TTL возвращает время жизни выпускаемых токенов.
func (j *MakerImpl) TTL() time.Duration {
	return j.tokenTTL
}
