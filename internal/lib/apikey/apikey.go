// Package apikey генерирует и проверяет формат API-ключей вида ebt-<36 символов [a-z0-9]>.
package apikey

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
	"strings"
)

const (
	// Prefix — префикс любого API-ключа.
	Prefix = "ebt-"
	// BodyLength — длина случайной части ключа.
	BodyLength = 36

	alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
)

var format = regexp.MustCompile(`^ebt-[a-z0-9]{36}$`)

// Generate возвращает новый случайный ключ.
func Generate() (string, error) {
	const op = "apikey.Generate"

	var b strings.Builder
	b.Grow(len(Prefix) + BodyLength)
	b.WriteString(Prefix)

	limit := big.NewInt(int64(len(alphabet)))
	for range BodyLength {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("%s: %w", op, err)
		}
		b.WriteByte(alphabet[n.Int64()])
	}
	return b.String(), nil
}

// LooksLikeKey сообщает, что токен предъявлен как API-ключ (по префиксу).
func LooksLikeKey(token string) bool {
	return strings.HasPrefix(token, Prefix)
}

// Valid проверяет формат ключа целиком.
func Valid(key string) bool {
	return format.MatchString(key)
}
