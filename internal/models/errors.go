package models

import (
	"errors"
	"fmt"
)

// Ошибки предметной области. Слои ниже оборачивают их через fmt.Errorf("%w"),
// HTTP-слой сопоставляет их со статусами через errors.Is.
var (
	// ErrValidation — некорректные входные данные.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound — запись не найдена или не принадлежит пользователю.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized — нет учётных данных или они не подошли.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrConflict — нарушение уникальности (email, username).
	ErrConflict = errors.New("conflict")
	// ErrExternalDelivery — не удалось доставить уведомление во внешний сервис.
	ErrExternalDelivery = errors.New("external delivery failed")
)

// Invalid возвращает ошибку валидации с пояснением.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
