package login

import (
	"context"

	"github.com/magabrotheeeer/ebt/internal/models"
)

// Service описывает вход пользователя по email и паролю.
type Service interface {
	Login(ctx context.Context, email, password string) (*models.Session, error)
}
