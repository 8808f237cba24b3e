package register

import (
	"context"

	"github.com/magabrotheeeer/ebt/internal/models"
)

// Service описывает регистрацию пользователя.
type Service interface {
	Register(ctx context.Context, req models.RegisterRequest) (*models.User, error)
}
