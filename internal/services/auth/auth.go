// Package services содержит логику бизнес-уровня для работы с пользователями и аутентификацией.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/magabrotheeeer/ebt/internal/lib/jwt"
	"github.com/magabrotheeeer/ebt/internal/lib/password"
	"github.com/magabrotheeeer/ebt/internal/models"
	"github.com/magabrotheeeer/ebt/internal/session"
)

// UserRepository описывает контракт для работы с пользователями в базе данных.
type UserRepository interface {
	// CreateUser сохраняет нового пользователя, занятые email/username дают ErrConflict.
	CreateUser(ctx context.Context, user models.User) (*models.User, error)

	// GetUserByEmail возвращает пользователя по email или ErrNotFound.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	UpdateUserPassword(ctx context.Context, id int64, passwordHash string) error
}

// SessionStore хранит активные сессии.
type SessionStore interface {
	Save(ctx context.Context, id string, data session.Data, ttl time.Duration) error
	Get(ctx context.Context, id string) (*session.Data, bool, error)
	Delete(ctx context.Context, id string) error
}

// AuthService отвечает за регистрацию, вход по email и паролю, сессии и смену пароля.
type AuthService struct {
	users    UserRepository
	sessions SessionStore
	jwtMaker jwt.Maker
	ttl      time.Duration
	now      func() time.Time
}

// NewAuthService создает новый экземпляр AuthService. ttl — срок жизни сессии.
func NewAuthService(users UserRepository, sessions SessionStore, jwtMaker jwt.Maker, ttl time.Duration) *AuthService {
	return &AuthService{
		users:    users,
		sessions: sessions,
		jwtMaker: jwtMaker,
		ttl:      ttl,
		now:      time.Now,
	}
}

// Register создает нового пользователя с bcrypt-хешем пароля.
func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	const op = "services.auth.Register"

	hashed, err := hashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	user, err := s.users.CreateUser(ctx, models.User{
		Username:     strings.TrimSpace(req.Username),
		Email:        normalizeEmail(req.Email),
		PasswordHash: hashed,
		CreatedAt:    s.now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return user, nil
}

// Login проверяет пароль, открывает сессию и выдаёт токен.
// Неизвестный email и неверный пароль неразличимы для клиента.
func (s *AuthService) Login(ctx context.Context, email, rawPassword string) (*models.Session, error) {
	const op = "services.auth.Login"

	user, err := s.users.GetUserByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, models.ErrUnauthorized)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := password.CompareHash(user.PasswordHash, rawPassword); err != nil {
		return nil, fmt.Errorf("%s: %w", op, models.ErrUnauthorized)
	}

	sessionID := session.NewID()
	token, expiresAt, err := s.jwtMaker.GenerateToken(user.ID, user.Username, sessionID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	err = s.sessions.Save(ctx, sessionID, session.Data{
		UserID:    user.ID,
		Username:  user.Username,
		CreatedAt: s.now().UTC(),
	}, s.ttl)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &models.Session{Token: token, ExpiresAt: expiresAt}, nil
}

// Logout закрывает сессию.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	const op = "services.auth.Logout"
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ChangePassword меняет пароль после проверки текущего.
func (s *AuthService) ChangePassword(ctx context.Context, userID int64, oldPassword, newPassword string) error {
	const op = "services.auth.ChangePassword"

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := password.CompareHash(user.PasswordHash, oldPassword); err != nil {
		return fmt.Errorf("%s: %w", op, models.ErrUnauthorized)
	}
	hashed, err := hashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.users.UpdateUserPassword(ctx, userID, hashed); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ResolveSession проверяет токен сессии и возвращает ID пользователя и ID сессии.
// Просроченный, поддельный или отозванный токен даёт ErrUnauthorized.
func (s *AuthService) ResolveSession(ctx context.Context, token string) (int64, string, error) {
	const op = "services.auth.ResolveSession"

	claims, err := s.jwtMaker.ParseToken(token)
	if err != nil {
		return 0, "", fmt.Errorf("%s: %w: %w", op, models.ErrUnauthorized, err)
	}
	data, found, err := s.sessions.Get(ctx, claims.SessionID())
	if err != nil {
		return 0, "", fmt.Errorf("%s: %w", op, err)
	}
	if !found || data.UserID != claims.UserID {
		return 0, "", fmt.Errorf("%s: %w: session revoked", op, models.ErrUnauthorized)
	}
	return claims.UserID, claims.SessionID(), nil
}

func hashPassword(raw string) (string, error) {
	hashed, err := password.GetHash(raw)
	if errors.Is(err, password.ErrTooLong) {
		return "", models.Invalid("password must be at most %d bytes", password.MaxLength)
	}
	return hashed, err
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
