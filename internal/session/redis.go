// Package session хранит активные сессии пользователей в Redis.
// Ключ — идентификатор сессии из JWT (jti), срок жизни совпадает со сроком токена.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/magabrotheeeer/ebt/internal/config"
)

const keyPrefix = "session:"

// Data — содержимое сессии.
type Data struct {
	UserID    int64     `json:"user_id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

// Store — хранилище сессий на go-redis.
type Store struct {
	Db *redis.Client
}

// InitServer подключается к Redis и проверяет соединение.
func InitServer(ctx context.Context, cfg config.RedisConnection) (*Store, error) {
	const op = "session.InitServer"
	db := redis.NewClient(&redis.Options{
		Addr:         cfg.AddressRedis,
		Password:     cfg.Password,
		DB:           cfg.DB,
		Username:     cfg.User,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.TimeoutRedis,
		WriteTimeout: cfg.TimeoutRedis,
	})

	if err := db.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Store{Db: db}, nil
}

// NewID возвращает новый идентификатор сессии.
func NewID() string {
	return uuid.NewString()
}

// Save сохраняет сессию под идентификатором id на время ttl.
func (s *Store) Save(ctx context.Context, id string, data Data, ttl time.Duration) error {
	const op = "session.Save"
	if ttl <= 0 {
		return fmt.Errorf("%s: non-positive ttl %s", op, ttl)
	}
	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.Db.Set(ctx, keyPrefix+id, jsonData, ttl).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Get возвращает сессию. found == false, если её нет или срок истёк.
func (s *Store) Get(ctx context.Context, id string) (*Data, bool, error) {
	const op = "session.Get"
	val, err := s.Db.Get(ctx, keyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}
	var data Data
	if err := json.Unmarshal(val, &data); err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}
	return &data, true, nil
}

// Delete удаляет сессию. Отсутствие ключа ошибкой не считается.
func (s *Store) Delete(ctx context.Context, id string) error {
	const op = "session.Delete"
	if err := s.Db.Del(ctx, keyPrefix+id).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Close закрывает клиент Redis.
func (s *Store) Close() error {
	return s.Db.Close()
}
