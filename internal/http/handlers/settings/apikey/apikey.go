// Package apikey выпускает новый API-ключ текущего пользователя.
//
// Прежний ключ перестаёт действовать, доступ по API включается.
package apikey

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/ebt/internal/http/middlewarectx"
	"github.com/magabrotheeeer/ebt/internal/http/response"
	"github.com/magabrotheeeer/ebt/internal/lib/sl"
)

type Service interface {
	GenerateAPIKey(ctx context.Context, userID int64) (string, error)
}

// Response — выпущенный ключ.
type Response struct {
	APIKey string `json:"api_key" example:"ebt-0123456789abcdefghijklmnopqrstuvwxyz"`
}

type Handler struct {
	log     *slog.Logger
	service Service
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Выпустить API-ключ
// @Tags Settings
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} apikey.Response
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /api/settings/generate-api-key [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.settings.apikey"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userID, ok := middlewarectx.UserIDFrom(r.Context())
	if !ok {
		log.Error("user id not found in context")
		response.Fail(w, r, http.StatusUnauthorized, "unauthorized")
		return
	}

	key, err := h.service.GenerateAPIKey(r.Context(), userID)
	if err != nil {
		log.Error("failed to generate api key", sl.Err(err))
		response.FailWith(w, r, err)
		return
	}

	log.Info("api key generated")
	render.JSON(w, r, Response{APIKey: key})
}
