// Package get отдаёт настройки текущего пользователя.
package get

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/ebt/internal/http/middlewarectx"
	"github.com/magabrotheeeer/ebt/internal/http/response"
	"github.com/magabrotheeeer/ebt/internal/lib/sl"
	"github.com/magabrotheeeer/ebt/internal/models"
)

type Service interface {
	Get(ctx context.Context, userID int64) (*models.Settings, error)
}

type Handler struct {
	log     *slog.Logger
	service Service
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Настройки пользователя
// @Description Адрес вебхука Discord, API-ключ и флаг доступа по ключу. Если настроек ещё нет, отдаются значения по умолчанию.
// @Tags Settings
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} models.Settings
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /api/settings [get]
// @Router /api/settings/get [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.settings.get"

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

	st, err := h.service.Get(r.Context(), userID)
	if err != nil {
		log.Error("failed to get settings", sl.Err(err))
		response.FailWith(w, r, err)
		return
	}
	render.JSON(w, r, st)
}
