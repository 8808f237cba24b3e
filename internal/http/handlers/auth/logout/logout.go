// Package logout закрывает текущую сессию пользователя.
package logout

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

// Service удаляет сессию.
type Service interface {
	Logout(ctx context.Context, sessionID string) error
}

type Handler struct {
	log     *slog.Logger
	service Service
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Выход
// @Description Отзывает текущую сессию; токен перестаёт приниматься.
// @Tags Auth
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.SuccessResponse
// @Failure 401 {object} response.ErrorResponse "Не авторизован"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /api/auth/logout [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.logout"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	sessionID, ok := middlewarectx.SessionIDFrom(r.Context())
	if !ok {
		log.Error("session id not found in context")
		response.Fail(w, r, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := h.service.Logout(r.Context(), sessionID); err != nil {
		log.Error("failed to logout", sl.Err(err))
		response.FailWith(w, r, err)
		return
	}

	log.Info("session closed")
	render.JSON(w, r, response.Success())
}
