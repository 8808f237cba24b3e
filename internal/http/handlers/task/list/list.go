// Package list отдаёт задачи текущего пользователя с фильтром и сортировкой.
package list

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/ebt/internal/http/middlewarectx"
	"github.com/magabrotheeeer/ebt/internal/http/response"
	"github.com/magabrotheeeer/ebt/internal/lib/sl"
	"github.com/magabrotheeeer/ebt/internal/models"
)

type Service interface {
	List(ctx context.Context, userID int64, filter models.ListFilter) ([]models.Task, error)
}

type Handler struct {
	log     *slog.Logger
	service Service
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Список задач
// @Description Возвращает задачи пользователя. completed=true|false фильтрует по статусу, sort задаёт порядок. Маршруты /api/public/* принимают только API-ключ.
// @Tags Tasks
// @Produce  json
// @Security BearerAuth
// @Param completed query bool false "Фильтр по статусу"
// @Param sort query string false "date | amount | completedAt"
// @Success 200 {array} models.Task
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 422 {object} response.ErrorResponse "Неизвестный фильтр или сортировка"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /api/tasks [get]
// @Router /api/tasks/list [get]
// @Router /api/public/tasks/list [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.task.list"

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

	filter := models.ListFilter{SortBy: models.SortKey(r.URL.Query().Get("sort"))}
	if raw := r.URL.Query().Get("completed"); raw != "" {
		completed, err := strconv.ParseBool(raw)
		if err != nil {
			log.Warn("invalid completed filter", slog.String("completed", raw))
			response.Fail(w, r, http.StatusUnprocessableEntity, "completed must be true or false")
			return
		}
		filter.Completed = &completed
	}

	res, err := h.service.List(r.Context(), userID, filter)
	if err != nil {
		log.Error("failed to list tasks", sl.Err(err))
		response.FailWith(w, r, err)
		return
	}
	if res == nil {
		res = []models.Task{}
	}

	log.Info("list tasks", slog.Int("count", len(res)))
	render.JSON(w, r, res)
}
