// Package stats отдаёт отчёт по заработку текущего пользователя.
package stats

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
	Stats(ctx context.Context, userID int64) (models.StatsReport, error)
}

type Handler struct {
	log     *slog.Logger
	service Service
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Статистика заработка
// @Description Суммы и количества за месяц, неделю и всё время, прогноз на конец месяца и ряды по дням, неделям и месяцам. Маршруты /api/public/* принимают только API-ключ.
// @Tags Tasks
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} models.StatsReport
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /api/stats [get]
// @Router /api/tasks/stats [get]
// @Router /api/public/stats [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.task.stats"

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

	report, err := h.service.Stats(r.Context(), userID)
	if err != nil {
		log.Error("failed to compute stats", sl.Err(err))
		response.FailWith(w, r, err)
		return
	}

	log.Info("stats computed", slog.Int("total_tasks", report.TotalTasks))
	render.JSON(w, r, report)
}
