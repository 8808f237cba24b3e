// Package update реализует частичное обновление задачи.
//
// В теле передаётся id и любое подмножество изменяемых полей. Переход
// completed из false в true проставляет время завершения и отправляет
// уведомление, false очищает время завершения.
package update

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/ebt/internal/http/middlewarectx"
	"github.com/magabrotheeeer/ebt/internal/http/response"
	"github.com/magabrotheeeer/ebt/internal/lib/sl"
	"github.com/magabrotheeeer/ebt/internal/models"
)

// Service описывает обновление задачи.
type Service interface {
	Update(ctx context.Context, userID int64, req models.UpdateTaskRequest) (*models.Task, error)
}

// Handler обрабатывает HTTP-запросы на обновление задач.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Обновить задачу
// @Description Обновляет переданные поля задачи текущего пользователя. Пустая строка в deadline снимает дедлайн.
// @Tags Tasks
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body models.UpdateTaskRequest true "ID задачи и изменяемые поля"
// @Success 200 {object} models.Task
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 404 {object} response.ErrorResponse "Задача не найдена"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /api/tasks/update [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.task.update"

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

	var req models.UpdateTaskRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		response.Fail(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		var vErrs validator.ValidationErrors
		if errors.As(err, &vErrs) {
			log.Warn("validation failed", sl.Err(err))
			render.Status(r, http.StatusUnprocessableEntity)
			render.JSON(w, r, response.ValidationError(vErrs))
			return
		}
		response.Fail(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	task, err := h.service.Update(r.Context(), userID, req)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			log.Warn("task not found", slog.Int64("task_id", req.ID))
		} else {
			log.Error("failed to update task", sl.Err(err))
		}
		response.FailWith(w, r, err)
		return
	}

	log.Info("task updated", slog.Int64("task_id", task.ID), slog.Bool("completed", task.Completed))
	render.JSON(w, r, task)
}
