package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
	"todoTracker/internal/handlers/dto"
	"todoTracker/internal/logger"
	"todoTracker/internal/models/task"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type TaskHandler struct {
	TaskService TaskService
	now         func() time.Time
}

func NewTaskHandler(taskService TaskService) TaskHandler {
	return TaskHandler{
		TaskService: taskService,
		now:         time.Now,
	}
}

// Register вешает все маршруты задач, корзины и настроек на роутер
func (s *TaskHandler) Register(r chi.Router) {
	r.Get("/health", s.HealthCheck)

	r.Route("/tasks", func(r chi.Router) {
		r.Get("/", s.ListTasks)
		r.Post("/", s.PostTask)
		r.Get("/{id}", s.GetTaskByID)
		r.Patch("/{id}", s.UpdateTaskByID)
		r.Delete("/{id}", s.TrashTaskByID)
		r.Post("/{id}/toggle", s.ToggleTaskByID)
		r.Delete("/{id}/force", s.DeleteTaskByID)
	})

	r.Route("/trash", func(r chi.Router) {
		r.Get("/", s.ListTrash)
		r.Delete("/", s.EmptyTrash)
		r.Post("/{id}/restore", s.RestoreTaskByID)
		r.Delete("/{id}", s.PurgeTaskByID)
	})

	r.Delete("/data", s.ClearAll)

	r.Get("/settings/theme", s.GetTheme)
	r.Put("/settings/theme", s.PutTheme)
}

func (s *TaskHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP: Health check")

	if err := s.TaskService.HealthCheck(r.Context()); err != nil {
		logger.Error("HTTP: Сервис недоступен", err)
		responseWithJSON(w, http.StatusServiceUnavailable,
			toPayload("status", "unavailable"),
			toPayload("error", err.Error()))
		return
	}

	responseWithJSON(w, http.StatusOK,
		toPayload("status", "ok"),
		toPayload("time", s.now().UTC()))
}

func (s *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	filter, err := task.ParseFilter(r.URL.Query().Get("filter"))
	if err != nil {
		logger.Warn("HTTP: Неверное значение параметра",
			zap.String("query", "filter"),
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	tasks, err := s.TaskService.ListTasks(r.Context(), filter)
	if err != nil {
		handleServiceError(w, r, err, "list_tasks")
		return
	}

	logger.Info("HTTP_OUT: Задачи получены",
		zap.String("filter", string(filter)),
		zap.Int("count", len(tasks)),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	writeJSON(w, http.StatusOK, dto.FromTaskList(tasks, s.now()))
}

func (s *TaskHandler) PostTask(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	if !checkContentType(r, "application/json") {
		logger.Warn("HTTP: Неверный тип контента",
			zap.String("expected", "application/json"),
			zap.String("received", r.Header.Get("Content-Type")),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusUnsupportedMediaType, "Content-Type должен быть application/json")
		return
	}

	var request dto.CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		logger.Warn("HTTP: ошибка чтения JSON",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusBadRequest, "неверное тело запроса: "+err.Error())
		return
	}

	created, err := s.TaskService.CreateTask(r.Context(), request.Title, request.Description, request.DueDate)
	if err != nil {
		handleServiceError(w, r, err, "create_task")
		return
	}

	logger.Info("HTTP_OUT: Задача создана",
		zap.String("task_id", created.ID),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusCreated))

	writeJSON(w, http.StatusCreated, dto.FromTask(*created, s.now()))
}

func (s *TaskHandler) GetTaskByID(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")

	id, ok := s.requireID(w, r)
	if !ok {
		return
	}

	found, err := s.TaskService.GetTask(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err, "get_task")
		return
	}

	writeJSON(w, http.StatusOK, dto.FromTask(*found, s.now()))
}

func (s *TaskHandler) UpdateTaskByID(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	id, ok := s.requireID(w, r)
	if !ok {
		return
	}

	if !checkContentType(r, "application/json") {
		responseWithError(w, http.StatusUnsupportedMediaType, "Content-Type должен быть application/json")
		return
	}

	var request dto.UpdateTaskRequest
	decoder := json.NewDecoder(r.Body)
	defer r.Body.Close()

	if err := decoder.Decode(&request); err != nil {
		logger.Warn("HTTP: ошибка чтения JSON",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusBadRequest, "неверно переданы параметры обновления: "+err.Error())
		return
	}

	patch := request.ToPatch()
	if patch.IsEmpty() {
		responseWithError(w, http.StatusBadRequest, "нет полей для обновления")
		return
	}

	updated, err := s.TaskService.UpdateTask(r.Context(), id, patch)
	if err != nil {
		handleServiceError(w, r, err, "update_task")
		return
	}

	logger.Info("HTTP_OUT: Задача обновлена",
		zap.String("task_id", id),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	writeJSON(w, http.StatusOK, dto.FromTask(*updated, s.now()))
}

func (s *TaskHandler) ToggleTaskByID(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")

	id, ok := s.requireID(w, r)
	if !ok {
		return
	}

	toggled, err := s.TaskService.ToggleTask(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err, "toggle_task")
		return
	}

	writeJSON(w, http.StatusOK, dto.FromTask(*toggled, s.now()))
}

func (s *TaskHandler) TrashTaskByID(w http.ResponseWriter, r *http.Request) {
	s.noContent(w, r, "trash_task", s.TaskService.TrashTask)
}

func (s *TaskHandler) DeleteTaskByID(w http.ResponseWriter, r *http.Request) {
	s.noContent(w, r, "delete_task", s.TaskService.DeleteTask)
}

func (s *TaskHandler) PurgeTaskByID(w http.ResponseWriter, r *http.Request) {
	s.noContent(w, r, "purge_task", s.TaskService.PurgeTask)
}

func (s *TaskHandler) ListTrash(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")

	trash, err := s.TaskService.ListTrash(r.Context())
	if err != nil {
		handleServiceError(w, r, err, "list_trash")
		return
	}

	writeJSON(w, http.StatusOK, dto.FromTaskList(trash, s.now()))
}

func (s *TaskHandler) RestoreTaskByID(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")

	id, ok := s.requireID(w, r)
	if !ok {
		return
	}

	restored, err := s.TaskService.RestoreTask(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err, "restore_task")
		return
	}

	writeJSON(w, http.StatusOK, dto.FromTask(*restored, s.now()))
}

func (s *TaskHandler) EmptyTrash(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")

	removed, err := s.TaskService.EmptyTrash(r.Context())
	if err != nil {
		handleServiceError(w, r, err, "empty_trash")
		return
	}

	responseWithJSON(w, http.StatusOK, toPayload("removed", removed))
}

// ClearAll стирает задачи вместе с настройками
func (s *TaskHandler) ClearAll(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")

	if err := s.TaskService.ClearAll(r.Context()); err != nil {
		handleServiceError(w, r, err, "clear_all")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *TaskHandler) GetTheme(w http.ResponseWriter, r *http.Request) {
	theme := s.TaskService.Theme(r.Context())
	writeJSON(w, http.StatusOK, dto.ThemeResponse{Theme: string(theme)})
}

func (s *TaskHandler) PutTheme(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")

	var request dto.ThemeRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		responseWithError(w, http.StatusBadRequest, "неверное тело запроса: "+err.Error())
		return
	}

	theme, err := s.TaskService.SetTheme(r.Context(), request.Theme)
	if err != nil {
		handleServiceError(w, r, err, "set_theme")
		return
	}

	writeJSON(w, http.StatusOK, dto.ThemeResponse{Theme: string(theme)})
}

func (s *TaskHandler) requireID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := taskID(r)
	if !ok {
		logger.Warn("HTTP: Неверное значение id",
			zap.String("error", "empty id"),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusBadRequest, "id не может быть пустым")
	}
	return id, ok
}

func (s *TaskHandler) noContent(w http.ResponseWriter, r *http.Request, operation string, call func(ctx context.Context, id string) error) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	id, ok := s.requireID(w, r)
	if !ok {
		return
	}

	if err := call(r.Context(), id); err != nil {
		handleServiceError(w, r, err, operation)
		return
	}

	logger.Info("HTTP_OUT: Операция выполнена",
		zap.String("operation", operation),
		zap.String("task_id", id),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusNoContent))

	w.WriteHeader(http.StatusNoContent)
}
