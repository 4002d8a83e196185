package service

import (
	"context"
	"errors"
	"fmt"
	"time"
	"todoTracker/internal/logger"
	"todoTracker/internal/models/settings"
	"todoTracker/internal/models/task"
	"todoTracker/internal/repository/tasks"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// здесь происходит проверка ошибок бизнес-логики

const resourceTask = "задача"

type TaskService struct {
	repo  TaskRepository
	prefs PrefsRepository
	newID func() string
	now   func() time.Time
}

func NewTaskService(repo TaskRepository, prefs PrefsRepository) TaskService {
	return TaskService{
		repo:  repo,
		prefs: prefs,
		newID: uuid.NewString,
		now:   time.Now,
	}
}

// WithClock нужен тестам и воркеру корзины
func (s TaskService) WithClock(now func() time.Time) TaskService {
	s.now = now
	return s
}

func (s *TaskService) HealthCheck(ctx context.Context) error {
	if err := s.repo.HealthCheck(ctx); err != nil {
		logger.Error("Service: Хранилище недоступно", err)
		return fmt.Errorf("проверка здоровья сервиса: %w", err)
	}
	return nil
}

func (s *TaskService) CreateTask(ctx context.Context, title, description string, dueDate *time.Time) (*task.Task, error) {
	newTask, err := task.New(s.newID(), title, description, dueDate, s.now())
	if err != nil {
		return nil, NewValidationError("title", err.Error())
	}

	if err := s.repo.Add(ctx, newTask); err != nil {
		if errors.Is(err, tasks.ErrDuplicateID) {
			be := NewBusinessError(CodeDuplicate, "задача с таким id уже существует", ToDetail("id", newTask.ID))
			be.Err = err
			return nil, be
		}
		return nil, changeError(newTask.ID, "создание задачи", err)
	}

	logger.Info("Service: Задача создана", zap.String("task_id", newTask.ID))
	return &newTask, nil
}

func (s *TaskService) GetTask(ctx context.Context, id string) (*task.Task, error) {
	found, ok := s.repo.Get(ctx, id)
	if !ok {
		logger.Info("Service: Задача не найдена", zap.String("target_id", id))
		return nil, NewNotFound(resourceTask, id)
	}
	return &found, nil
}

// ListTasks - активные задачи под фильтром, новые сверху
func (s *TaskService) ListTasks(ctx context.Context, filter task.Filter) ([]task.Task, error) {
	active := []task.Task{}
	for _, t := range s.repo.GetAll(ctx) {
		if t.Active() {
			active = append(active, t)
		}
	}

	res := task.Apply(filter, active, s.now())
	task.SortByCreated(res)
	return res, nil
}

func (s *TaskService) ListTrash(ctx context.Context) ([]task.Task, error) {
	return s.repo.GetDeleted(ctx), nil
}

// changeError переводит отказы хранилища при правке задачи в бизнес-ошибки
func changeError(id, op string, err error) error {
	switch {
	case errors.Is(err, tasks.ErrTaskNotFound):
		logger.Info("Service: Задача не найдена", zap.String("target_id", id))
		return NewNotFound(resourceTask, id)
	case errors.Is(err, tasks.ErrTaskTrashed):
		return NewBusinessError(CodeTaskDeleted, "задача находится в корзине", ToDetail("id", id))
	case errors.Is(err, tasks.ErrUnstorable):
		be := NewValidationError("dueDate", "дата не может быть сохранена")
		be.Err = err
		return be
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (s *TaskService) UpdateTask(ctx context.Context, id string, patch task.Patch) (*task.Task, error) {
	patch = patch.Normalize()
	if err := patch.Validate(); err != nil {
		return nil, NewValidationError("title", err.Error())
	}

	updated, err := s.repo.UpdateActive(ctx, id, patch)
	if err != nil {
		return nil, changeError(id, "обновление задачи", err)
	}
	return &updated, nil
}

func (s *TaskService) ToggleTask(ctx context.Context, id string) (*task.Task, error) {
	toggled, err := s.repo.ToggleActive(ctx, id)
	if err != nil {
		return nil, changeError(id, "переключение задачи", err)
	}
	return &toggled, nil
}

// TrashTask переносит задачу в корзину; повторный вызов ничего не меняет
func (s *TaskService) TrashTask(ctx context.Context, id string) error {
	if _, ok := s.repo.Get(ctx, id); !ok {
		return NewNotFound(resourceTask, id)
	}

	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return fmt.Errorf("мягкое удаление: %w", err)
	}

	logger.Info("Service: Задача перемещена в корзину", zap.String("task_id", id))
	return nil
}

func (s *TaskService) RestoreTask(ctx context.Context, id string) (*task.Task, error) {
	found, ok := s.repo.Get(ctx, id)
	if !ok {
		return nil, NewNotFound(resourceTask, id)
	}
	if !found.Deleted {
		return nil, NewBusinessError(CodeNotDeleted, "задача не находится в корзине", ToDetail("id", id))
	}

	if err := s.repo.Restore(ctx, id); err != nil {
		return nil, fmt.Errorf("восстановление задачи: %w", err)
	}
	return s.GetTask(ctx, id)
}

// PurgeTask стирает задачу из корзины навсегда
func (s *TaskService) PurgeTask(ctx context.Context, id string) error {
	found, ok := s.repo.Get(ctx, id)
	if !ok {
		return NewNotFound(resourceTask, id)
	}
	if !found.Deleted {
		return NewBusinessError(CodeNotDeleted, "удалять навсегда можно только из корзины", ToDetail("id", id))
	}

	if err := s.repo.Remove(ctx, id); err != nil {
		return fmt.Errorf("полное удаление: %w", err)
	}

	logger.Info("Service: Задача удалена навсегда", zap.String("task_id", id))
	return nil
}

// DeleteTask - быстрое удаление мимо корзины
func (s *TaskService) DeleteTask(ctx context.Context, id string) error {
	if _, ok := s.repo.Get(ctx, id); !ok {
		return NewNotFound(resourceTask, id)
	}

	if err := s.repo.Remove(ctx, id); err != nil {
		return fmt.Errorf("полное удаление: %w", err)
	}
	return nil
}

func (s *TaskService) EmptyTrash(ctx context.Context) (int, error) {
	removed := 0
	for _, t := range s.repo.GetDeleted(ctx) {
		if err := s.repo.Remove(ctx, t.ID); err != nil {
			return removed, fmt.Errorf("очистка корзины: %w", err)
		}
		removed++
	}

	logger.Info("Service: Корзина очищена", zap.Int("removed", removed))
	return removed, nil
}

// PurgeExpiredTrash стирает задачи, пролежавшие в корзине дольше retention
func (s *TaskService) PurgeExpiredTrash(ctx context.Context, retention time.Duration) (int, error) {
	purged, err := s.repo.PurgeDeletedBefore(ctx, s.now().Add(-retention))
	if err != nil {
		return 0, fmt.Errorf("очистка корзины по сроку: %w", err)
	}
	return purged, nil
}

func (s *TaskService) ClearAll(ctx context.Context) error {
	if err := s.repo.Clear(ctx); err != nil {
		return fmt.Errorf("очистка данных: %w", err)
	}
	logger.Warn("Service: Все данные удалены")
	return nil
}

func (s *TaskService) Theme(ctx context.Context) settings.Theme {
	return s.prefs.Theme(ctx)
}

func (s *TaskService) SetTheme(ctx context.Context, raw string) (settings.Theme, error) {
	theme, err := settings.ParseTheme(raw)
	if err != nil {
		return "", NewValidationError("theme", err.Error())
	}

	if err := s.prefs.SetTheme(ctx, theme); err != nil {
		return "", fmt.Errorf("сохранение темы: %w", err)
	}
	return theme, nil
}
