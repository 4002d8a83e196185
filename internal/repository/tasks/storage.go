// Package tasks хранит всю коллекцию задач одним JSON-блобом под ключом "tasks".
// Каждое изменение - полный цикл чтение/правка/запись, и все такие циклы
// внутри процесса идут строго по одному.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"
	"todoTracker/internal/kv"
	"todoTracker/internal/logger"
	"todoTracker/internal/models/task"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

const Key = "tasks"

var (
	ErrDuplicateID = errors.New("задача с таким id уже существует")
	ErrUnstorable  = errors.New("задачу нельзя сохранить")

	// только для UpdateActive и ToggleActive
	ErrTaskNotFound = errors.New("задача не найдена")
	ErrTaskTrashed  = errors.New("задача находится в корзине")
)

// readPolicy - что делать изменению, если список не прочитался
type readPolicy int

const (
	// ошибка чтения прерывает операцию и возвращается вызывающему
	abortOnReadError readPolicy = iota
	// список считается пустым, запись не делается
	emptyOnReadError
)

type Storage struct {
	kv  kv.Store
	sem *semaphore.Weighted
	now func() time.Time
}

func New(store kv.Store) *Storage {
	return &Storage{
		kv:  store,
		sem: semaphore.NewWeighted(1),
		now: time.Now,
	}
}

// WithClock подменяет часы, которыми штампуется DeletedAt
func (s *Storage) WithClock(now func() time.Time) *Storage {
	s.now = now
	return s
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	return s.kv.HealthCheck(ctx)
}

// load отличает "ключа нет" (пустой список) от настоящей ошибки чтения
func (s *Storage) load(ctx context.Context) ([]task.Task, error) {
	data, err := s.kv.Get(ctx, Key)
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return []task.Task{}, nil
		}
		return nil, fmt.Errorf("чтение задач: %w", err)
	}
	return decode(data)
}

// lock ждёт своей очереди, пока жив ctx
func (s *Storage) lock(ctx context.Context) error {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("ожидание хранилища: %w", err)
	}
	return nil
}

func (s *Storage) unlock() {
	s.sem.Release(1)
}

// save пишет блоб только если его потом можно будет прочитать
func (s *Storage) save(ctx context.Context, tasks []task.Task) error {
	data, err := encode(tasks)
	if err != nil {
		return err
	}
	if err := validateBlob(data); err != nil {
		return fmt.Errorf("%w: %v", ErrUnstorable, err)
	}
	if err := s.kv.Set(ctx, Key, data); err != nil {
		return fmt.Errorf("запись задач: %w", err)
	}
	return nil
}

// mutate выполняет fn под замком; если fn ничего не поменяла, запись не делается
func (s *Storage) mutate(ctx context.Context, op string, policy readPolicy, fn func([]task.Task) ([]task.Task, bool, error)) error {
	start := time.Now()

	if err := s.lock(ctx); err != nil {
		logger.Warn("Repository: Не дождались хранилища", zap.String("operation", op), zap.Error(err))
		return err
	}
	defer s.unlock()

	current, err := s.load(ctx)
	if err != nil {
		if policy == abortOnReadError {
			logger.Error("Repository: Не удалось прочитать задачи перед изменением", err, zap.String("operation", op))
			return err
		}
		logger.Warn("Repository: Список задач не прочитан, изменение пропущено",
			zap.String("operation", op), zap.Error(err))
		_, _, err := fn([]task.Task{})
		return err
	}

	next, changed, err := fn(current)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}

	if err := s.save(ctx, next); err != nil {
		logger.Error("Repository: Не удалось сохранить задачи", err, zap.String("operation", op))
		return err
	}

	if time.Since(start) > time.Millisecond*100 {
		logger.Warn("Repository: Медленная операция",
			zap.String("operation", op),
			zap.Int("tasks", len(next)),
			zap.Duration("ms", time.Since(start)))
	}
	return nil
}

// GetAll никогда не возвращает ошибку: отсутствующий или битый блоб - это пустой список
func (s *Storage) GetAll(ctx context.Context) []task.Task {
	if err := s.lock(ctx); err != nil {
		logger.Warn("Repository: Не дождались хранилища, отдаём пустой список", zap.Error(err))
		return []task.Task{}
	}
	defer s.unlock()

	tasks, err := s.load(ctx)
	if err != nil {
		logger.Warn("Repository: Список задач не прочитан, отдаём пустой", zap.Error(err))
		return []task.Task{}
	}
	return tasks
}

func (s *Storage) GetDeleted(ctx context.Context) []task.Task {
	res := []task.Task{}
	for _, t := range s.GetAll(ctx) {
		if t.Deleted {
			res = append(res, t)
		}
	}
	return res
}

func (s *Storage) GetActive(ctx context.Context) []task.Task {
	res := []task.Task{}
	for _, t := range s.GetAll(ctx) {
		if t.Active() {
			res = append(res, t)
		}
	}
	return res
}

func (s *Storage) Get(ctx context.Context, id string) (task.Task, bool) {
	for _, t := range s.GetAll(ctx) {
		if t.ID == id {
			return t, true
		}
	}
	return task.Task{}, false
}

func (s *Storage) Add(ctx context.Context, t task.Task) error {
	t.Deleted = false
	t.DeletedAt = nil

	return s.mutate(ctx, "add", abortOnReadError, func(tasks []task.Task) ([]task.Task, bool, error) {
		if indexOf(tasks, t.ID) != -1 {
			return nil, false, fmt.Errorf("%w: %s", ErrDuplicateID, t.ID)
		}
		return append(tasks, t), true, nil
	})
}

// Update с неизвестным id ничего не делает и не считается ошибкой
func (s *Storage) Update(ctx context.Context, id string, patch task.Patch) error {
	return s.mutate(ctx, "update", emptyOnReadError, func(tasks []task.Task) ([]task.Task, bool, error) {
		i := indexOf(tasks, id)
		if i == -1 {
			return nil, false, nil
		}
		patch.Apply(&tasks[i])
		return tasks, true, nil
	})
}

func (s *Storage) Toggle(ctx context.Context, id string) error {
	return s.mutate(ctx, "toggle", emptyOnReadError, func(tasks []task.Task) ([]task.Task, bool, error) {
		i := indexOf(tasks, id)
		if i == -1 {
			return nil, false, nil
		}
		tasks[i].Completed = !tasks[i].Completed
		return tasks, true, nil
	})
}

// UpdateActive меняет задачу, только если она есть и не лежит в корзине.
// Проверка и запись идут под одним замком.
func (s *Storage) UpdateActive(ctx context.Context, id string, patch task.Patch) (task.Task, error) {
	return s.changeActive(ctx, "update_active", id, patch.Apply)
}

func (s *Storage) ToggleActive(ctx context.Context, id string) (task.Task, error) {
	return s.changeActive(ctx, "toggle_active", id, func(t *task.Task) {
		t.Completed = !t.Completed
	})
}

func (s *Storage) changeActive(ctx context.Context, op, id string, apply func(*task.Task)) (task.Task, error) {
	var changed task.Task
	err := s.mutate(ctx, op, emptyOnReadError, func(tasks []task.Task) ([]task.Task, bool, error) {
		i := indexOf(tasks, id)
		if i == -1 {
			return nil, false, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
		}
		if tasks[i].Deleted {
			return nil, false, fmt.Errorf("%w: %s", ErrTaskTrashed, id)
		}
		apply(&tasks[i])
		changed = tasks[i]
		return tasks, true, nil
	})
	if err != nil {
		return task.Task{}, err
	}
	return changed, nil
}

// мягкое удаление, повторный вызов ничего не меняет
func (s *Storage) SoftDelete(ctx context.Context, id string) error {
	return s.mutate(ctx, "soft_delete", emptyOnReadError, func(tasks []task.Task) ([]task.Task, bool, error) {
		i := indexOf(tasks, id)
		if i == -1 || tasks[i].Deleted {
			return nil, false, nil
		}
		now := s.now()
		tasks[i].Deleted = true
		tasks[i].DeletedAt = &now
		return tasks, true, nil
	})
}

func (s *Storage) Restore(ctx context.Context, id string) error {
	return s.mutate(ctx, "restore", emptyOnReadError, func(tasks []task.Task) ([]task.Task, bool, error) {
		i := indexOf(tasks, id)
		if i == -1 || !tasks[i].Deleted {
			return nil, false, nil
		}
		tasks[i].Deleted = false
		tasks[i].DeletedAt = nil
		return tasks, true, nil
	})
}

// полное удаление, работает и для задач вне корзины
func (s *Storage) Remove(ctx context.Context, id string) error {
	return s.mutate(ctx, "remove", emptyOnReadError, func(tasks []task.Task) ([]task.Task, bool, error) {
		i := indexOf(tasks, id)
		if i == -1 {
			return nil, false, nil
		}
		return append(tasks[:i], tasks[i+1:]...), true, nil
	})
}

// PurgeDeletedBefore стирает задачи, лежащие в корзине дольше cutoff.
// Задачи без DeletedAt не трогаем: непонятно, когда они туда попали.
func (s *Storage) PurgeDeletedBefore(ctx context.Context, cutoff time.Time) (int, error) {
	purged := 0
	err := s.mutate(ctx, "purge", abortOnReadError, func(tasks []task.Task) ([]task.Task, bool, error) {
		kept := make([]task.Task, 0, len(tasks))
		for _, t := range tasks {
			if t.Deleted && t.DeletedAt != nil && t.DeletedAt.Before(cutoff) {
				purged++
				continue
			}
			kept = append(kept, t)
		}
		return kept, purged > 0, nil
	})
	if err != nil {
		return 0, err
	}
	return purged, nil
}

// Clear стирает всё хранилище целиком, включая настройки
func (s *Storage) Clear(ctx context.Context) error {
	if err := s.lock(ctx); err != nil {
		return err
	}
	defer s.unlock()

	if err := s.kv.Clear(ctx); err != nil {
		logger.Error("Repository: Не удалось очистить хранилище", err)
		return fmt.Errorf("очистка хранилища: %w", err)
	}
	return nil
}

func indexOf(tasks []task.Task, id string) int {
	for i, t := range tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}
