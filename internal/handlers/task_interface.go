package handlers

import (
	"context"
	"time"
	"todoTracker/internal/models/settings"
	"todoTracker/internal/models/task"
)

type TaskService interface {
	HealthCheck(ctx context.Context) error

	CreateTask(ctx context.Context, title, description string, dueDate *time.Time) (*task.Task, error)
	GetTask(ctx context.Context, id string) (*task.Task, error)
	ListTasks(ctx context.Context, filter task.Filter) ([]task.Task, error)
	UpdateTask(ctx context.Context, id string, patch task.Patch) (*task.Task, error)
	ToggleTask(ctx context.Context, id string) (*task.Task, error)
	DeleteTask(ctx context.Context, id string) error

	TrashTask(ctx context.Context, id string) error
	ListTrash(ctx context.Context) ([]task.Task, error)
	RestoreTask(ctx context.Context, id string) (*task.Task, error)
	PurgeTask(ctx context.Context, id string) error
	EmptyTrash(ctx context.Context) (int, error)
	ClearAll(ctx context.Context) error

	Theme(ctx context.Context) settings.Theme
	SetTheme(ctx context.Context, raw string) (settings.Theme, error)
}
