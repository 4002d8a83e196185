package service

import (
	"context"
	"time"
	"todoTracker/internal/models/settings"
	"todoTracker/internal/models/task"
)

type TaskRepository interface {
	HealthCheck(context.Context) error
	GetAll(context.Context) []task.Task
	GetDeleted(context.Context) []task.Task
	Get(context.Context, string) (task.Task, bool)
	Add(context.Context, task.Task) error
	UpdateActive(context.Context, string, task.Patch) (task.Task, error)
	ToggleActive(context.Context, string) (task.Task, error)
	SoftDelete(context.Context, string) error
	Restore(context.Context, string) error
	Remove(context.Context, string) error
	PurgeDeletedBefore(context.Context, time.Time) (int, error)
	Clear(context.Context) error
}

type PrefsRepository interface {
	Theme(context.Context) settings.Theme
	SetTheme(context.Context, settings.Theme) error
}
