package tasks

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
	"todoTracker/internal/models/task"
)

// ISO-8601 в UTC с миллисекундами: 2025-03-01T10:00:00.000Z
const timeLayout = "2006-01-02T15:04:05.000Z07:00"

var ErrMalformed = errors.New("сохранённый список задач повреждён")

// record - форма задачи внутри блоба, даты хранятся строками
type record struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	DueDate     *string `json:"dueDate,omitempty"`
	Completed   bool    `json:"completed"`
	CreatedAt   string  `json:"createdAt"`
	Deleted     bool    `json:"deleted"`
	DeletedAt   *string `json:"deletedAt,omitempty"`
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func formatOptional(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}

func parseTime(field, raw string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: поле %s: %v", ErrMalformed, field, err)
	}
	return t.UTC(), nil
}

func parseOptional(field string, raw *string) (*time.Time, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	t, err := parseTime(field, *raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func toRecord(t task.Task) record {
	return record{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		DueDate:     formatOptional(t.DueDate),
		Completed:   t.Completed,
		CreatedAt:   formatTime(t.CreatedAt),
		Deleted:     t.Deleted,
		DeletedAt:   formatOptional(t.DeletedAt),
	}
}

func (r record) toTask() (task.Task, error) {
	createdAt, err := parseTime("createdAt", r.CreatedAt)
	if err != nil {
		return task.Task{}, err
	}
	dueDate, err := parseOptional("dueDate", r.DueDate)
	if err != nil {
		return task.Task{}, err
	}
	deletedAt, err := parseOptional("deletedAt", r.DeletedAt)
	if err != nil {
		return task.Task{}, err
	}

	return task.Task{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		DueDate:     dueDate,
		Completed:   r.Completed,
		CreatedAt:   createdAt,
		Deleted:     r.Deleted,
		DeletedAt:   deletedAt,
	}, nil
}

func encode(tasks []task.Task) ([]byte, error) {
	records := make([]record, len(tasks))
	for i, t := range tasks {
		records[i] = toRecord(t)
	}
	data, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("сериализация задач: %w", err)
	}
	return data, nil
}

func decode(data []byte) ([]task.Task, error) {
	if err := validateBlob(data); err != nil {
		return nil, err
	}

	var records []record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	tasks := make([]task.Task, 0, len(records))
	for i, r := range records {
		t, err := r.toTask()
		if err != nil {
			return nil, fmt.Errorf("задача #%d: %w", i, err)
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}
