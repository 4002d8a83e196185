package task

import (
	"errors"
	"strings"
	"time"
)

type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	Completed   bool       `json:"completed"`
	CreatedAt   time.Time  `json:"createdAt"`
	Deleted     bool       `json:"deleted"`
	DeletedAt   *time.Time `json:"deletedAt,omitempty"`
}

var ErrEmptyID = errors.New("id задачи не может быть пустым")
var ErrEmptyTitle = errors.New("название задачи не может быть пустым")

// New собирает активную задачу; title и description обрезаются по краям
func New(id, title, description string, dueDate *time.Time, now time.Time) (Task, error) {
	t := Task{
		ID:          id,
		Title:       strings.TrimSpace(title),
		Description: strings.TrimSpace(description),
		DueDate:     dueDate,
		CreatedAt:   now,
	}
	if err := t.Validate(); err != nil {
		return Task{}, err
	}
	return t, nil
}

func (t Task) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return ErrEmptyID
	}
	if strings.TrimSpace(t.Title) == "" {
		return ErrEmptyTitle
	}
	return nil
}

// Active - задача не в корзине
func (t Task) Active() bool {
	return !t.Deleted
}

// Expired - срок вышел, а задача не выполнена
func (t Task) Expired(now time.Time) bool {
	return !t.Completed && t.DueDate != nil && t.DueDate.Before(now)
}
