package task

import (
	"strings"
	"time"
)

// Patch - частичное обновление задачи, nil поле значит "оставить как есть".
// ID, CreatedAt и флаг корзины через Patch не меняются.
type Patch struct {
	Title        *string    `json:"title,omitempty"`
	Description  *string    `json:"description,omitempty"`
	DueDate      *time.Time `json:"dueDate,omitempty"`
	ClearDueDate bool       `json:"clearDueDate,omitempty"`
	Completed    *bool      `json:"completed,omitempty"`
}

func (p Patch) WithTitle(title string) Patch {
	p.Title = &title
	return p
}

func (p Patch) WithDescription(description string) Patch {
	p.Description = &description
	return p
}

func (p Patch) WithDueDate(dueDate time.Time) Patch {
	p.DueDate = &dueDate
	p.ClearDueDate = false
	return p
}

func (p Patch) WithoutDueDate() Patch {
	p.DueDate = nil
	p.ClearDueDate = true
	return p
}

func (p Patch) WithCompleted(completed bool) Patch {
	p.Completed = &completed
	return p
}

func (p Patch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.DueDate == nil && !p.ClearDueDate && p.Completed == nil
}

// Normalize обрезает текстовые поля так же, как при создании задачи
func (p Patch) Normalize() Patch {
	if p.Title != nil {
		title := strings.TrimSpace(*p.Title)
		p.Title = &title
	}
	if p.Description != nil {
		description := strings.TrimSpace(*p.Description)
		p.Description = &description
	}
	return p
}

func (p Patch) Validate() error {
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return ErrEmptyTitle
	}
	return nil
}

// Apply переносит заданные поля на задачу
func (p Patch) Apply(t *Task) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.ClearDueDate {
		t.DueDate = nil
	}
	if p.DueDate != nil {
		dueDate := *p.DueDate
		t.DueDate = &dueDate
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
}
