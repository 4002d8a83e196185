package task

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

type Filter string

const FilterAll Filter = "all"
const FilterActive Filter = "active"
const FilterExpired Filter = "expired"
const FilterDone Filter = "done"

// старые клиенты присылают фильтр с опечаткой
const filterExpiredLegacy = "exprired"

func ParseFilter(raw string) (Filter, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", string(FilterAll):
		return FilterAll, nil
	case string(FilterActive):
		return FilterActive, nil
	case string(FilterExpired), filterExpiredLegacy:
		return FilterExpired, nil
	case string(FilterDone):
		return FilterDone, nil
	default:
		return "", fmt.Errorf("неизвестный фильтр %q", raw)
	}
}

func (f Filter) Match(t Task, now time.Time) bool {
	switch f {
	case FilterActive:
		return !t.Completed
	case FilterExpired:
		return t.Expired(now)
	case FilterDone:
		return t.Completed
	default:
		return true
	}
}

// Apply возвращает подходящие задачи, сохраняя исходный порядок
func Apply(f Filter, tasks []Task, now time.Time) []Task {
	res := []Task{}
	for _, t := range tasks {
		if f.Match(t, now) {
			res = append(res, t)
		}
	}
	return res
}

// SortByCreated - новые сверху
func SortByCreated(tasks []Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
	})
}

// SortByDue - ближайший срок сверху, задачи без срока в конце
func SortByDue(tasks []Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := tasks[i].DueDate, tasks[j].DueDate
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.Before(*b)
		}
	})
}
