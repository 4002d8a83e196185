package prefs

import (
	"context"
	"errors"
	"fmt"
	"todoTracker/internal/kv"
	"todoTracker/internal/logger"
	"todoTracker/internal/models/settings"

	"go.uber.org/zap"
)

const ThemeKey = "theme"

type Storage struct {
	kv kv.Store
}

func New(store kv.Store) *Storage {
	return &Storage{kv: store}
}

// Theme читается по возможности: при любой проблеме возвращаем светлую тему
func (s *Storage) Theme(ctx context.Context) settings.Theme {
	data, err := s.kv.Get(ctx, ThemeKey)
	if err != nil {
		if !errors.Is(err, kv.ErrNotFound) {
			logger.Warn("Repository: Тема не прочитана", zap.Error(err))
		}
		return settings.DefaultTheme
	}

	theme, err := settings.ParseTheme(string(data))
	if err != nil {
		logger.Warn("Repository: В хранилище неизвестная тема", zap.String("theme", string(data)))
		return settings.DefaultTheme
	}
	return theme
}

func (s *Storage) SetTheme(ctx context.Context, theme settings.Theme) error {
	if err := s.kv.Set(ctx, ThemeKey, []byte(theme)); err != nil {
		return fmt.Errorf("сохранение темы: %w", err)
	}
	return nil
}
