// Package sqlite хранит пары ключ-значение в локальном файле SQLite
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
	"todoTracker/internal/kv"
	"todoTracker/internal/logger"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

type Storage struct {
	db *sql.DB
}

func New(ctx context.Context, path string) (*Storage, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("создание каталога: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		logger.Error("KV: Не удалось открыть SQLite", err, zap.String("path", path))
		return nil, fmt.Errorf("открытие базы: %w", err)
	}

	// один писатель, остальные ждут
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			logger.Error("KV: Ошибка настройки SQLite", err, zap.String("pragma", pragma))
			closeQuietly(db)
			return nil, fmt.Errorf("настройка sqlite: %w", err)
		}
	}

	if err := migrate(ctx, db); err != nil {
		closeQuietly(db)
		return nil, fmt.Errorf("миграции: %w", err)
	}

	logger.Info("KV: SQLite хранилище открыто", zap.String("path", path))
	return &Storage{db: db}, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS kv_store (
			key        TEXT PRIMARY KEY,
			value      BLOB NOT NULL,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`)
	return err
}

func closeQuietly(db *sql.DB) {
	if err := db.Close(); err != nil {
		logger.Warn("KV: Ошибка закрытия SQLite", zap.Error(err))
	}
}

func (s *Storage) Close() error {
	logger.Info("KV: Закрытие SQLite")
	return s.db.Close()
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		logger.Error("KV: Неудачная проверка ping", err)
		return fmt.Errorf("проверка соединения ping: %w", err)
	}
	return nil
}

func (s *Storage) Get(ctx context.Context, key string) ([]byte, error) {
	start := time.Now()

	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv_store WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, kv.ErrNotFound
		}
		logger.Error("KV: Не удалось прочитать ключ", err, zap.String("key", key), zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("чтение ключа %s: %w", key, err)
	}

	slowQuery(start, key)
	return value, nil
}

func (s *Storage) Set(ctx context.Context, key string, value []byte) error {
	start := time.Now()

	query := `INSERT INTO kv_store (key, value, updated_at)
				VALUES (?, ?, CURRENT_TIMESTAMP)
				ON CONFLICT(key) DO UPDATE SET
					value = excluded.value,
					updated_at = excluded.updated_at`

	if _, err := s.db.ExecContext(ctx, query, key, value); err != nil {
		logger.Error("KV: Не удалось записать ключ", err, zap.String("key", key), zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("запись ключа %s: %w", key, err)
	}

	slowQuery(start, key)
	return nil
}

func (s *Storage) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv_store`); err != nil {
		logger.Error("KV: Не удалось очистить хранилище", err)
		return fmt.Errorf("очистка хранилища: %w", err)
	}
	return nil
}

func slowQuery(start time.Time, key string) {
	if time.Since(start) > time.Millisecond*50 {
		logger.Warn("KV: Медленный запрос", zap.String("key", key), zap.Duration("ms", time.Since(start)))
	}
}
