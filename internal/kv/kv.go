// Package kv описывает хранилище ключ-значение, поверх которого живут задачи и настройки.
// Каждый вызов атомарен сам по себе, транзакций между ключами нет.
package kv

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("ключ не найден")

type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Clear(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Close() error
}

const TypeInMemory = "inmemory"
const TypeSQLite = "sqlite"
const TypePostgres = "postgres"
