package inmemory

import (
	"context"
	"sync"
	"todoTracker/internal/kv"
	"todoTracker/internal/logger"
)

type Storage struct {
	storage map[string][]byte
	mtx     *sync.RWMutex
}

func New() *Storage {
	return &Storage{
		storage: make(map[string][]byte),
		mtx:     &sync.RWMutex{},
	}
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	logger.Info("KV: In-memory хранилище доступно")
	return nil
}

func (s *Storage) Get(ctx context.Context, key string) ([]byte, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	value, ok := s.storage[key]
	if !ok {
		return nil, kv.ErrNotFound
	}
	return clone(value), nil
}

func (s *Storage) Set(ctx context.Context, key string, value []byte) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	s.storage[key] = clone(value)
	return nil
}

func (s *Storage) Clear(ctx context.Context) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	s.storage = make(map[string][]byte)
	return nil
}

func (s *Storage) Close() error {
	return nil
}

// наружу отдаём только копии, чтобы вызывающий не менял хранилище в обход Set
func clone(value []byte) []byte {
	res := make([]byte, len(value))
	copy(res, value)
	return res
}
