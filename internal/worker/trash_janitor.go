package worker

import (
	"context"
	"time"
	"todoTracker/internal/logger"

	"go.uber.org/zap"
)

type TrashPurger interface {
	PurgeExpiredTrash(ctx context.Context, retention time.Duration) (int, error)
}

// TrashJanitor периодически стирает задачи, слишком долго лежащие в корзине
type TrashJanitor struct {
	purger    TrashPurger
	interval  time.Duration
	retention time.Duration
}

func NewTrashJanitor(purger TrashPurger, interval *time.Duration, retention time.Duration) *TrashJanitor {
	var intervalToSet time.Duration
	if interval == nil || *interval <= 0 {
		intervalToSet = time.Hour
	} else {
		intervalToSet = *interval
	}

	return &TrashJanitor{
		purger:    purger,
		interval:  intervalToSet,
		retention: retention,
	}
}

// Enabled - при нулевом сроке хранения корзина не чистится
func (w *TrashJanitor) Enabled() bool {
	return w.retention > 0
}

// Start блокируется до отмены ctx
func (w *TrashJanitor) Start(ctx context.Context) {
	if !w.Enabled() {
		logger.Info("Worker: Очистка корзины отключена")
		return
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	logger.Info("Worker: Очистка корзины запущена",
		zap.Duration("interval", w.interval),
		zap.Duration("retention", w.retention))

	for {
		select {
		case <-ticker.C:
			w.Sweep(ctx)
		case <-ctx.Done():
			logger.Info("Worker: Очистка корзины останавливается")
			return
		}
	}
}

func (w *TrashJanitor) Sweep(ctx context.Context) int {
	start := time.Now()

	purged, err := w.purger.PurgeExpiredTrash(ctx, w.retention)
	if err != nil {
		logger.Warn("Worker: Ошибка очистки корзины", zap.Error(err))
		return 0
	}

	logger.Info(
		"Worker: Завершение очистки корзины",
		zap.Duration("ms", time.Since(start)),
		zap.Int("purged", purged),
	)
	return purged
}
