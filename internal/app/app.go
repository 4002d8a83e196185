package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"todoTracker/internal/config"
	"todoTracker/internal/handlers"
	"todoTracker/internal/kv"
	"todoTracker/internal/kv/inmemory"
	"todoTracker/internal/kv/postgres"
	"todoTracker/internal/kv/sqlite"
	"todoTracker/internal/logger"
	"todoTracker/internal/middleware"
	"todoTracker/internal/repository/prefs"
	"todoTracker/internal/repository/tasks"
	"todoTracker/internal/service"
	"todoTracker/internal/worker"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type App struct {
	config    *config.Config
	server    *http.Server
	router    *chi.Mux
	store     kv.Store
	service   *service.TaskService
	janitor   *worker.TrashJanitor
	shutdowns []func() // выполняются в обратном порядке
}

func New(cfg *config.Config) *App {
	return &App{
		config:    cfg,
		shutdowns: make([]func(), 0),
	}
}

func (a *App) Init(ctx context.Context) (*App, error) {
	if err := logger.Init(a.config.Logging.Development); err != nil {
		return nil, fmt.Errorf("инициализация логгера: %w", err)
	}

	a.shutdowns = append(a.shutdowns, func() {
		logger.Info("Завершение работы логгирования...")
		logger.Sync()
	})

	store, err := openStore(ctx, a.config.Storage)
	if err != nil {
		a.Shutdown()
		return nil, fmt.Errorf("инициализация хранилища: %w", err)
	}
	a.store = store
	a.shutdowns = append(a.shutdowns, func() {
		if err := store.Close(); err != nil {
			logger.Warn("Ошибка закрытия хранилища", zap.Error(err))
		}
	})

	svc := service.NewTaskService(tasks.New(store), prefs.New(store))
	a.service = &svc

	interval := a.config.Worker.Interval
	a.janitor = worker.NewTrashJanitor(a.service, &interval, a.config.Worker.Retention)

	a.router = a.buildRouter()
	a.server = &http.Server{
		Addr:         a.config.GetServerAddr(),
		Handler:      otelhttp.NewHandler(a.router, "todoTracker"),
		ReadTimeout:  a.config.Server.ReadTimeout,
		WriteTimeout: a.config.Server.WriteTimeout,
	}

	logger.Info("Приложение инициализировано",
		zap.String("storage", a.config.Storage.Type),
		zap.String("addr", a.server.Addr))
	return a, nil
}

func openStore(ctx context.Context, cfg config.StorageConfig) (kv.Store, error) {
	switch cfg.Type {
	case kv.TypeInMemory:
		return inmemory.New(), nil
	case kv.TypeSQLite:
		return sqlite.New(ctx, cfg.SQLitePath)
	case kv.TypePostgres:
		if err := postgres.Migrate(cfg.PostgresURL); err != nil {
			return nil, err
		}
		return postgres.New(ctx, cfg.PostgresURL, postgres.Options{
			MaxConns:        cfg.MaxConnections,
			MinConns:        cfg.MinConnections,
			MaxConnIdleTime: cfg.IdleTimeout,
		})
	default:
		return nil, fmt.Errorf("неизвестный тип хранилища %q", cfg.Type)
	}
}

func (a *App) buildRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: a.config.Cors.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID", "X-RateLimit-Remaining"},
		MaxAge:         300,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(middleware.Timeout(a.config.Server.RequestTimeout))
	r.Use(middleware.RateLimit(a.config.Server.RateLimit))

	handler := handlers.NewTaskHandler(a.service)
	handler.Register(r)

	return r
}

// Handler отдаёт роутер без сетевого слоя, удобно для тестов
func (a *App) Handler() http.Handler {
	return a.router
}

// Run держит сервер и воркер, пока не отменят ctx или один из них не упадёт
func (a *App) Run(ctx context.Context) error {
	defer a.Shutdown()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Сервер запущен", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http сервер: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		a.janitor.Start(gctx)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Остановка сервера...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.config.Server.ShutdownTimeout)
		defer cancel()

		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("остановка сервера: %w", err)
		}
		return nil
	})

	return g.Wait()
}

func (a *App) Shutdown() {
	for i := len(a.shutdowns) - 1; i >= 0; i-- {
		a.shutdowns[i]()
	}
	a.shutdowns = nil
}
