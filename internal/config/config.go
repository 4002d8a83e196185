package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
	"todoTracker/internal/kv"

	"gopkg.in/yaml.v3"
)

const DefaultPath = "config.yml"

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Logging LoggingConfig `yaml:"logging"`
	Worker  WorkerConfig  `yaml:"worker"`
	Cors    CorsConfig    `yaml:"cors"`
}

type ServerConfig struct {
	Port            string        `yaml:"port"`
	Host            string        `yaml:"host"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	RateLimit       int           `yaml:"rate_limit"` // запросов в минуту с одного IP, 0 - без лимита
}

type StorageConfig struct {
	Type           string        `yaml:"type"` // "inmemory", "sqlite" или "postgres"
	SQLitePath     string        `yaml:"sqlite_path"`
	PostgresURL    string        `yaml:"postgres_url"`
	MaxConnections int32         `yaml:"max_connections"`
	MinConnections int32         `yaml:"min_connections"`
	IdleTimeout    time.Duration `yaml:"idle_timeout"`
}

type LoggingConfig struct {
	Development bool `yaml:"development"`
}

type WorkerConfig struct {
	Interval  time.Duration `yaml:"interval"`
	Retention time.Duration `yaml:"retention"` // 0 - корзина не чистится
}

type CorsConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            "8080",
			Host:            "",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			RequestTimeout:  15 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			RateLimit:       100,
		},
		Storage: StorageConfig{
			Type:       kv.TypeSQLite,
			SQLitePath: "data/todo.db",
		},
		Worker: WorkerConfig{
			Interval:  time.Hour,
			Retention: 30 * 24 * time.Hour,
		},
		Cors: CorsConfig{
			AllowedOrigins: []string{"*"},
		},
	}
}

// Load читает YAML поверх значений по умолчанию и применяет переменные TODO_*.
// Отсутствие файла по умолчанию не ошибка, явно указанного - ошибка.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	file, err := os.Open(path)
	switch {
	case err == nil:
		defer file.Close()
		decoder := yaml.NewDecoder(file)
		decoder.KnownFields(true)
		if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("ошибка парсинга %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
		// файла нет - работаем на значениях по умолчанию
	default:
		return nil, fmt.Errorf("не могу открыть %s: %w", path, err)
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}
	dur := func(key string, dst *time.Duration) error {
		v, ok := lookup(key)
		if !ok {
			return nil
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("переменная %s: %w", key, err)
		}
		*dst = d
		return nil
	}

	str("TODO_SERVER_HOST", &c.Server.Host)
	str("TODO_SERVER_PORT", &c.Server.Port)
	str("TODO_STORAGE_TYPE", &c.Storage.Type)
	str("TODO_SQLITE_PATH", &c.Storage.SQLitePath)
	str("TODO_POSTGRES_URL", &c.Storage.PostgresURL)

	if v, ok := lookup("TODO_LOG_DEVELOPMENT"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("переменная TODO_LOG_DEVELOPMENT: %w", err)
		}
		c.Logging.Development = b
	}
	if v, ok := lookup("TODO_CORS_ORIGINS"); ok {
		c.Cors.AllowedOrigins = splitList(v)
	}

	if err := dur("TODO_WORKER_INTERVAL", &c.Worker.Interval); err != nil {
		return err
	}
	return dur("TODO_TRASH_RETENTION", &c.Worker.Retention)
}

func splitList(raw string) []string {
	res := []string{}
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			res = append(res, p)
		}
	}
	return res
}

func (c *Config) Validate() error {
	switch c.Storage.Type {
	case kv.TypeInMemory:
	case kv.TypeSQLite:
		if c.Storage.SQLitePath == "" {
			return errors.New("storage.sqlite_path обязателен для sqlite")
		}
	case kv.TypePostgres:
		if c.Storage.PostgresURL == "" {
			return errors.New("storage.postgres_url обязателен для postgres")
		}
	default:
		return fmt.Errorf("неизвестный тип хранилища %q", c.Storage.Type)
	}

	if c.Server.Port == "" {
		return errors.New("server.port не задан")
	}
	if c.Worker.Retention < 0 {
		return errors.New("worker.retention не может быть отрицательным")
	}
	return nil
}

func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}
