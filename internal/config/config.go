package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const (
	StoreMemory = "memory"
	StoreMySQL  = "mysql"

	defaultHTTPPort       = "3001"
	defaultRequestTimeout = 3 * time.Second
)

//----------------------
// Config struct
//----------------------

type DBConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

type Config struct {
	HTTPAddr       string   `yaml:"http_addr"`
	MetricsAddr    string   `yaml:"metrics_addr"`
	GRPCHealthAddr string   `yaml:"grpc_health_addr"`
	Store          string   `yaml:"store"`
	DB             DBConfig `yaml:"db"`
	TracingStdout  bool     `yaml:"tracing_stdout"`
	LogLevel       string   `yaml:"log_level"`

	CORSAllowOrigin string `yaml:"cors_allow_origin"`

	// YAML では "5s" のような文字列で書く
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// Default は何も指定されなかったときの設定。
func Default() Config {
	return Config{
		HTTPAddr:       ":" + defaultHTTPPort,
		MetricsAddr:    ":9464",
		GRPCHealthAddr: ":50051",
		Store:          StoreMemory,
		DB: DBConfig{
			Host:     "127.0.0.1",
			Port:     "3306",
			User:     "root",
			Password: "root",
			Name:     "tasksdb",
		},
		LogLevel:        "info",
		CORSAllowOrigin: "*",
		RequestTimeout:  defaultRequestTimeout,
	}
}

// Load は Default → TASKS_CONFIG の YAML → 環境変数 の順で上書きする。
// 値の不正は warn してデフォルトに落とす。ファイルが読めないときだけエラー。
func Load(logger *zap.Logger) (Config, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	cfg := Default()

	if path := os.Getenv("TASKS_CONFIG"); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
		logger.Info("loaded config file", zap.String("path", path))
	}

	applyEnv(&cfg, logger)
	normalize(&cfg, logger)

	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config, logger *zap.Logger) {
	// PORT は元々の起動方法との互換用。HTTP_ADDR があればそちらが優先
	if port := os.Getenv("PORT"); port != "" {
		if _, err := strconv.ParseUint(port, 10, 16); err != nil {
			logger.Warn("invalid PORT, ignored",
				zap.String("raw", port),
				zap.Error(err),
			)
		} else {
			cfg.HTTPAddr = ":" + port
		}
	}
	cfg.HTTPAddr = getenv("HTTP_ADDR", cfg.HTTPAddr)

	cfg.MetricsAddr = lookupenv("METRICS_ADDR", cfg.MetricsAddr)
	cfg.GRPCHealthAddr = lookupenv("GRPC_HEALTH_ADDR", cfg.GRPCHealthAddr)
	cfg.Store = getenv("TASK_STORE", cfg.Store)
	cfg.LogLevel = getenv("LOG_LEVEL", cfg.LogLevel)
	cfg.CORSAllowOrigin = getenv("CORS_ALLOW_ORIGIN", cfg.CORSAllowOrigin)

	cfg.DB.Host = getenv("DB_HOST", cfg.DB.Host)
	cfg.DB.Port = getenv("DB_PORT", cfg.DB.Port)
	cfg.DB.User = getenv("DB_USER", cfg.DB.User)
	cfg.DB.Password = getenv("DB_PASSWORD", cfg.DB.Password)
	cfg.DB.Name = getenv("DB_NAME", cfg.DB.Name)

	if raw := os.Getenv("OTEL_TRACES_STDOUT"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			logger.Warn("invalid OTEL_TRACES_STDOUT, fallback to false",
				zap.String("raw", raw),
				zap.Error(err),
			)
			v = false
		}
		cfg.TracingStdout = v
	}

	// timeout は parse が必要なので、まず文字列で読む
	if raw := os.Getenv("HTTP_REQUEST_TIMEOUT"); raw != "" {
		timeout, err := time.ParseDuration(raw)
		if err != nil {
			// 起動失敗にせず、warn して安全なデフォルトに落とす
			logger.Warn("invalid HTTP_REQUEST_TIMEOUT, fallback to default",
				zap.String("raw", raw),
				zap.Duration("default", defaultRequestTimeout),
				zap.Error(err),
			)
			timeout = defaultRequestTimeout
		}
		cfg.RequestTimeout = timeout
	}
}

func normalize(cfg *Config, logger *zap.Logger) {
	switch cfg.Store {
	case StoreMemory, StoreMySQL:
	default:
		logger.Warn("unknown TASK_STORE, fallback to memory", zap.String("raw", cfg.Store))
		cfg.Store = StoreMemory
	}

	if cfg.RequestTimeout < 0 {
		logger.Warn("negative request timeout, fallback to default",
			zap.Duration("raw", cfg.RequestTimeout),
		)
		cfg.RequestTimeout = defaultRequestTimeout
	}

	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":" + defaultHTTPPort
	}
}

// MySQLDSN は go-sql-driver/mysql 用の DSN を組み立てる。
func (c DBConfig) MySQLDSN() string {
	return fmt.Sprintf(
		"%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4&timeout=5s",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Name,
	)
}

//----------------------
// getenv ヘルパ
//----------------------

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// 空文字を「無効化」として扱いたいキー用
func lookupenv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}
