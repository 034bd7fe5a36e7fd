package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Config struct {
	User           string        `env:"POSTGRES_USER,default=postgres"`
	Password       string        `env:"POSTGRES_PASSWORD,default=postgres"`
	Host           string        `env:"POSTGRES_HOST,default=postgres"`
	Port           string        `env:"POSTGRES_PORT,default=5432"`
	Database       string        `env:"POSTGRES_DB,default=collablink"`
	MaxRetries     int           `env:"DB_MAX_RETRIES,default=10"`
	RetryDelay     time.Duration `env:"DB_RETRY_DELAY,default=2s"`
	LogLevelString string        `env:"DB_LOG_LEVEL,default=warn"`
	LogLevel       logger.LogLevel
}

func LoadConfigFromEnv(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env config: %w", err)
	}
	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	cfg.LogLevel = ParseLogLevel(cfg.LogLevelString)
	return &cfg, nil
}

func validateConfig(cfg *Config) error {
	var errs []string

	if strings.TrimSpace(cfg.User) == "" {
		errs = append(errs, "POSTGRES_USER is required")
	}
	if strings.TrimSpace(cfg.Database) == "" {
		errs = append(errs, "POSTGRES_DB is required")
	}
	if strings.TrimSpace(cfg.Host) == "" {
		errs = append(errs, "POSTGRES_HOST is required")
	}
	if port, err := strconv.Atoi(cfg.Port); err != nil {
		errs = append(errs, "POSTGRES_PORT must be a valid number")
	} else if port < 1 || port > 65535 {
		errs = append(errs, "POSTGRES_PORT must be between 1 and 65535")
	}
	if cfg.MaxRetries < 1 {
		errs = append(errs, "DB_MAX_RETRIES must be at least 1")
	}
	if cfg.RetryDelay <= 0 {
		errs = append(errs, "DB_RETRY_DELAY must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

// ConnectDB establishes the PostgreSQL connection, retrying while the
// database comes up.
func ConnectDB(cfg *Config, log *slog.Logger) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		cfg.Host, cfg.User, cfg.Password, cfg.Database, cfg.Port,
	)

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(cfg.LogLevel),
	}

	var lastErr error
	for i := 0; i < cfg.MaxRetries; i++ {
		log.Info("connecting to database",
			slog.Int("attempt", i+1),
			slog.Int("max_attempts", cfg.MaxRetries),
			slog.String("host", cfg.Host))

		gdb, err := gorm.Open(postgres.Open(dsn), gormConfig)
		if err == nil {
			sqlDB, dbErr := gdb.DB()
			if dbErr == nil {
				pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				pingErr := sqlDB.PingContext(pingCtx)
				cancel()

				if pingErr == nil {
					sqlDB.SetMaxIdleConns(10)
					sqlDB.SetMaxOpenConns(50)
					sqlDB.SetConnMaxLifetime(time.Hour)
					log.Info("database connected")
					return gdb, nil
				}
				err = pingErr
			} else {
				err = dbErr
			}
		}

		lastErr = err
		log.Warn("database connection attempt failed",
			slog.String("error", simplifyDBError(err)),
			slog.Duration("retry_in", cfg.RetryDelay))
		time.Sleep(cfg.RetryDelay)
	}

	return nil, fmt.Errorf("database connection failed after %d attempts: %w", cfg.MaxRetries, lastErr)
}

func simplifyDBError(err error) string {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "password authentication failed"):
		return "invalid database credentials"
	case strings.Contains(msg, "connect"):
		return "cannot reach database server"
	case strings.Contains(msg, "timeout"):
		return "database connection timed out"
	}
	return msg
}

func ParseLogLevel(levelStr string) logger.LogLevel {
	switch strings.ToLower(levelStr) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "warn":
		return logger.Warn
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}

// MigrateModels auto-migrates the given models. Production startup runs
// the embedded goose migrations instead; this path is used by
// sqlite-backed tests.
func MigrateModels(db *gorm.DB, models ...any) error {
	if err := db.AutoMigrate(models...); err != nil {
		return fmt.Errorf("auto-migration failed: %w", err)
	}
	return nil
}
