package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	gormsqlite "github.com/glebarez/sqlite"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"appreview/internal/bootstrap/config"
	"appreview/internal/bootstrap/logging"
	"appreview/internal/errs"
)

func Open(ctx context.Context, cfg config.DatabaseConfig) (*gorm.DB, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, errs.Wrap(err, "check context")
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.database"))

	switch strings.ToLower(cfg.Driver) {
	case "sqlite", "sqlite3":
		if err := ensureSQLiteDirectory(logCtx, cfg.DSN); err != nil {
			return nil, errs.Wrap(errs.WithStack(err), "ensure sqlite directory")
		}

		db, err := gorm.Open(gormsqlite.Open(cfg.DSN), gormConfig())
		if err != nil {
			return nil, errs.Wrap(errs.WithStack(err), "open sqlite db")
		}
		// SQLite has a single writer.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, errs.Wrap(errs.WithStack(err), "get sql db")
		}
		sqlDB.SetMaxOpenConns(1)
		logging.Info(logCtx, "database opened", slog.String("driver", "sqlite"), slog.String("dsn", cfg.DSN))
		return db, nil
	case "mysql":
		db, err := gorm.Open(gormmysql.Open(withMySQLDefaults(cfg.DSN)), gormConfig())
		if err != nil {
			return nil, errs.Wrap(errs.WithStack(err), "open mysql db")
		}
		logging.Info(logCtx, "database opened", slog.String("driver", "mysql"))
		return db, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func gormConfig() *gorm.Config {
	return &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	}
}

// withMySQLDefaults makes DATETIME and utf8mb4 handling explicit unless the DSN already does.
func withMySQLDefaults(dsn string) string {
	params := []string{"parseTime=true", "charset=utf8mb4"}
	separator := "?"
	if strings.Contains(dsn, "?") {
		separator = "&"
	}
	for _, param := range params {
		key := param[:strings.Index(param, "=")+1]
		if strings.Contains(dsn, key) {
			continue
		}
		dsn += separator + param
		separator = "&"
	}
	return dsn
}

func ensureSQLiteDirectory(ctx context.Context, dsn string) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}

	candidate := strings.TrimSpace(dsn)
	if candidate == "" || candidate == ":memory:" {
		return nil
	}

	if strings.HasPrefix(strings.ToLower(candidate), "file:") {
		candidate = strings.TrimPrefix(candidate, "file:")
	}
	if idx := strings.Index(candidate, "?"); idx >= 0 {
		candidate = candidate[:idx]
	}

	dir := filepath.Dir(candidate)
	if dir == "" || dir == "." {
		return nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errs.Wrapf(err, "create sqlite directory %q", dir)
	}

	logging.Info(logging.WithAttrs(ctx, slog.String("component", "bootstrap.database")), "sqlite directory ensured", slog.String("dir", dir))
	return nil
}
