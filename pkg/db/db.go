// Package db 提供 GORM 初始化（MySQL/PostgreSQL）、连接池配置与 slog 适配的 SQL 日志
package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wyfcoding/portfolioservice/pkg/config"
	pkgLogger "github.com/wyfcoding/portfolioservice/pkg/logger"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB 数据库实例包装
type DB struct {
	*gorm.DB
}

// Dialector 按驱动名称选择 GORM 方言
func Dialector(driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case "mysql":
		return mysql.Open(dsn), nil
	case "postgres":
		return postgres.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}
}

// Init 初始化数据库连接并校验连通性
func Init(ctx context.Context, cfg config.DatabaseConfig) (*DB, error) {
	dialector, err := Dialector(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, err
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{
		Logger: NewSQLLogger(cfg.LogEnabled, cfg.SlowQueryThreshold),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	pkgLogger.Info(ctx, "Database connected successfully", "driver", cfg.Driver)
	return &DB{DB: gdb}, nil
}

// Close 关闭数据库连接
func (d *DB) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// SQLLogger 将 GORM 日志转发到 pkg/logger
type SQLLogger struct {
	verbose       bool
	slowThreshold time.Duration
}

// NewSQLLogger 创建 GORM 日志记录器
func NewSQLLogger(verbose bool, slowThreshold time.Duration) *SQLLogger {
	return &SQLLogger{
		verbose:       verbose,
		slowThreshold: slowThreshold,
	}
}

// LogMode 日志级别由 pkg/logger 统一控制
func (l *SQLLogger) LogMode(logger.LogLevel) logger.Interface {
	return l
}

func (l *SQLLogger) Info(ctx context.Context, msg string, data ...any) {
	if l.verbose {
		pkgLogger.Info(ctx, msg, "data", data)
	}
}

func (l *SQLLogger) Warn(ctx context.Context, msg string, data ...any) {
	pkgLogger.Warn(ctx, msg, "data", data)
}

func (l *SQLLogger) Error(ctx context.Context, msg string, data ...any) {
	pkgLogger.Error(ctx, msg, "data", data)
}

// Trace 记录 SQL 执行；失败与慢查询始终输出
func (l *SQLLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	elapsed := time.Since(begin)
	slow := l.slowThreshold > 0 && elapsed > l.slowThreshold
	failed := err != nil && !errors.Is(err, gorm.ErrRecordNotFound)
	if !l.verbose && !slow && !failed {
		return
	}

	sqlStr, rows := fc()
	args := []any{"duration", elapsed, "rows", rows, "sql", sqlStr}

	switch {
	case failed:
		pkgLogger.Error(ctx, "sql failed", append(args, "error", err)...)
	case slow:
		pkgLogger.Warn(ctx, "slow query", args...)
	default:
		pkgLogger.Debug(ctx, "sql executed", args...)
	}
}
