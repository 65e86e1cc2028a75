// Package db はレコードストア（gorm）への接続を提供します。
package db

import (
	"fmt"
	"log/slog"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"flowchart_backend/internal/config"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// retryInterval は接続リトライの間隔です。テストで短縮します。
var retryInterval = 3 * time.Second

// Opener はDSNからDB接続を開く関数です。
type Opener func(dsn string) (*gorm.DB, error)

// Dialector はドライバー名に対応する gorm.Dialector を返します。
func Dialector(driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case DriverPostgres:
		return postgres.Open(dsn), nil
	case DriverSQLite:
		return sqlite.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// NewOpener は指定ドライバー用の Opener を返します。
// 一意制約違反を gorm.ErrDuplicatedKey に変換するため TranslateError を有効にします。
func NewOpener(driver string) Opener {
	return func(dsn string) (*gorm.DB, error) {
		d, err := Dialector(driver, dsn)
		if err != nil {
			return nil, err
		}
		return gorm.Open(d, &gorm.Config{TranslateError: true})
	}
}

// ConnectWithRetry は timeout に達するまで接続をリトライします。
func ConnectWithRetry(dsn string, timeout time.Duration, open Opener) (*gorm.DB, error) {
	deadline := time.Now().Add(timeout)
	for {
		db, err := open(dsn)
		if err == nil {
			return db, nil
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("db connect failed after %s: %w", timeout, err)
		}
		slog.Warn("db connect failed, retrying", "error", err)
		time.Sleep(retryInterval)
	}
}

// Open は設定に従って接続し、必要ならマイグレーションを実行します。
// models には AutoMigrate 対象のエンティティを渡します。
func Open(cfg config.Database, models ...any) (*gorm.DB, error) {
	if _, err := Dialector(cfg.Driver, cfg.DSN); err != nil {
		return nil, err
	}

	db, err := ConnectWithRetry(cfg.DSN, cfg.ConnectTimeout, NewOpener(cfg.Driver))
	if err != nil {
		return nil, err
	}

	if cfg.Driver == DriverSQLite {
		// :memory: はコネクションごとに別DBになるため1本に制限
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get sql.DB: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if cfg.AutoMigrate && len(models) > 0 {
		if err := db.AutoMigrate(models...); err != nil {
			return nil, fmt.Errorf("failed to migrate: %w", err)
		}
	}

	slog.Info("db connected", "driver", cfg.Driver)
	return db, nil
}
