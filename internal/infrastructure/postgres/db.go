package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/sanosuguru/go-flight-booking/internal/config"
)

// 接続プール設定
const (
	maxOpenConns    = 25
	maxIdleConns    = 5
	connMaxLifetime = 30 * time.Minute
)

// NewConnection はPostgreSQLへの接続を作成する
func NewConnection(cfg *config.DatabaseConfig) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("データベース接続に失敗しました: %w", translateError(err))
	}

	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)

	return db, nil
}

// Ping はデータベース接続を確認する
func Ping(ctx context.Context, db *sqlx.DB) error {
	return translateError(db.PingContext(ctx))
}
