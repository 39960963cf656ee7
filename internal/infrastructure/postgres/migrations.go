package postgres

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jmoiron/sqlx"
)

// RunMigrations は migrations ディレクトリのスキーマを適用する
// 適用済みの場合は何もしない
func RunMigrations(db *sqlx.DB, migrationsPath string) error {
	driver, err := postgres.WithInstance(db.DB, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("マイグレーションドライバー作成エラー: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+migrationsPath, "airline", driver)
	if err != nil {
		return fmt.Errorf("マイグレーションインスタンス作成エラー: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("マイグレーション実行エラー: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("マイグレーションバージョン取得エラー: %w", err)
	}
	if dirty {
		return fmt.Errorf("マイグレーションが不完全な状態です (version=%d)", version)
	}

	return nil
}
