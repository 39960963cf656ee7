package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sanosuguru/go-flight-booking/internal/domain/transaction"
)

// TxWrapper は sqlx.Tx を transaction.Tx インターフェースでラップする
type TxWrapper struct {
	*sqlx.Tx
}

// Commit はトランザクションをコミットする
func (t *TxWrapper) Commit() error {
	return translateError(t.Tx.Commit())
}

// Rollback はトランザクションをロールバックする
func (t *TxWrapper) Rollback() error {
	return t.Tx.Rollback()
}

// TxManager は sqlx.DB を使用したトランザクションマネージャー
// 予約トランザクションは設定した分離レベルとロック待ち上限で開始する
type TxManager struct {
	db          *sqlx.DB
	isolation   sql.IsolationLevel
	lockTimeout time.Duration
}

// NewTxManager は新しい TxManager を作成する
// lockTimeout が0以下の場合は lock_timeout を設定しない
func NewTxManager(db *sqlx.DB, isolation sql.IsolationLevel, lockTimeout time.Duration) *TxManager {
	return &TxManager{db: db, isolation: isolation, lockTimeout: lockTimeout}
}

// Begin は新しいトランザクションを開始する
func (m *TxManager) Begin(ctx context.Context) (transaction.Tx, error) {
	tx, err := m.db.BeginTxx(ctx, &sql.TxOptions{Isolation: m.isolation})
	if err != nil {
		return nil, fmt.Errorf("トランザクション開始に失敗: %w", translateError(err))
	}

	if m.lockTimeout > 0 {
		// SET LOCAL はプレースホルダを受け付けないため整数ミリ秒で組み立てる
		stmt := fmt.Sprintf("SET LOCAL lock_timeout = %d", m.lockTimeout.Milliseconds())
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			_ = tx.Rollback()
			return nil, fmt.Errorf("lock_timeout の設定に失敗: %w", translateError(err))
		}
	}

	return &TxWrapper{Tx: tx}, nil
}

// ParseIsolation は設定値を sql.IsolationLevel に変換する
// 未知の値は READ COMMITTED として扱う
// READ COMMITTED では FOR UPDATE の待機後に最新の行を読み直すため、行ロックだけで予約が直列化される
func ParseIsolation(raw string) sql.IsolationLevel {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "serializable":
		return sql.LevelSerializable
	case "repeatable_read", "repeatable read":
		return sql.LevelRepeatableRead
	default:
		return sql.LevelReadCommitted
	}
}

// UnwrapTx は transaction.Tx から sqlx.Tx を取り出す
// リポジトリ実装で使用する
func UnwrapTx(tx transaction.Tx) *sqlx.Tx {
	if wrapper, ok := tx.(*TxWrapper); ok {
		return wrapper.Tx
	}
	return nil
}

var _ transaction.Manager = (*TxManager)(nil)
