package transaction

import (
	"context"
	"fmt"
)

// Tx は予約台帳や便の書き込みをまとめる単位
// ドメイン層が sqlx やインメモリストアの実装に依存しないようにする
type Tx interface {
	Commit() error
	Rollback() error
}

// Manager は Tx を開始する
// 分離レベルやロック待ち上限は実装側の設定に従う
type Manager interface {
	Begin(ctx context.Context) (Tx, error)
}

// Run は fn を1つのトランザクションで実行する
// fn がエラーを返した場合やコミットに失敗した場合は書き込みを残さない
func Run(ctx context.Context, m Manager, fn func(tx Tx) error) error {
	tx, err := m.Begin(ctx)
	if err != nil {
		return fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("コミットに失敗: %w", err)
	}
	return nil
}
