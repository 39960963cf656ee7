package booking

import "errors"

// 予約処理のエラー種別
// 各ドメインの NotFound 系エラーは ErrNotFound をラップする
var (
	ErrNotFound    = errors.New("対象が見つかりません")
	ErrConflict    = errors.New("同時更新の競合が発生しました")
	ErrUnavailable = errors.New("ストレージに接続できません")
	ErrTimeout     = errors.New("予約処理がタイムアウトしました")
)

type notFoundError struct {
	msg string
}

func (e *notFoundError) Error() string { return e.msg }

func (e *notFoundError) Is(target error) bool { return target == ErrNotFound }

// NotFound は ErrNotFound として判定される個別のエラーを作成する
func NotFound(msg string) error {
	return &notFoundError{msg: msg}
}
