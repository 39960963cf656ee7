package postgres

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"syscall"

	"github.com/lib/pq"

	"github.com/sanosuguru/go-flight-booking/internal/domain/booking"
)

// PostgreSQL のエラーコード
const (
	codeUniqueViolation      = "23505"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeLockNotAvailable     = "55P03"
	codeAdminShutdown        = "57P01"
	codeCrashShutdown        = "57P02"
	codeCannotConnectNow     = "57P03"
)

// translateError はドライバーのエラーを予約ドメインのエラー種別に変換する
// 変換対象外のエラーはそのまま返す
func translateError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", booking.ErrTimeout, err)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case codeSerializationFailure, codeDeadlockDetected, codeLockNotAvailable, codeUniqueViolation:
			return fmt.Errorf("%w: %s (%s)", booking.ErrConflict, pqErr.Message, pqErr.Code)
		case codeAdminShutdown, codeCrashShutdown, codeCannotConnectNow:
			return fmt.Errorf("%w: %s (%s)", booking.ErrUnavailable, pqErr.Message, pqErr.Code)
		}
		// クラス08は接続例外
		if pqErr.Code.Class() == "08" {
			return fmt.Errorf("%w: %s (%s)", booking.ErrUnavailable, pqErr.Message, pqErr.Code)
		}
		// クエリキャンセル（statement_timeout 等）
		if pqErr.Code == "57014" {
			return fmt.Errorf("%w: %s", booking.ErrTimeout, pqErr.Message)
		}
		return err
	}

	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return fmt.Errorf("%w: %v", booking.ErrUnavailable, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return fmt.Errorf("%w: %v", booking.ErrTimeout, err)
		}
		return fmt.Errorf("%w: %v", booking.ErrUnavailable, err)
	}

	return err
}
