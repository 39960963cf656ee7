package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/sanosuguru/go-flight-booking/internal/api"
	"github.com/sanosuguru/go-flight-booking/internal/pkg/logger"
)

// RequestLogger はリクエストの構造化ログを出力するミドルウェア
// ステータスはエラーハンドラーが書き込む前でも種別から決める
func RequestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			req := c.Request()
			res := c.Response()

			status := res.Status
			if err != nil {
				status = statusFromError(err)
			}

			requestID := req.Header.Get(echo.HeaderXRequestID)
			if requestID == "" {
				requestID = res.Header().Get(echo.HeaderXRequestID)
			}

			fields := []zap.Field{
				zap.String("request_id", requestID),
				zap.String("method", req.Method),
				zap.String("route", c.Path()),
				zap.String("path", req.URL.Path),
				zap.Int("status", status),
				zap.Int64("size", res.Size),
				zap.Duration("latency", time.Since(start)),
				zap.String("remote_ip", c.RealIP()),
			}
			if fnum := c.Param("fnum"); fnum != "" {
				fields = append(fields, zap.String("flight_id", fnum))
			}
			if err != nil {
				fields = append(fields, zap.Error(err))
			}

			switch {
			case status >= 500:
				logger.Error("サーバーエラー", fields...)
			case status >= 400:
				logger.Warn("クライアントエラー", fields...)
			default:
				logger.Info("リクエスト完了", fields...)
			}
			return err
		}
	}
}

func statusFromError(err error) int {
	if he, ok := err.(*echo.HTTPError); ok {
		return he.Code
	}
	return api.StatusOf(err)
}
