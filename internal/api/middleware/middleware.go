package middleware

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// SetupMiddleware は共通ミドルウェアを設定する
func SetupMiddleware(e *echo.Echo) {
	// リクエストID（クライアント指定がなければUUIDを採番）
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))

	// 構造化リクエストログ（zap）
	e.Use(RequestLogger())

	// パニックリカバリー
	e.Use(middleware.Recover())

	e.Use(middleware.BodyLimit("64K"))

	// CORS
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{echo.GET, echo.HEAD, echo.POST},
	}))
}
