package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/sanosuguru/go-flight-booking/internal/domain/booking"
	"github.com/sanosuguru/go-flight-booking/internal/domain/crew"
	"github.com/sanosuguru/go-flight-booking/internal/domain/flight"
	"github.com/sanosuguru/go-flight-booking/internal/domain/plane"
	"github.com/sanosuguru/go-flight-booking/internal/domain/reservation"
	"github.com/sanosuguru/go-flight-booking/internal/pkg/logger"
)

// ErrorResponse はエラーレスポンスの統一フォーマット
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    int    `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// 入力検証で返るドメインエラー（400）
var validationErrors = []error{
	plane.ErrMakeRequired,
	plane.ErrModelRequired,
	plane.ErrInvalidAge,
	plane.ErrInvalidSeats,
	crew.ErrFullNameRequired,
	crew.ErrNationalityRequired,
	flight.ErrInvalidFlightNumber,
	flight.ErrInvalidCost,
	flight.ErrInvalidNumSold,
	flight.ErrInvalidNumStops,
	flight.ErrAirportRequired,
	flight.ErrInvalidFlightTime,
	flight.ErrOversold,
	reservation.ErrInvalidStatus,
}

// StatusOf はエラーの種別からHTTPステータスを決める
func StatusOf(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, booking.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, booking.ErrConflict), errors.Is(err, flight.ErrFlightAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, booking.ErrUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, booking.ErrTimeout):
		return http.StatusGatewayTimeout
	}
	for _, v := range validationErrors {
		if errors.Is(err, v) {
			return http.StatusBadRequest
		}
	}
	return http.StatusInternalServerError
}

// ToHTTPError はサービス層のエラーをechoのHTTPErrorに変換する
// 5xxの場合は内部の詳細を返さない
func ToHTTPError(err error) *echo.HTTPError {
	code := StatusOf(err)
	he := echo.NewHTTPError(code, err.Error()).SetInternal(err)
	if code == http.StatusInternalServerError {
		he.Message = "内部サーバーエラー"
	}
	return he
}

// CustomHTTPErrorHandler はカスタムエラーハンドラー
func CustomHTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var he *echo.HTTPError
	if !errors.As(err, &he) {
		he = ToHTTPError(err)
	}

	code := he.Code
	message, ok := he.Message.(string)
	if !ok {
		message = http.StatusText(code)
	}

	if code >= 500 {
		logger.Error("サーバーエラー",
			zap.Int("status", code),
			zap.String("path", c.Request().URL.Path),
			zap.Error(err),
		)
	}

	if err := c.JSON(code, ErrorResponse{
		Error: message,
		Code:  code,
	}); err != nil {
		logger.Error("エラーレスポンス送信失敗", zap.Error(err))
	}
}
