package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sanosuguru/go-flight-booking/internal/domain/booking"
	"github.com/sanosuguru/go-flight-booking/internal/domain/flight"
	"github.com/sanosuguru/go-flight-booking/internal/domain/reservation"
)

// MockBookingService はBookingServiceInterfaceのモック
type MockBookingService struct {
	mock.Mock
}

func (m *MockBookingService) BookFlight(ctx context.Context, flightID, customerID int64) (*reservation.Reservation, error) {
	args := m.Called(ctx, flightID, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reservation.Reservation), args.Error(1)
}

func newBookingRequest(e *echo.Echo, fnum, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/flights/"+fnum+"/bookings", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/api/v1/flights/:fnum/bookings")
	c.SetParamNames("fnum")
	c.SetParamValues(fnum)
	return c, rec
}

func TestBookingHandler_Book(t *testing.T) {
	e := NewTestEcho()

	t.Run("確定予約は201", func(t *testing.T) {
		mockService := new(MockBookingService)
		now := time.Now().UTC().Truncate(time.Second)
		mockService.On("BookFlight", mock.Anything, int64(1001), int64(42)).
			Return(&reservation.Reservation{Number: 7, CustomerID: 42, FlightID: 1001, Status: reservation.StatusConfirmed, CreatedAt: now}, nil).Once()

		c, rec := newBookingRequest(e, "1001", `{"customer_id": 42}`)
		err := NewBookingHandler(mockService).Book(c)

		require.NoError(t, err)
		assert.Equal(t, http.StatusCreated, rec.Code)

		var resp BookingResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, int64(7), resp.ReservationNumber)
		assert.Equal(t, "confirmed", resp.Status)
		assert.Equal(t, "R", resp.StatusCode)
		mockService.AssertExpectations(t)
	})

	t.Run("キャンセル待ちも201", func(t *testing.T) {
		mockService := new(MockBookingService)
		mockService.On("BookFlight", mock.Anything, int64(1001), int64(43)).
			Return(&reservation.Reservation{Number: 8, CustomerID: 43, FlightID: 1001, Status: reservation.StatusWaitlisted}, nil).Once()

		c, rec := newBookingRequest(e, "1001", `{"customer_id": 43}`)
		require.NoError(t, NewBookingHandler(mockService).Book(c))

		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Contains(t, rec.Body.String(), `"status":"waitlisted"`)
		assert.Contains(t, rec.Body.String(), `"status_code":"W"`)
	})

	t.Run("入力不正は400", func(t *testing.T) {
		tests := []struct {
			name string
			fnum string
			body string
		}{
			{"便名が数値でない", "abc", `{"customer_id": 1}`},
			{"便名が0", "0", `{"customer_id": 1}`},
			{"顧客IDなし", "1001", `{}`},
			{"顧客IDが負", "1001", `{"customer_id": -1}`},
			{"JSONが壊れている", "1001", `{"customer_id":`},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				mockService := new(MockBookingService)
				c, _ := newBookingRequest(e, tt.fnum, tt.body)

				err := NewBookingHandler(mockService).Book(c)

				require.Error(t, err)
				he, ok := err.(*echo.HTTPError)
				require.True(t, ok)
				assert.Equal(t, http.StatusBadRequest, he.Code)
				mockService.AssertNotCalled(t, "BookFlight", mock.Anything, mock.Anything, mock.Anything)
			})
		}
	})

	t.Run("エラー種別ごとのステータス", func(t *testing.T) {
		tests := []struct {
			name     string
			err      error
			expected int
		}{
			{"便が存在しない", flight.ErrFlightNotFound, http.StatusNotFound},
			{"機体未割り当て", flight.ErrPlaneNotAssigned, http.StatusNotFound},
			{"競合が解消しない", fmt.Errorf("リトライ上限に達しました: %w", booking.ErrConflict), http.StatusConflict},
			{"ストレージ停止", booking.ErrUnavailable, http.StatusServiceUnavailable},
			{"タイムアウト", booking.ErrTimeout, http.StatusGatewayTimeout},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				mockService := new(MockBookingService)
				mockService.On("BookFlight", mock.Anything, int64(1001), int64(42)).Return(nil, tt.err).Once()

				c, _ := newBookingRequest(e, "1001", `{"customer_id": 42}`)
				err := NewBookingHandler(mockService).Book(c)

				require.Error(t, err)
				he, ok := err.(*echo.HTTPError)
				require.True(t, ok)
				assert.Equal(t, tt.expected, he.Code)
			})
		}
	})
}

func TestBookingHandler_Routed(t *testing.T) {
	e := NewTestEcho()
	mockService := new(MockBookingService)
	mockService.On("BookFlight", mock.Anything, int64(1001), int64(42)).Return(nil, booking.ErrTimeout).Once()
	e.POST("/api/v1/flights/:fnum/bookings", NewBookingHandler(mockService).Book)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/flights/1001/bookings", strings.NewReader(`{"customer_id": 42}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":504`)
}
