package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanosuguru/go-flight-booking/internal/api/middleware"
	"github.com/sanosuguru/go-flight-booking/internal/config"
	"github.com/sanosuguru/go-flight-booking/internal/pkg/metrics"
)

func memoryConfig() *config.Config {
	return &config.Config{
		Env:      "test",
		Database: config.DatabaseConfig{Driver: DriverMemory},
		Booking: config.BookingConfig{
			MaxRetries: 5,
			RetryDelay: time.Millisecond,
			Timeout:    2 * time.Second,
		},
	}
}

func newMemoryServer(t *testing.T, auth *middleware.MetricsConfig) (*echo.Echo, *Components) {
	t.Helper()
	reg := prometheus.NewRegistry()
	c, err := Build(memoryConfig(), metrics.NewWithRegistry(reg))
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return NewEcho(c, reg, auth), c
}

func doJSON(t *testing.T, e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestBuild_UnknownDriver(t *testing.T) {
	cfg := memoryConfig()
	cfg.Database.Driver = "mysql"

	_, err := Build(cfg, nil)
	assert.ErrorIs(t, err, ErrUnknownDriver)
}

func TestBuild_MemoryStore(t *testing.T) {
	c, err := Build(memoryConfig(), nil)
	require.NoError(t, err)
	defer c.Close()

	assert.NotNil(t, c.Memory)
	assert.Nil(t, c.DB)
	assert.Nil(t, c.Redis)
	assert.Nil(t, c.Publisher)
	assert.Empty(t, c.HealthChecks())
}

func TestServer_BookingFlow(t *testing.T) {
	e, _ := newMemoryServer(t, nil)

	rec := doJSON(t, e, http.MethodPost, "/api/v1/planes", `{"make":"Airbus","model":"A320","age":4,"seats":2}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var p struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))

	rec = doJSON(t, e, http.MethodPost, "/api/v1/flights", fmt.Sprintf(`{
		"fnum": 501, "cost": 12000, "num_sold": 0, "num_stops": 0,
		"actual_departure_date": "2026-07-01T08:00:00Z",
		"actual_arrival_date": "2026-07-01T09:10:00Z",
		"departure_airport": "HND", "arrival_airport": "ITM", "plane_id": %d
	}`, p.ID))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	expected := []string{"confirmed", "confirmed", "waitlisted"}
	for i, want := range expected {
		rec = doJSON(t, e, http.MethodPost, "/api/v1/flights/501/bookings", fmt.Sprintf(`{"customer_id": %d}`, 100+i))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var resp struct {
			Status string `json:"status"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, want, resp.Status, "booking %d", i)
	}

	rec = doJSON(t, e, http.MethodGet, "/api/v1/flights/501/seats/available", "")
	assert.JSONEq(t, `{"flight_id":501,"seats_available":0}`, rec.Body.String())

	rec = doJSON(t, e, http.MethodGet, "/api/v1/flights/501/passengers?status=r", "")
	assert.JSONEq(t, `{"flight_id":501,"status":"confirmed","count":2}`, rec.Body.String())
	rec = doJSON(t, e, http.MethodGet, "/api/v1/flights/501/passengers?status=W", "")
	assert.JSONEq(t, `{"flight_id":501,"status":"waitlisted","count":1}`, rec.Body.String())

	rec = doJSON(t, e, http.MethodPost, "/api/v1/flights/999/bookings", `{"customer_id": 1}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, e, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `bookings_total{status="confirmed"} 2`)
	assert.Contains(t, rec.Body.String(), `bookings_total{status="waitlisted"} 1`)
	assert.Contains(t, rec.Body.String(), `bookings_total{status="not_found"} 1`)
}

func TestServer_ConcurrentBookings(t *testing.T) {
	e, c := newMemoryServer(t, nil)

	rec := doJSON(t, e, http.MethodPost, "/api/v1/planes", `{"make":"Embraer","model":"E190","age":9,"seats":5}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = doJSON(t, e, http.MethodPost, "/api/v1/flights", `{
		"fnum": 502, "cost": 9000, "num_sold": 0, "num_stops": 1,
		"actual_departure_date": "2026-07-02T08:00:00Z",
		"actual_arrival_date": "2026-07-02T12:00:00Z",
		"departure_airport": "NGO", "arrival_airport": "OKA", "plane_id": 1
	}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	const callers = 20
	var wg sync.WaitGroup
	codes := make([]int, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r := doJSON(t, e, http.MethodPost, "/api/v1/flights/502/bookings", fmt.Sprintf(`{"customer_id": %d}`, i+1))
			codes[i] = r.Code
		}(i)
	}
	wg.Wait()

	for i, code := range codes {
		assert.Equal(t, http.StatusCreated, code, "caller %d", i)
	}

	rec = doJSON(t, e, http.MethodGet, "/api/v1/flights/502/passengers?status=R", "")
	assert.JSONEq(t, `{"flight_id":502,"status":"confirmed","count":5}`, rec.Body.String())

	report, err := c.Booking.AuditConsistency(t.Context())
	require.NoError(t, err)
	assert.True(t, report.OK())
}

func TestServer_MetricsAuth(t *testing.T) {
	e, _ := newMemoryServer(t, &middleware.MetricsConfig{User: "prom", Password: "secret"})

	rec := doJSON(t, e, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.SetBasicAuth("prom", "secret")
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, e, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
