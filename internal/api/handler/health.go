package handler

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/labstack/echo/v4"
)

// HealthCheck は依存先1つの疎通確認
type HealthCheck func(ctx context.Context) error

// HealthHandler はヘルスチェックハンドラー
type HealthHandler struct {
	checks  map[string]HealthCheck
	timeout time.Duration
}

// NewHealthHandler はHealthHandlerを作成する
// checks が空の場合は常に ok を返す
func NewHealthHandler(checks map[string]HealthCheck) *HealthHandler {
	return &HealthHandler{checks: checks, timeout: 2 * time.Second}
}

// HealthResponse はヘルスチェックのレスポンス
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// Check はヘルスチェックを行う
// @Summary ヘルスチェック
// @Description アプリケーションと依存先の健全性を確認する
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /health [get]
func (h *HealthHandler) Check(c echo.Context) error {
	resp := HealthResponse{Status: "ok", Timestamp: time.Now().Format(time.RFC3339)}
	code := http.StatusOK

	if len(h.checks) > 0 {
		ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
		defer cancel()

		names := make([]string, 0, len(h.checks))
		for name := range h.checks {
			names = append(names, name)
		}
		sort.Strings(names)

		resp.Checks = make(map[string]string, len(names))
		for _, name := range names {
			if err := h.checks[name](ctx); err != nil {
				resp.Checks[name] = err.Error()
				resp.Status = "degraded"
				code = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[name] = "ok"
		}
	}
	return c.JSON(code, resp)
}
