package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

// flightNumberParam はパスの :fnum を便名として解釈する
func flightNumberParam(c echo.Context) (int64, error) {
	fnum, err := strconv.ParseInt(c.Param("fnum"), 10, 64)
	if err != nil || fnum <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "便名が不正です")
	}
	return fnum, nil
}
