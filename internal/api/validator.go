package api

import (
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// CustomValidator はEcho用のカスタムバリデーター
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator は新しいバリデーターを作成する
// airport タグは空白を除いた3〜5文字の英数字を許可する
func NewValidator() *CustomValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("airport", validateAirport)
	return &CustomValidator{validator: v}
}

func validateAirport(fl validator.FieldLevel) bool {
	code := strings.TrimSpace(fl.Field().String())
	if len(code) < 3 || len(code) > 5 {
		return false
	}
	for _, r := range code {
		if !(r >= 'A' && r <= 'Z' || r >= 'a' && r <= 'z' || r >= '0' && r <= '9') {
			return false
		}
	}
	return true
}

// Validate はリクエストのバリデーションを実行する
func (cv *CustomValidator) Validate(i interface{}) error {
	if err := cv.validator.Struct(i); err != nil {
		var fields []string
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range verrs {
				fields = append(fields, fe.Field()+"("+fe.Tag()+")")
			}
			return echo.NewHTTPError(http.StatusBadRequest, "入力が不正です: "+strings.Join(fields, ", "))
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}
