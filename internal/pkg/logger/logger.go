package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var log *zap.Logger

func init() {
	log = NewLogger("development")
}

// NewLogger は環境に応じたロガーを作成する
// production ではJSON、それ以外はカラー付きのコンソール出力
func NewLogger(env string) *zap.Logger {
	var config zap.Config
	if env == "production" {
		config = zap.NewProductionConfig()
		config.EncoderConfig.TimeKey = "timestamp"
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		var level zapcore.Level
		if err := level.UnmarshalText([]byte(lvl)); err == nil {
			config.Level = zap.NewAtomicLevelAt(level)
		}
	}

	logger, err := config.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// Init はグローバルロガーを環境に合わせて作り直す
func Init(env string) *zap.Logger {
	log = NewLogger(env).With(zap.String("env", env))
	return log
}

func Get() *zap.Logger {
	return log
}

func Set(l *zap.Logger) {
	log = l
}

func Info(msg string, fields ...zap.Field) {
	log.Info(msg, fields...)
}

func Error(msg string, fields ...zap.Field) {
	log.Error(msg, fields...)
}

func Debug(msg string, fields ...zap.Field) {
	log.Debug(msg, fields...)
}

func Warn(msg string, fields ...zap.Field) {
	log.Warn(msg, fields...)
}

func Fatal(msg string, fields ...zap.Field) {
	log.Fatal(msg, fields...)
}

func With(fields ...zap.Field) *zap.Logger {
	return log.With(fields...)
}

// 予約まわりのログで使うフィールド
// キー名はリクエストログとそろえる
func FlightID(fnum int64) zap.Field { return zap.Int64("flight_id", fnum) }

func CustomerID(cid int64) zap.Field { return zap.Int64("customer_id", cid) }

func ReservationNumber(rnum int64) zap.Field { return zap.Int64("rnum", rnum) }

// ForFlight は便名と顧客IDを付与した子ロガーを返す
func ForFlight(flightID, customerID int64) *zap.Logger {
	return log.With(FlightID(flightID), CustomerID(customerID))
}

func Sync() error {
	return log.Sync()
}
