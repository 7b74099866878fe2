package logger

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// 轮转参数没有单独的配置项，面板日志量小，统一用这组默认值。
const (
	defaultMaxSizeMB  = 50
	defaultMaxBackups = 5
	defaultMaxAgeDays = 14
)

// Config 日志配置
type Config struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
	LogFile     string `mapstructure:"log_file"`
	MaxSize     int    `mapstructure:"max_size"` // MB，零值取默认
	MaxBackups  int    `mapstructure:"max_backups"`
	MaxAge      int    `mapstructure:"max_age"` // 天，零值取默认
}

// NewLogger 创建日志记录器
//
// 开发模式用控制台编码并在 error 级别附带堆栈；生产模式用 JSON。
// 指定 LogFile 时同时写文件（lumberjack 轮转，旧文件压缩）和标准输出。
func NewLogger(cfg Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.MessageKey = "message"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeDuration = zapcore.SecondsDurationEncoder

	var encoder zapcore.Encoder
	if cfg.Development {
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	} else {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	}

	writeSyncer := zapcore.AddSync(os.Stdout)

	if cfg.LogFile != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0755); err != nil {
			return nil, err
		}

		rotated := &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    orDefault(cfg.MaxSize, defaultMaxSizeMB),
			MaxBackups: orDefault(cfg.MaxBackups, defaultMaxBackups),
			MaxAge:     orDefault(cfg.MaxAge, defaultMaxAgeDays),
			Compress:   true,
		}

		writeSyncer = zapcore.NewMultiWriteSyncer(
			zapcore.AddSync(rotated),
			zapcore.AddSync(os.Stdout),
		)
	}

	core := zapcore.NewCore(encoder, writeSyncer, level)

	options := []zap.Option{zap.AddCaller()}
	if cfg.Development {
		options = append(options, zap.AddStacktrace(zapcore.ErrorLevel))
	}

	return zap.New(core, options...), nil
}

func orDefault(value, fallback int) int {
	if value <= 0 {
		return fallback
	}
	return value
}

// NewDevelopmentLogger 创建开发环境日志记录器
func NewDevelopmentLogger() *zap.Logger {
	logger, err := NewLogger(Config{
		Level:       "debug",
		Development: true,
	})
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
