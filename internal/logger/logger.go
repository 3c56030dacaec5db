package logger

import (
	"context"
	"log"
	"log/slog"

	"github.com/bytedance/sonic"
	"go.mrchanchal.com/zaphandler"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type LoggerConfigs struct {
	Level    string `json:"level,omitempty" yaml:"level,omitempty"`
	Encoding string `json:"encoding,omitempty" yaml:"encoding,omitempty"`
}

type Options struct {
	configs *LoggerConfigs
}

type Optioner func(o *Options)

func WithGlobalConfigs(c *LoggerConfigs) Optioner {
	return func(o *Options) {
		o.configs = c
	}
}

func Init(ctx context.Context, options ...Optioner) {
	opts := &Options{}
	for _, option := range options {
		option(opts)
	}

	level := zapcore.InfoLevel
	encoding := "console"
	if opts.configs != nil {
		if parsed, err := zapcore.ParseLevel(opts.configs.Level); err == nil && opts.configs.Level != "" {
			level = parsed
		}
		if opts.configs.Encoding != "" {
			encoding = opts.configs.Encoding
		}
	}

	zapConfigs := zap.NewProductionConfig()
	zapConfigs.Level = zap.NewAtomicLevelAt(level)
	zapConfigs.Encoding = encoding
	if encoding == "console" {
		zapConfigs.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	}

	built, err := zapConfigs.Build(zap.AddCallerSkip(1))
	if err != nil {
		log.Fatalf("logger.Init: err = %s", err)
		return
	}
	zap.ReplaceGlobals(built)
}

func Logger() *zap.Logger {
	return zap.L()
}

// Slog bridges libraries that speak log/slog onto the global zap logger.
func Slog() *slog.Logger {
	return slog.New(zaphandler.New(zap.L()))
}

func Close() {
	zap.L().Sync()
}

func SDebug(msg string, fields ...zap.Field) {
	zap.L().Debug(msg, fields...)
}

func SInfo(msg string, fields ...zap.Field) {
	zap.L().Info(msg, fields...)
}

func SWarn(msg string, fields ...zap.Field) {
	zap.L().Warn(msg, fields...)
}

func SError(msg string, fields ...zap.Field) {
	zap.L().Error(msg, fields...)
}

func SFatal(msg string, fields ...zap.Field) {
	zap.L().Fatal(msg, fields...)
}

func Json(key string, value interface{}) zap.Field {
	encoded, err := sonic.Marshal(value)
	if err != nil {
		return zap.Any(key, value)
	}
	return zap.String(key, string(encoded))
}
