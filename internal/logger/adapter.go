package logger

import (
	"go.uber.org/zap"
)

type ZapToAntsLogger struct {
	logger *zap.SugaredLogger
}

func NewZapToAntsLogger(l *zap.Logger) *ZapToAntsLogger {
	return &ZapToAntsLogger{logger: l.Sugar()}
}

func (l *ZapToAntsLogger) Printf(format string, args ...interface{}) {
	l.logger.Infof(format, args...)
}
