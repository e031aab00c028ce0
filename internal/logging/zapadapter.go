package logging

import (
	"log"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// toZapLevel maps our levels onto zap's.
func toZapLevel(level LogLevel) zapcore.Level {
	switch level {
	case DebugLevel:
		return zapcore.DebugLevel
	case InfoLevel:
		return zapcore.InfoLevel
	case WarnLevel:
		return zapcore.WarnLevel
	case ErrorLevel:
		return zapcore.ErrorLevel
	case FatalLevel:
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

// Zap returns the underlying *zap.Logger for libraries that take one.
func (l *Logger) Zap() *zap.Logger {
	return l.zl.WithOptions(zap.AddCallerSkip(-1))
}

// StdLog returns a *log.Logger writing at ErrorLevel, suitable for
// http.Server.ErrorLog.
func (l *Logger) StdLog() *log.Logger {
	std, err := zap.NewStdLogAt(l.Zap(), zapcore.ErrorLevel)
	if err != nil {
		return zap.NewStdLog(l.Zap())
	}
	return std
}
