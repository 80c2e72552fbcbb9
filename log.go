package questionbank

import (
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
)

// Logger is a thin key/value wrapper around a zap sugared logger
type Logger struct {
	SugaredLogger *zap.SugaredLogger
}

// NewLogger builds a logger for the given mode ("prod" or "dev")
func NewLogger(mode string, verbose bool) (*Logger, error) {
	var cfg zap.Config
	switch strings.ToLower(mode) {
	case "prod", "production":
		cfg = zap.NewProductionConfig()
	default:
		cfg = zap.NewDevelopmentConfig()
	}
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	} else {
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	zapLogger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return &Logger{SugaredLogger: zapLogger.Sugar()}, nil
}

// NopLogger returns a logger that discards everything
func NopLogger() *Logger {
	return &Logger{SugaredLogger: zap.NewNop().Sugar()}
}

func (l *Logger) Sync() {
	_ = l.SugaredLogger.Sync()
}

func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Debugw(msg, keysAndValues...)
}
func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Infow(msg, keysAndValues...)
}
func (l *Logger) Warn(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Warnw(msg, keysAndValues...)
}
func (l *Logger) Error(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Errorw(msg, keysAndValues...)
}
func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	return &Logger{SugaredLogger: l.SugaredLogger.With(keysAndValues...)}
}

var globalLogger atomic.Pointer[Logger]

func init() {
	globalLogger.Store(NopLogger())
}

// SetLogger replaces the package logger; nil restores the no-op logger
func SetLogger(l *Logger) {
	if l == nil {
		l = NopLogger()
	}
	globalLogger.Store(l)
}

// SetVerbose installs a development logger at debug level when verbose is
// set, and at info level otherwise
func SetVerbose(verbose bool) error {
	l, err := NewLogger("dev", verbose)
	if err != nil {
		return err
	}
	SetLogger(l)
	return nil
}

// GetLogger returns the package logger
func GetLogger() *Logger {
	return globalLogger.Load()
}
