package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	level    = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	jsonLogs atomic.Bool
)

// SetVerbosity sets the level shared by every logger: 0 is warnings only,
// 1 adds info and 2 or more adds debug.
func SetVerbosity(verbosity int) {
	switch verbosity {
	case 0:
		level.SetLevel(zapcore.WarnLevel)
	case 1:
		level.SetLevel(zapcore.InfoLevel)
	default:
		level.SetLevel(zapcore.DebugLevel)
	}
}

// SetJSON switches loggers created afterwards to the JSON encoder.
func SetJSON(enabled bool) {
	jsonLogs.Store(enabled)
}

type BaseLogger struct {
	mu     sync.Mutex
	prefix string
	writer io.Writer
	sugar  *zap.SugaredLogger
}

// NewLogger returns a logger writing to writer, or to stderr when writer is nil.
// Stdout is never used: it carries connector messages.
func NewLogger(writer io.Writer, prefix string) *BaseLogger {
	if writer == nil {
		writer = os.Stderr
	}
	return &BaseLogger{
		writer: writer,
		prefix: prefix,
		sugar:  newSugar(writer),
	}
}

func NewNopLogger() *BaseLogger {
	return NewLogger(io.Discard, "")
}

func newSugar(writer io.Writer) *zap.SugaredLogger {
	var encoder zapcore.Encoder
	if jsonLogs.Load() {
		encoder = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	} else {
		cfg := zap.NewDevelopmentEncoderConfig()
		cfg.EncodeLevel = zapcore.CapitalLevelEncoder
		encoder = zapcore.NewConsoleEncoder(cfg)
	}
	core := zapcore.NewCore(encoder, zapcore.AddSync(writer), level)
	return zap.New(core).Sugar()
}

func (l *BaseLogger) entry(format string, v ...interface{}) (*zap.SugaredLogger, string) {
	l.mu.Lock()
	prefix, sugar := l.prefix, l.sugar
	l.mu.Unlock()

	message := fmt.Sprintf(format, v...)
	if prefix == "" {
		return sugar, message
	}
	return sugar, prefix + " " + message
}

func (l *BaseLogger) Log(format string, v ...interface{}) {
	sugar, message := l.entry(format, v...)
	sugar.Info(message)
}

func (l *BaseLogger) Debug(format string, v ...interface{}) {
	sugar, message := l.entry(format, v...)
	sugar.Debug(message)
}

func (l *BaseLogger) Warn(format string, v ...interface{}) {
	sugar, message := l.entry(format, v...)
	sugar.Warn(message)
}

func (l *BaseLogger) Error(format string, v ...interface{}) {
	sugar, message := l.entry(format, v...)
	sugar.Error(message)
}

func (l *BaseLogger) WithPrefix(extraPrefix string) *BaseLogger {
	l.mu.Lock()
	defer l.mu.Unlock()

	prefix := extraPrefix
	if l.prefix != "" {
		prefix = l.prefix + " " + extraPrefix
	}
	return &BaseLogger{
		writer: l.writer,
		prefix: prefix,
		sugar:  l.sugar,
	}
}

func (l *BaseLogger) SetPrefix(prefix string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.prefix = prefix
}

func (l *BaseLogger) SetWriter(writer io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.writer = writer
	l.sugar = newSugar(writer)
}

// Sync flushes buffered entries.
func (l *BaseLogger) Sync() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sugar.Sync()
}
