package logger

import (
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu    sync.RWMutex
	base  *zap.Logger
	sugar *zap.SugaredLogger
	// closeSink releases the log file opened by InitLogger, if any.
	closeSink func()
)

// Options selects the level, encoding and an optional log file that is
// written alongside stderr.
type Options struct {
	Level  string // debug, info, warn, error
	Format string // json or console
	File   string
}

// InitLogger builds the process logger. It is safe to call more than once;
// the previous logger is flushed and replaced.
func InitLogger(opts Options) error {
	level := zap.NewAtomicLevelAt(parseLevel(opts.Level))

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	var enc zapcore.Encoder
	if strings.EqualFold(opts.Format, "json") {
		enc = zapcore.NewJSONEncoder(encCfg)
	} else {
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		enc = zapcore.NewConsoleEncoder(encCfg)
	}

	sinks := []zapcore.WriteSyncer{zapcore.Lock(os.Stderr)}
	var cleanup func()
	if opts.File != "" {
		f, closeFile, err := zap.Open(opts.File)
		if err != nil {
			return err
		}
		sinks = append(sinks, f)
		cleanup = closeFile
	}

	core := zapcore.NewCore(enc, zapcore.NewMultiWriteSyncer(sinks...), level)
	set(zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1)), cleanup)
	return nil
}

// Use installs an existing zap logger, e.g. zaptest or zap.NewNop in tests.
func Use(l *zap.Logger) {
	set(l.WithOptions(zap.AddCallerSkip(1)), nil)
}

// set replaces the process logger, flushing the old one and closing its
// file sink.
func set(l *zap.Logger, cleanup func()) {
	mu.Lock()
	defer mu.Unlock()
	release()
	base = l
	sugar = l.Sugar()
	closeSink = cleanup
}

// release must be called with mu held.
func release() {
	if base != nil {
		_ = base.Sync()
	}
	if closeSink != nil {
		closeSink()
		closeSink = nil
	}
}

func parseLevel(s string) zapcore.Level {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(strings.ToLower(s))); err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}

func get() *zap.SugaredLogger {
	mu.RLock()
	s := sugar
	mu.RUnlock()
	if s != nil {
		return s
	}
	_ = InitLogger(Options{})
	mu.RLock()
	defer mu.RUnlock()
	return sugar
}

// Close flushes buffered entries and closes the log file. Later calls log
// to stderr only.
func Close() {
	mu.Lock()
	defer mu.Unlock()
	hadFile := closeSink != nil
	release()
	if hadFile {
		l := zap.New(zapcore.NewCore(
			zapcore.NewConsoleEncoder(zap.NewProductionEncoderConfig()),
			zapcore.Lock(os.Stderr),
			base.Core(),
		), zap.AddCaller(), zap.AddCallerSkip(1))
		base = l
		sugar = l.Sugar()
	}
}

// With returns a structured logger carrying the given key/value pairs.
func With(kv ...interface{}) *zap.SugaredLogger {
	return get().Desugar().WithOptions(zap.AddCallerSkip(-1)).Sugar().With(kv...)
}

func Info(format string, v ...interface{}) {
	get().Infof(format, v...)
}

func Infof(format string, v ...interface{}) {
	get().Infof(format, v...)
}

func Debugf(format string, v ...interface{}) {
	get().Debugf(format, v...)
}

func Error(format string, v ...interface{}) {
	get().Errorf(format, v...)
}

func Errorf(format string, v ...interface{}) {
	get().Errorf(format, v...)
}

func Warn(format string, v ...interface{}) {
	get().Warnf(format, v...)
}

func Warnf(format string, v ...interface{}) {
	get().Warnf(format, v...)
}
