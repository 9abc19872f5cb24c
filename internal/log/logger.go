package log

import (
	"io"
	"os"
	"strings"
	"sync"

	"vehiclemodels/internal/core"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// AppLogger is the application logger implementation. It keeps the printf
// style of core.Logger and writes through a zap core.
type AppLogger struct {
	sugar      *zap.SugaredLogger
	debug      bool
	fileHandle *os.File
	mu         sync.Mutex
}

func bracketLevelEncoder(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString("[" + l.CapitalString() + "]")
}

func newSugar(output io.Writer, debugMode bool) *zap.SugaredLogger {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "timestamp"
	encCfg.EncodeTime = zapcore.TimeEncoderOfLayout(core.TimeFormatDateTime)
	encCfg.EncodeLevel = bracketLevelEncoder
	encCfg.CallerKey = ""
	encCfg.ConsoleSeparator = " "

	level := zapcore.InfoLevel
	if debugMode {
		level = zapcore.DebugLevel
	}

	zcore := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.AddSync(output),
		zap.NewAtomicLevelAt(level),
	)
	return zap.New(zcore).Sugar()
}

// NewAppLoggerWithConfig creates a logger instance with configuration.
func NewAppLoggerWithConfig(output io.Writer, debugMode bool) *AppLogger {
	return &AppLogger{
		sugar: newSugar(output, debugMode),
		debug: debugMode,
	}
}

// Debug logs a message at DEBUG level.
func (l *AppLogger) Debug(format string, args ...any) {
	if l != nil && l.debug {
		l.sugar.Debugf(format, args...)
	}
}

// Info logs a message at INFO level.
func (l *AppLogger) Info(format string, args ...any) {
	if l != nil {
		l.sugar.Infof(format, args...)
	}
}

// Warn logs a message at WARN level.
func (l *AppLogger) Warn(format string, args ...any) {
	if l != nil {
		l.sugar.Warnf(format, args...)
	}
}

// Error logs a message at ERROR level.
func (l *AppLogger) Error(format string, args ...any) {
	if l != nil {
		l.sugar.Errorf(format, args...)
	}
}

// Fatal logs a message at FATAL level and terminates the process.
func (l *AppLogger) Fatal(format string, args ...any) {
	if l != nil {
		l.sugar.Fatalf(format, args...)
		return
	}
	newSugar(os.Stderr, false).Fatalf(format, args...)
}

// Close flushes buffered entries and closes the log file handle, if any.
func (l *AppLogger) Close() error {
	if l == nil {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	_ = l.sugar.Sync()
	if l.fileHandle != nil {
		err := l.fileHandle.Close()
		l.fileHandle = nil
		return err
	}
	return nil
}

// containsPathTraversal reports whether any element of path is "..".
func containsPathTraversal(path string) bool {
	parts := strings.FieldsFunc(path, func(r rune) bool {
		return r == '/' || r == '\\'
	})
	for _, part := range parts {
		if part == ".." {
			return true
		}
	}
	return false
}

// createDebugFileOutput creates debug file output, falls back to stdout on failure.
func createDebugFileOutput(fallback *zap.SugaredLogger) (io.Writer, *os.File) {
	debugFile := os.Getenv("DEBUG_FILE")
	if debugFile == "" {
		return os.Stdout, nil
	}

	if len(debugFile) > core.MaxDebugFilePathLength {
		fallback.Warnf("DEBUG_FILE path too long, falling back to stdout")
		return os.Stdout, nil
	}

	if containsPathTraversal(debugFile) {
		fallback.Warnf("DEBUG_FILE contains path traversal characters, falling back to stdout")
		return os.Stdout, nil
	}

	//nolint:gosec // G304: debugFile from env var, validated by containsPathTraversal
	file, err := os.OpenFile(debugFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, core.FilePermissionReadWrite)
	if err != nil {
		fallback.Warnf("Failed to open DEBUG_FILE '%s': %v, falling back to stdout", debugFile, err)
		return os.Stdout, nil
	}

	return file, file
}

// IsDebug returns whether the app is running in debug mode.
func IsDebug() bool {
	return os.Getenv("GIN_MODE") == "debug"
}

// CreateLogger creates a logger instance (for dependency injection).
func CreateLogger() core.Logger {
	debugMode := IsDebug()
	output, fileHandle := createDebugFileOutput(newSugar(os.Stderr, false))

	return &AppLogger{
		sugar:      newSugar(output, debugMode),
		debug:      debugMode,
		fileHandle: fileHandle,
	}
}
