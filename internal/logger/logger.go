package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Options struct {
	// Level is one of debug, info, warn, error. Unknown values mean info.
	Level string
	// LogPath is a directory; a timestamped tsdr_log_*.log is created inside it.
	LogPath string
	// Console receives human-readable lines, typically the TUI debug console or stderr.
	Console io.Writer
}

var (
	mu      sync.RWMutex
	base    = zap.NewNop()
	logFile *os.File
)

// InitLogger replaces the process-wide logger. Loggers handed out by NewLogger
// before this call keep writing to the previous one.
func InitLogger(opts Options) error {
	level := parseLevel(opts.Level)

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05")
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	encoderConfig.ConsoleSeparator = " | "

	var cores []zapcore.Core
	var file *os.File

	if opts.LogPath != "" {
		if err := os.MkdirAll(opts.LogPath, 0755); err != nil {
			return fmt.Errorf("create log dir: %w", err)
		}
		fileName := fmt.Sprintf("tsdr_log_%s.log", time.Now().Format("20060102_150405"))
		f, err := os.OpenFile(filepath.Join(opts.LogPath, fileName), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		file = f
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), zapcore.AddSync(f), level))
	}

	if opts.Console != nil {
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), zapcore.AddSync(opts.Console), level))
	}

	next := zap.NewNop()
	if len(cores) > 0 {
		next = zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	}

	mu.Lock()
	prevFile := logFile
	base = next
	logFile = file
	mu.Unlock()

	if prevFile != nil {
		prevFile.Close()
	}
	return nil
}

// NewLogger returns a logger whose entries are tagged with the component name.
func NewLogger(tag string) *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base.Named(tag)
}

func NewNop() *zap.Logger {
	return zap.NewNop()
}

// Close flushes buffered entries and closes the log file, if any.
func Close() {
	mu.Lock()
	defer mu.Unlock()
	_ = base.Sync()
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
	base = zap.NewNop()
}

func parseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
