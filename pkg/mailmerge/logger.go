package mailmerge

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
)

type LogLevel int

const (
	LogDebug LogLevel = iota
	LogInfo
	LogWarn
	LogError
	LogOff
)

func (l LogLevel) String() string {
	switch l {
	case LogDebug:
		return "DEBUG"
	case LogInfo:
		return "INFO"
	case LogWarn:
		return "WARN"
	case LogError:
		return "ERROR"
	case LogOff:
		return "OFF"
	default:
		return "UNKNOWN"
	}
}

// charmLevel maps a LogLevel onto the backend. LogOff sits above every
// level the backend emits.
func (l LogLevel) charmLevel() log.Level {
	switch l {
	case LogDebug:
		return log.DebugLevel
	case LogInfo:
		return log.InfoLevel
	case LogWarn:
		return log.WarnLevel
	case LogError:
		return log.ErrorLevel
	default:
		return log.FatalLevel + 1
	}
}

type Fields map[string]interface{}

// Logger is a leveled, structured logger. Messages carry key/value pairs:
//
//	logger.Info("merge finished", "rows", 17, "mode", "per-row")
type Logger struct {
	base  *log.Logger
	level LogLevel
	mu    sync.Mutex
}

var (
	globalLogger     *Logger
	globalLoggerOnce sync.Once
)

func initGlobalLogger() {
	globalLoggerOnce.Do(func() {
		config := GetGlobalConfig()
		globalLogger = NewLogger(os.Stderr, parseLogLevel(config.LogLevel))
		globalLogger.SetFormat(config.LogFormat)
	})
}

func init() {
	initGlobalLogger()
}

func parseLogLevel(levelStr string) LogLevel {
	switch strings.ToLower(levelStr) {
	case "debug":
		return LogDebug
	case "info":
		return LogInfo
	case "warn", "warning":
		return LogWarn
	case "error":
		return LogError
	case "off":
		return LogOff
	default:
		return LogInfo // Default to info
	}
}

func NewLogger(w io.Writer, level LogLevel) *Logger {
	if w == nil {
		w = io.Discard
	}
	base := log.NewWithOptions(w, log.Options{
		Level:           level.charmLevel(),
		ReportTimestamp: true,
		TimeFormat:      "2006-01-02 15:04:05",
	})
	return &Logger{
		base:  base,
		level: level,
	}
}

func (l *Logger) SetLevel(level LogLevel) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
	l.base.SetLevel(level.charmLevel())
}

// SetFormat switches the encoding: "json", "logfmt" or "text" (default).
func (l *Logger) SetFormat(format string) {
	switch strings.ToLower(format) {
	case "json":
		l.base.SetFormatter(log.JSONFormatter)
	case "logfmt":
		l.base.SetFormatter(log.LogfmtFormatter)
	default:
		l.base.SetFormatter(log.TextFormatter)
	}
}

func (l *Logger) IsDebugMode() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.level == LogDebug
}

func (l *Logger) WithField(key string, value interface{}) *Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	return &Logger{
		base:  l.base.With(key, value),
		level: l.level,
	}
}

func (l *Logger) WithFields(fields Fields) *Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	keyvals := make([]interface{}, 0, len(fields)*2)
	for k, v := range fields {
		keyvals = append(keyvals, k, v)
	}
	return &Logger{
		base:  l.base.With(keyvals...),
		level: l.level,
	}
}

func (l *Logger) Debug(msg string, keyvals ...interface{}) {
	l.base.Debug(msg, keyvals...)
}

func (l *Logger) Info(msg string, keyvals ...interface{}) {
	l.base.Info(msg, keyvals...)
}

func (l *Logger) Warn(msg string, keyvals ...interface{}) {
	l.base.Warn(msg, keyvals...)
}

func (l *Logger) Error(msg string, keyvals ...interface{}) {
	l.base.Error(msg, keyvals...)
}

// Global logging functions
func SetLogger(logger *Logger) {
	initGlobalLogger()
	globalLogger = logger
}

func GetLogger() *Logger {
	initGlobalLogger()
	return globalLogger
}

func Debug(msg string, keyvals ...interface{}) {
	GetLogger().Debug(msg, keyvals...)
}

func Info(msg string, keyvals ...interface{}) {
	GetLogger().Info(msg, keyvals...)
}

func Warn(msg string, keyvals ...interface{}) {
	GetLogger().Warn(msg, keyvals...)
}

func Error(msg string, keyvals ...interface{}) {
	GetLogger().Error(msg, keyvals...)
}

func WithField(key string, value interface{}) *Logger {
	return GetLogger().WithField(key, value)
}

func WithFields(fields Fields) *Logger {
	return GetLogger().WithFields(fields)
}

// UpdateLoggerFromConfig updates the global logger based on the current global configuration
func UpdateLoggerFromConfig() {
	config := GetGlobalConfig()
	logger := GetLogger()
	logger.SetLevel(parseLogLevel(config.LogLevel))
	logger.SetFormat(config.LogFormat)
}
