package log

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Logger writes leveled, structured log entries to per-level files.
type Logger struct {
	infoLogger  *log.Logger
	errorLogger *log.Logger
	warnLogger  *log.Logger
	debugLogger *log.Logger
	mu          sync.RWMutex
	config      *LogConfig
}

// LogConfig controls output format and retention.
type LogConfig struct {
	Level      string `json:"level"`
	Format     string `json:"format"` // "text" or "json"
	MaxSize    int64  `json:"max_size"`
	MaxAge     int    `json:"max_age"`
	MaxBackups int    `json:"max_backups"`
	Compress   bool   `json:"compress"`
}

// LogEntry is one structured log record.
type LogEntry struct {
	Timestamp time.Time              `json:"timestamp"`
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields"`
	RequestID string                 `json:"request_id,omitempty"`
	UserID    string                 `json:"user_id,omitempty"`
	SessionID string                 `json:"session_id,omitempty"`
}

// Field is a single structured log field.
type Field struct {
	Key   string
	Value interface{}
}

type requestIDKey struct{}
type userIDKey struct{}
type sessionIDKey struct{}

// WithRequestID attaches a request id picked up by the logger.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// WithUserID attaches a user id picked up by the logger.
func WithUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, userIDKey{}, id)
}

// WithSessionID attaches a session id picked up by the logger.
func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionIDKey{}, id)
}

// NewLogger creates a logger writing into logDir, one file per level.
func NewLogger(logDir string) *Logger {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		panic(fmt.Sprintf("failed to create log directory: %v", err))
	}

	infoWriter := openLogFile(filepath.Join(logDir, "info.log"))
	errorWriter := openLogFile(filepath.Join(logDir, "error.log"))
	warnWriter := openLogFile(filepath.Join(logDir, "warn.log"))
	debugWriter := openLogFile(filepath.Join(logDir, "debug.log"))

	return &Logger{
		infoLogger:  log.New(infoWriter, "[INFO] ", log.LstdFlags),
		errorLogger: log.New(errorWriter, "[ERROR] ", log.LstdFlags),
		warnLogger:  log.New(warnWriter, "[WARN] ", log.LstdFlags),
		debugLogger: log.New(debugWriter, "[DEBUG] ", log.LstdFlags),
		config: &LogConfig{
			Level:  "INFO",
			Format: "text",
		},
	}
}

// NewStderrLogger creates a logger writing everything to stderr; used by tests
// and by the server before the log directory is configured.
func NewStderrLogger() *Logger {
	return &Logger{
		infoLogger:  log.New(os.Stderr, "[INFO] ", log.LstdFlags),
		errorLogger: log.New(os.Stderr, "[ERROR] ", log.LstdFlags),
		warnLogger:  log.New(os.Stderr, "[WARN] ", log.LstdFlags),
		debugLogger: log.New(os.Stderr, "[DEBUG] ", log.LstdFlags),
		config: &LogConfig{
			Level:  "INFO",
			Format: "text",
		},
	}
}

func openLogFile(filename string) io.Writer {
	file, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		panic(fmt.Sprintf("failed to open log file: %v", err))
	}
	return file
}

// Info logs at INFO level.
func (l *Logger) Info(ctx context.Context, message string, fields ...Field) {
	l.log(ctx, "INFO", message, fields...)
}

// Error logs at ERROR level.
func (l *Logger) Error(ctx context.Context, message string, fields ...Field) {
	l.log(ctx, "ERROR", message, fields...)
}

// Warn logs at WARN level.
func (l *Logger) Warn(ctx context.Context, message string, fields ...Field) {
	l.log(ctx, "WARN", message, fields...)
}

// Debug logs at DEBUG level.
func (l *Logger) Debug(ctx context.Context, message string, fields ...Field) {
	l.log(ctx, "DEBUG", message, fields...)
}

func (l *Logger) log(ctx context.Context, level, message string, fields ...Field) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	entry := LogEntry{
		Timestamp: time.Now(),
		Level:     level,
		Message:   message,
		Fields:    make(map[string]interface{}),
	}

	if ctx != nil {
		if requestID := ctx.Value(requestIDKey{}); requestID != nil {
			entry.RequestID = fmt.Sprintf("%v", requestID)
		}
		if userID := ctx.Value(userIDKey{}); userID != nil {
			entry.UserID = fmt.Sprintf("%v", userID)
		}
		if sessionID := ctx.Value(sessionIDKey{}); sessionID != nil {
			entry.SessionID = fmt.Sprintf("%v", sessionID)
		}
	}

	for _, field := range fields {
		entry.Fields[field.Key] = field.Value
	}

	var logMessage string
	if l.config.Format == "json" {
		logBytes, err := json.Marshal(entry)
		if err != nil {
			logMessage = fmt.Sprintf("failed to marshal log entry: %v", err)
		} else {
			logMessage = string(logBytes)
		}
	} else {
		logMessage = l.formatTextLog(entry)
	}

	switch level {
	case "INFO":
		l.infoLogger.Println(logMessage)
	case "ERROR":
		l.errorLogger.Println(logMessage)
	case "WARN":
		l.warnLogger.Println(logMessage)
	case "DEBUG":
		l.debugLogger.Println(logMessage)
	}
}

func (l *Logger) formatTextLog(entry LogEntry) string {
	message := fmt.Sprintf("%s [%s] %s",
		entry.Timestamp.Format("2006-01-02 15:04:05"),
		entry.Level,
		entry.Message)

	if entry.RequestID != "" {
		message = fmt.Sprintf("[%s] %s", entry.RequestID, message)
	}
	if entry.UserID != "" {
		message = fmt.Sprintf("user:%s %s", entry.UserID, message)
	}
	if entry.SessionID != "" {
		message = fmt.Sprintf("session:%s %s", entry.SessionID, message)
	}

	if len(entry.Fields) > 0 {
		message += " |"
		for key, value := range entry.Fields {
			message += fmt.Sprintf(" %s=%v", key, value)
		}
	}

	return message
}

// KV builds a structured log field.
func KV(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// SetConfig replaces the logger configuration.
func (l *Logger) SetConfig(config *LogConfig) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.config = config
}

// GetConfig returns the active logger configuration.
func (l *Logger) GetConfig() *LogConfig {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.config
}

var (
	globalLogger     *Logger
	globalLoggerOnce sync.Once
)

// GetLogger returns the process-wide logger.
func GetLogger() *Logger {
	return globalLogger
}

// InitializeLogger sets up the process-wide logger once.
func InitializeLogger(logDir string) *Logger {
	globalLoggerOnce.Do(func() {
		globalLogger = NewLogger(logDir)
	})
	return globalLogger
}
