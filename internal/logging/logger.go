package logging

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"
)

// Level represents the severity of a log message.
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

// Logger writes component-scoped log lines to phi-debug.log.
//
// All clients share one underlying file handle; component loggers are cheap
// views over it.
type Logger struct {
	file      *os.File
	logger    *log.Logger
	level     Level
	mu        *sync.Mutex
	component string
}

var (
	loggerInstance *Logger
	loggerOnce     sync.Once
)

// Get returns the singleton logger instance.
func Get() *Logger {
	loggerOnce.Do(func() {
		loggerInstance = newLogger(INFO)
	})
	return loggerInstance
}

// ForComponent returns the shared logger scoped to a component name.
func ForComponent(component string) *Logger {
	root := Get()
	return &Logger{
		file:      root.file,
		logger:    root.logger,
		level:     root.level,
		mu:        root.mu,
		component: component,
	}
}

func newLogger(level Level) *Logger {
	l := &Logger{level: level, mu: &sync.Mutex{}}

	home, err := os.UserHomeDir()
	if err != nil {
		return l
	}
	dir := filepath.Join(home, ".phi")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return l
	}
	file, err := os.OpenFile(filepath.Join(dir, "phi-debug.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return l
	}
	l.file = file
	l.logger = log.New(file, "", 0)
	return l
}

// SetLevel sets the minimum level written to the log file.
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// Close closes the underlying log file.
func (l *Logger) Close() error {
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

func (l *Logger) log(level Level, format string, args ...interface{}) {
	if level < l.level || l.logger == nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	component := l.component
	if component == "" {
		component = "PHI"
	}

	// Format: 2025-09-30 12:34:56 [INFO] [component] - message
	line := fmt.Sprintf("%s [%s] [%s] - %s",
		time.Now().Format("2006-01-02 15:04:05"),
		levelString(level),
		component,
		fmt.Sprintf(format, args...),
	)
	l.logger.Print(sanitizeLine(line))
}

// Debug logs a debug message.
func (l *Logger) Debug(format string, args ...interface{}) { l.log(DEBUG, format, args...) }

// Info logs an info message.
func (l *Logger) Info(format string, args ...interface{}) { l.log(INFO, format, args...) }

// Warn logs a warning message.
func (l *Logger) Warn(format string, args ...interface{}) { l.log(WARN, format, args...) }

// Error logs an error message.
func (l *Logger) Error(format string, args ...interface{}) { l.log(ERROR, format, args...) }

func levelString(level Level) string {
	switch level {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

const redactedPlaceholder = "[REDACTED]"

var bearerTokenPattern = regexp.MustCompile(`(?i)(bearer\s+)([A-Za-z0-9\-\._~+/]+=*)`)

// sanitizeLine strips bearer tokens so credentials never land in the debug log.
func sanitizeLine(line string) string {
	return bearerTokenPattern.ReplaceAllString(line, "${1}"+redactedPlaceholder)
}
