// logger/logger.go
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorGray   = "\033[90m"
)

type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
)

var levelTags = [...]struct {
	label string
	color string
}{
	DEBUG: {"[DEBUG] ", colorGray},
	INFO:  {"[INFO]  ", colorReset},
	WARN:  {"[WARN]  ", colorYellow},
	ERROR: {"[ERROR] ", colorRed},
}

func (l LogLevel) String() string {
	switch l {
	case DEBUG:
		return "debug"
	case INFO:
		return "info"
	case WARN:
		return "warn"
	case ERROR:
		return "error"
	}
	return fmt.Sprintf("level(%d)", int(l))
}

// ParseLevel maps a config value like "warn" to a LogLevel.
func ParseLevel(s string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DEBUG, nil
	case "info", "":
		return INFO, nil
	case "warn", "warning":
		return WARN, nil
	case "error":
		return ERROR, nil
	}
	return INFO, fmt.Errorf("unknown log level %q", s)
}

// Logger writes colored lines to the console and plain lines to a file.
type Logger struct {
	console  [len(levelTags)]*log.Logger
	plain    [len(levelTags)]*log.Logger
	file     *os.File
	minLevel LogLevel
}

var (
	defaultLogger *Logger
	once          sync.Once
	mu            sync.Mutex
)

const flags = log.Ldate | log.Ltime | log.Lshortfile

func newLogger(console, file io.Writer, minLevel LogLevel) *Logger {
	l := &Logger{minLevel: minLevel}
	for lvl, tag := range levelTags {
		if console != nil {
			l.console[lvl] = log.New(console, tag.color+tag.label+colorReset, flags)
		}
		if file != nil {
			l.plain[lvl] = log.New(file, tag.label, flags)
		}
	}
	return l
}

// ensureInitialized creates a console logger if none was configured
func ensureInitialized() {
	once.Do(func() {
		mu.Lock()
		defer mu.Unlock()
		if defaultLogger == nil {
			defaultLogger = newLogger(os.Stdout, nil, DEBUG)
		}
	})
}

// Init initializes the logger with optional file and console output
// If filename is empty, logs only to console
// If console is false, logs only to file
func Init(filename string, console bool) error {
	var (
		consoleOut io.Writer
		fileOut    *os.File
	)
	if filename != "" {
		f, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		fileOut = f
	}
	if console {
		consoleOut = os.Stdout
	}
	if consoleOut == nil && fileOut == nil {
		return fmt.Errorf("no output destination specified")
	}

	var fileWriter io.Writer
	if fileOut != nil {
		fileWriter = fileOut
	}
	install(newLogger(consoleOut, fileWriter, currentLevel()), fileOut)
	return nil
}

// SetOutput sends uncolored output to w only. Mostly useful in tests.
func SetOutput(w io.Writer) {
	install(newLogger(nil, w, currentLevel()), nil)
}

func install(l *Logger, file *os.File) {
	once.Do(func() {})
	mu.Lock()
	defer mu.Unlock()
	if defaultLogger != nil && defaultLogger.file != nil {
		defaultLogger.file.Close()
	}
	l.file = file
	defaultLogger = l
}

func currentLevel() LogLevel {
	mu.Lock()
	defer mu.Unlock()
	if defaultLogger == nil {
		return DEBUG
	}
	return defaultLogger.minLevel
}

// SetLevel sets the minimum log level (DEBUG, INFO, WARN, ERROR)
// Messages below this level will not be logged
func SetLevel(level LogLevel) {
	ensureInitialized()
	mu.Lock()
	defer mu.Unlock()
	defaultLogger.minLevel = level
}

// Close closes the log file if one is open
func Close() {
	mu.Lock()
	defer mu.Unlock()

	if defaultLogger != nil && defaultLogger.file != nil {
		defaultLogger.file.Close()
		defaultLogger.file = nil
		defaultLogger.plain = [len(levelTags)]*log.Logger{}
	}
}

func emit(level LogLevel, msg string) {
	ensureInitialized()
	mu.Lock()
	l := defaultLogger
	minLevel := l.minLevel
	mu.Unlock()

	if level < minLevel {
		return
	}
	// depth 3: Output <- emit <- exported helper <- caller
	if c := l.console[level]; c != nil {
		c.Output(3, msg)
	}
	if p := l.plain[level]; p != nil {
		p.Output(3, msg)
	}
}

// Debug logs a debug message
func Debug(v ...interface{}) { emit(DEBUG, fmt.Sprint(v...)) }

// Debugf logs a formatted debug message
func Debugf(format string, v ...interface{}) { emit(DEBUG, fmt.Sprintf(format, v...)) }

// Info logs an info message
func Info(v ...interface{}) { emit(INFO, fmt.Sprint(v...)) }

// Infof logs a formatted info message
func Infof(format string, v ...interface{}) { emit(INFO, fmt.Sprintf(format, v...)) }

// Warn logs a warning message
func Warn(v ...interface{}) { emit(WARN, fmt.Sprint(v...)) }

// Warnf logs a formatted warning message
func Warnf(format string, v ...interface{}) { emit(WARN, fmt.Sprintf(format, v...)) }

// Error logs an error message
func Error(v ...interface{}) { emit(ERROR, fmt.Sprint(v...)) }

// Errorf logs a formatted error message
func Errorf(format string, v ...interface{}) { emit(ERROR, fmt.Sprintf(format, v...)) }

// Fatal logs an error message and exits the program
func Fatal(v ...interface{}) {
	emit(ERROR, fmt.Sprint(v...))
	os.Exit(1)
}

// Fatalf logs a formatted error message and exits the program
func Fatalf(format string, v ...interface{}) {
	emit(ERROR, fmt.Sprintf(format, v...))
	os.Exit(1)
}
