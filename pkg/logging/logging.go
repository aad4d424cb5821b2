// Package logging provides the process-wide rotating file logger.
// Diagnostics go to the log file; the command layer decides what is
// echoed to the terminal.
package logging

import (
	"log"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger wraps a rotating file log for a run of the tool.
type Logger struct {
	logger *log.Logger
}

var (
	globalLogger *Logger
	once         sync.Once
)

// GetLogger returns the singleton logger, initializing it on first use
// with a size-capped, rotating log file under the working directory.
func GetLogger() *Logger {
	once.Do(func() {
		logFile := &lumberjack.Logger{
			Filename:   ".weave/weave.log",
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
			Compress:   true,
		}
		globalLogger = &Logger{
			logger: log.New(logFile, "", log.LstdFlags),
		}
	})
	return globalLogger
}

// Std exposes the underlying *log.Logger for components that take one.
func (l *Logger) Std() *log.Logger {
	return l.logger
}

// Logf logs a formatted message to the log file.
func (l *Logger) Logf(format string, v ...interface{}) {
	l.logger.Printf(format, v...)
}

// LogError logs an error when it is non-nil.
func (l *Logger) LogError(err error) {
	if err != nil {
		l.logger.Printf("ERROR: %v", err)
	}
}

// Close flushes and closes the underlying log file.
func (l *Logger) Close() error {
	if logFile, ok := l.logger.Writer().(*lumberjack.Logger); ok {
		return logFile.Close()
	}
	return nil
}
