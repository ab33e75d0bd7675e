// Package logger wraps a process-wide logrus logger.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

var log = logrus.New()

// Fields is an alias so callers don't need to import logrus
type Fields = logrus.Fields

// Configure sets the level, formatter and output of the logger.
// An unknown level falls back to info.
func Configure(level, format string, out io.Writer) {
	if out == nil {
		out = os.Stdout
	}
	log.SetOutput(out)

	if strings.EqualFold(format, "json") {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	log.SetLevel(logrus.InfoLevel)
	if level == "" {
		return
	}
	lvl, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		log.Warnf("Invalid log level '%s', defaulting to 'info'", level)
		return
	}
	log.SetLevel(lvl)
}

// Logger returns the underlying logrus logger
func Logger() *logrus.Logger {
	return log
}

// WithFields returns an entry carrying the given fields
func WithFields(fields Fields) *logrus.Entry {
	return log.WithFields(fields)
}

// WithJob returns an entry tagged with a job id
func WithJob(jobID string) *logrus.Entry {
	return log.WithField("job_id", jobID)
}

// Debug logs a message at the Debug level
func Debug(args ...interface{}) {
	log.Debug(args...)
}

// Info logs a message at the Info level
func Info(args ...interface{}) {
	log.Info(args...)
}

// Warn logs a message at the Warn level
func Warn(args ...interface{}) {
	log.Warn(args...)
}

// Error logs a message at the Error level
func Error(args ...interface{}) {
	log.Error(args...)
}

// Fatal logs a message at the Fatal level and exits
func Fatal(args ...interface{}) {
	log.Fatal(args...)
}

// Debugf logs a formatted message at the Debug level
func Debugf(format string, args ...interface{}) {
	log.Debugf(format, args...)
}

// Infof logs a formatted message at the Info level
func Infof(format string, args ...interface{}) {
	log.Infof(format, args...)
}

// Warnf logs a formatted message at the Warn level
func Warnf(format string, args ...interface{}) {
	log.Warnf(format, args...)
}

// Errorf logs a formatted message at the Error level
func Errorf(format string, args ...interface{}) {
	log.Errorf(format, args...)
}

// Fatalf logs a formatted message at the Fatal level and exits
func Fatalf(format string, args ...interface{}) {
	log.Fatalf(format, args...)
}
