// Package logger provides context-aware structured logging on top of logrus.
// Loggers travel in a context so that fields such as the source label and
// sync ID follow a call through the store, catalog and providers.
package logger

import (
	"context"
	"io"
	"time"

	"github.com/sirupsen/logrus"
)

// Field names shared by every package that logs about a source
const (
	FieldSource = "source"
	FieldSyncID = "sync_id"
	FieldPath   = "path"
)

var (
	// G is a convenience alias for GetLogger
	G = GetLogger
	// L is the global logger entry used when the context carries none
	L = logrus.NewEntry(newLogger())
)

type loggerKey struct{}

// WithLogger attaches a logger entry to the context
func WithLogger(ctx context.Context, logger *logrus.Entry) context.Context {
	e := logger.WithContext(ctx)
	return context.WithValue(ctx, loggerKey{}, e)
}

// WithSource returns a context whose logger carries the source label, along
// with that logger
func WithSource(ctx context.Context, label string) (context.Context, *logrus.Entry) {
	log := G(ctx).WithField(FieldSource, label)
	return WithLogger(ctx, log), log
}

// GetLogger retrieves the logger entry from the context, falling back to L
func GetLogger(ctx context.Context) *logrus.Entry {
	logger := ctx.Value(loggerKey{})

	if logger == nil {
		return L.WithContext(ctx)
	}

	return logger.(*logrus.Entry)
}

func newLogger() *logrus.Logger {
	l := logrus.New()
	setLoggerFormat(l, "fmt")
	return l
}

func setLoggerFormat(logger *logrus.Logger, format string) {
	switch format {
	case "json":
		logger.Formatter = &logrus.JSONFormatter{
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "logLevel",
				logrus.FieldKeyMsg:   "message",
			},
			TimestampFormat: time.RFC3339Nano,
		}
	default:
		logger.Formatter = &logrus.TextFormatter{
			TimestampFormat: time.RFC3339Nano,
			FullTimestamp:   true,
		}
	}
}

// SetLogLevel sets the log level for the global logger
func SetLogLevel(level string) error {
	logLevel, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	L.Logger.SetLevel(logLevel)
	return nil
}

// SetLogFormat sets the global log format, "json" or "fmt"
func SetLogFormat(format string) {
	setLoggerFormat(L.Logger, format)
}

// Configure applies the log_level and log_format settings to the global
// logger. An invalid level leaves the logger unchanged.
func Configure(level, format string) error {
	if err := SetLogLevel(level); err != nil {
		return err
	}
	SetLogFormat(format)
	return nil
}

// SetLogOutput sets the output destination for the global logger
func SetLogOutput(w io.Writer) {
	L.Logger.SetOutput(w)
}
