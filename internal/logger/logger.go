package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

type contextKey string

const (
	LoggerKey   contextKey = "logger"
	sourceIPKey contextKey = "source_ip"
)

func InitLogger(ctx context.Context, logLevel string, jsonLog bool, warnings []string) (context.Context, *zerolog.Logger) {
	log := NewLogger(logLevel, jsonLog)
	for _, warning := range warnings {
		log.Warn().Msg(warning)
	}
	ctx = context.WithValue(ctx, LoggerKey, log)
	return ctx, log
}

// NewLogger creates a zerolog logger on stderr and sets the global log level.
// jsonLog selects plain JSON lines instead of the coloured console format.
func NewLogger(logLevel string, jsonLog bool) *zerolog.Logger {
	return newLogger(os.Stderr, logLevel, jsonLog)
}

func newLogger(out io.Writer, logLevel string, jsonLog bool) *zerolog.Logger {
	zerolog.SetGlobalLevel(getLogLevel(logLevel))

	if jsonLog {
		logger := zerolog.New(out).With().Timestamp().Logger()
		return &logger
	}

	output := zerolog.ConsoleWriter{Out: out, TimeFormat: "2006-01-02 15:04:05"}
	output.FormatLevel = formatLevel

	logger := zerolog.New(output).With().Timestamp().Logger()
	return &logger
}

func formatLevel(i interface{}) string {
	var l string
	if ll, ok := i.(string); ok {
		switch ll {
		case "debug":
			l = colorize(ll, 36) // cyan
		case "info":
			l = colorize(ll, 34) // blue
		case "warn":
			l = colorize(ll, 33) // yellow
		case "error":
			l = colorize(ll, 31) // red
		case "fatal":
			l = colorize(ll, 35) // magenta
		case "panic":
			l = colorize(ll, 41) // white on red background
		default:
			l = colorize(ll, 37) // white
		}
	} else {
		if i == nil {
			l = colorize("???", 37) // white
		} else {
			lStr := strings.ToUpper(fmt.Sprintf("%s", i))
			if len(lStr) > 3 {
				lStr = lStr[:3]
			}
			l = lStr
		}
	}
	return fmt.Sprintf("| %s |", l)
}

// FromContext extracts the main logger from the context.
func FromContext(ctx context.Context) *zerolog.Logger {
	logger, ok := ctx.Value(LoggerKey).(*zerolog.Logger)
	if !ok {
		// Fallback to a default logger if none is found in the context.
		defaultLogger := zerolog.New(os.Stderr).With().Timestamp().Logger()
		defaultLogger.Error().Msg("Failed to extract logger from context")
		return &defaultLogger
	}
	return logger
}

// WithSourceIP records the remote address of the caller for audit events.
func WithSourceIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, sourceIPKey, ip)
}

// SourceIPFromContext returns the caller address recorded by WithSourceIP, if any.
func SourceIPFromContext(ctx context.Context) string {
	ip, _ := ctx.Value(sourceIPKey).(string)
	return ip
}

// ParseLevel maps a configured level name to a zerolog level, defaulting to info.
func ParseLevel(logLevel string) zerolog.Level {
	return getLogLevel(logLevel)
}

// Helper function to get the log level
func getLogLevel(logLevel string) zerolog.Level {
	switch strings.ToLower(logLevel) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	case "panic":
		return zerolog.PanicLevel
	default:
		return zerolog.InfoLevel
	}
}

// Helper function to colorize text
func colorize(s string, color int) string {
	return fmt.Sprintf("\x1b[%dm%s\x1b[0m", color, s)
}
