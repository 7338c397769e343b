/*
Package logx wraps zerolog with the application-wide logger setup.

It initializes the global logger once at startup, switching between a
human-readable console writer (development) and plain JSON (production),
and exposes small level helpers used throughout the server.
*/
package logx

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// InitGlobalLogger configures the process-wide zerolog instance.
// Development gets Debug level and a colored console writer; production
// gets Info level JSON. All entries carry a Unix timestamp and caller.
func InitGlobalLogger(isDevelopment bool) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	if isDevelopment {
		logger = logger.Output(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			NoColor:    false,
			TimeFormat: time.RFC3339,
		})
		logger = logger.Level(zerolog.DebugLevel)
	} else {
		logger = logger.Level(zerolog.InfoLevel)
	}

	log.Logger = logger.With().Caller().Logger()
}

// Logger returns the global zerolog.Logger.
func Logger() *zerolog.Logger {
	return &log.Logger
}

// pairs drops an odd-length field list instead of letting zerolog panic.
func pairs(level string, fields []any) []any {
	if len(fields)%2 != 0 {
		Logger().Warn().
			Int("fields_count", len(fields)).
			Str("log_level", level).
			Msg("logx call received an odd number of fields, ignoring them")
		return nil
	}
	return fields
}

// Debug records a Debug-level message with optional key-value fields.
func Debug(msg string, fields ...any) {
	Logger().Debug().
		Fields(pairs("Debug", fields)).
		CallerSkipFrame(1).
		Msg(msg)
}

// Info records an Info-level message with optional key-value fields.
func Info(msg string, fields ...any) {
	Logger().Info().
		Fields(pairs("Info", fields)).
		CallerSkipFrame(1).
		Msg(msg)
}

// Warn records a Warn-level message with optional key-value fields.
func Warn(msg string, fields ...any) {
	Logger().Warn().
		Fields(pairs("Warn", fields)).
		CallerSkipFrame(1).
		Msg(msg)
}

// Error records an Error-level message together with the causing error.
func Error(err error, msg string, fields ...any) {
	Logger().Error().
		Err(err).
		Fields(pairs("Error", fields)).
		CallerSkipFrame(1).
		Msg(msg)
}

// Fatal records the error and terminates the process with exit code 1.
func Fatal(err error, msg string, fields ...any) {
	Logger().Fatal().
		Err(err).
		Fields(pairs("Fatal", fields)).
		CallerSkipFrame(1).
		Msg(msg)
}
