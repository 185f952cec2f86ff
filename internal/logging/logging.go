package logging

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	DefaultMaxSizeMB  = 50
	DefaultMaxBackups = 5
	DefaultMaxAgeDays = 30
	timeFormat        = "2006-01-02 15:04:05"
)

// Apply sets the global log level and output writers. When logFilePath is
// non-empty a rotating file is written alongside the console.
func Apply(level, logFilePath string) {
	zerolog.SetGlobalLevel(ParseLevel(level))

	consoleOutput := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: timeFormat}
	log.Logger = zerolog.New(consoleOutput).With().Timestamp().Logger()

	if logFilePath == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(logFilePath), 0o755); err != nil {
		log.Error().Err(err).Str("path", logFilePath).Msg("Failed to prepare log directory; logging to console only")
		return
	}

	fileWriter := &lumberjack.Logger{
		Filename:   logFilePath,
		MaxSize:    DefaultMaxSizeMB,
		MaxBackups: DefaultMaxBackups,
		MaxAge:     DefaultMaxAgeDays,
		Compress:   true,
	}
	fileConsole := zerolog.ConsoleWriter{Out: fileWriter, TimeFormat: timeFormat, NoColor: true}

	log.Logger = zerolog.New(zerolog.MultiLevelWriter(consoleOutput, fileConsole)).With().Timestamp().Logger()
}

func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// GinLogger replaces gin's default request logger.
func GinLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		ev := log.Info()
		switch {
		case status >= 500:
			ev = log.Error()
		case status >= 400:
			ev = log.Warn()
		}
		ev.Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("duration", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("HTTP request")
	}
}
