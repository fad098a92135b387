package logx

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tutor-orchestrator/server/internal/core"
)

var DefaultLoggerOpts = &LoggerOpts{
	Environment: core.Development,
}

type LoggerOpts struct {
	Environment core.Environment
	// Level overrides the environment default (debug, info, warn, error).
	Level string
	// Output defaults to stderr.
	Output io.Writer
}

func safe(otps ...LoggerOpts) *LoggerOpts {
	if len(otps) == 0 {
		return DefaultLoggerOpts
	}
	return &otps[0]
}

func Init(otps ...LoggerOpts) {
	opts := safe(otps...)
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	level := zerolog.InfoLevel
	if opts.Environment.IsProduction() {
		log.Logger = zerolog.New(out).With().Timestamp().Logger()
	} else {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: out}).With().Timestamp().Caller().Logger()
		if opts.Environment.Verbose() {
			level = zerolog.DebugLevel
		}
	}
	if lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(opts.Level))); err == nil && opts.Level != "" {
		level = lvl
	}
	log.Logger = log.Logger.Level(level)
}

func Debug() *zerolog.Event {
	return log.Debug()
}

func Info() *zerolog.Event {
	return log.Info()
}

func Warn() *zerolog.Event {
	return log.Warn()
}

func Error() *zerolog.Event {
	return log.Error()
}

func Fatal() *zerolog.Event {
	return log.Fatal()
}
