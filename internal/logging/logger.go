// Package logging configures the process-wide zerolog logger and hands out
// component sub-loggers the rest of the engine tags its events with.
package logging

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Log is the process-wide logger, configured once by Initialize.
var Log zerolog.Logger

// Initialize configures the global logger: pretty console output in dev,
// structured JSON otherwise.
func Initialize(level string, pretty bool) {
	logLevel, err := zerolog.ParseLevel(level)
	if err != nil {
		logLevel = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(logLevel)

	if pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		})
	} else {
		zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	}

	Log = log.With().Str("service", "taskcrafter").Logger().Level(logLevel)
	Log.Info().Str("level", logLevel.String()).Bool("pretty", pretty).Msg("logger initialized")
}

func component(name string) *zerolog.Logger {
	l := Log.With().Str("component", name).Logger()
	return &l
}

// Engine is the Job Manager's logger.
func Engine() *zerolog.Logger { return component("engine") }

// Scheduler is the scheduler's logger.
func Scheduler() *zerolog.Logger { return component("scheduler") }

// Plugin is the plugin registry/executor's logger.
func Plugin() *zerolog.Logger { return component("plugin") }

// Container is the container driver's logger.
func Container() *zerolog.Logger { return component("container") }

func init() {
	// A sensible default so packages used from tests (which never call
	// Initialize) still get a usable logger instead of the zero value.
	Log = log.With().Str("service", "taskcrafter").Logger()
}
