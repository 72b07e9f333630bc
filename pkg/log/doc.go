/*
Package log provides structured logging for stride using zerolog.

# Usage

Initializing the Logger:

	import "github.com/cuemby/stride/pkg/log"

	log.Init(log.Config{
		Level:      log.InfoLevel,
		JSONOutput: true,
		Output:     os.Stdout,
	})

Simple Logging:

	log.Info("scheduler starting")
	log.Debug("admitted job")
	log.Warn("solver exceeded timeout")
	log.Error("upload failed")

Context Loggers:

	jobLog := log.WithIID(42)
	jobLog.Info().Msg("job finished")

	runLog := log.WithRunUUID(runUUID.String())
	runLog.Info().Msg("run started")

# Design

A single package-level zerolog.Logger is initialized once via Init() and
used from every package. WithComponent, WithIID, and WithRunUUID return
child loggers carrying extra fields without mutating the global one.
*/
package log
