package main

import (
	"os"

	"github.com/btcsuite/btclog"
	"github.com/jrick/logrotate/rotator"
	"github.com/lightning-gossipd/gossipd/graph"
	"github.com/lightning-gossipd/gossipd/gossipd"
)

// logRotator rotates the log file, initialized in initLogRotator and written
// to by backendLog.
var logRotator *rotator.Rotator

// backendLog is the logging backend every subsystem's logger writes through,
// the same pattern subsystems across the example pack use: one shared
// btclog.Backend split into per-subsystem loggers at NewSubLogger time.
var backendLog = btclog.NewBackend(logWriter{})

// subsystemLoggers maps each subsystem tag to its registered logger, so
// setLogLevels can change every level at once.
var subsystemLoggers = make(map[string]btclog.Logger)

// logWriter implements io.Writer so rotator output can back a btclog.Backend.
type logWriter struct{}

func (logWriter) Write(p []byte) (int, error) {
	os.Stdout.Write(p)
	if logRotator != nil {
		logRotator.Write(p)
	}
	return len(p), nil
}

// initLogRotator opens (creating if necessary) the rotating log file at
// logFile.
func initLogRotator(logFile string) error {
	r, err := rotator.New(logFile, 10*1024, false, 3)
	if err != nil {
		return err
	}
	logRotator = r
	return nil
}

// addSubLogger registers tag with a fresh logger and wires it into the
// owning package via use.
func addSubLogger(tag string, use func(btclog.Logger)) {
	logger := backendLog.Logger(tag)
	use(logger)
	subsystemLoggers[tag] = logger
}

// setLogLevels applies level (e.g. "debug", "info") to every registered
// subsystem logger.
func setLogLevels(level string) {
	lvl, ok := btclog.LevelFromString(level)
	if !ok {
		return
	}
	for _, logger := range subsystemLoggers {
		logger.SetLevel(lvl)
	}
}

// gospdLog is this command's own top-level logger, used for startup and
// shutdown messages that don't belong to any one subsystem.
var gospdLog btclog.Logger

func init() {
	addSubLogger("GSPD", gossipd.UseLogger)
	addSubLogger("GRPH", graph.UseLogger)

	gospdLog = backendLog.Logger("MAIN")
	subsystemLoggers["MAIN"] = gospdLog
}
