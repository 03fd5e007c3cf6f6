// Package logging configures the process-wide logrus logger for shuttle
// binaries. Library packages log through logrus directly; only binaries
// call Setup.
package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Setup sets the global log level and destination. An empty logFile keeps
// stderr; console=false silences terminal output when a file is set.
func Setup(level, logFile string, console bool) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logrus.SetLevel(lvl)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	if logFile == "" {
		return nil
	}
	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	if console {
		logrus.SetOutput(io.MultiWriter(os.Stderr, f))
	} else {
		logrus.SetOutput(f)
	}
	return nil
}
