// Package log provides loggers for rack components.
package log

import (
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
	"golang.org/x/term"
)

var debug bool

// Logger is a global interface for rack loggers.
type Logger interface {
	Debug(...interface{})
	Info(...interface{})
	Warn(...interface{})
}

func init() {
	var err error
	debug, err = strconv.ParseBool(os.Getenv("RACK_DEBUG"))
	if err != nil {
		debug = false
	}
}

// GetLogger returns a new logger instance. Debug level is enabled with
// RACK_DEBUG environment variable. Output is JSON-formatted unless stderr
// is a terminal.
func GetLogger() *logrus.Logger {
	l := logrus.New()
	if debug {
		l.SetLevel(logrus.DebugLevel)
	}
	if !term.IsTerminal(int(os.Stderr.Fd())) {
		l.SetFormatter(&logrus.JSONFormatter{})
	}
	return l
}

// Silent returns a logger which discards everything.
func Silent() Logger {
	return silentLogger{}
}

type silentLogger struct{}

func (silentLogger) Debug(args ...interface{}) {}

func (silentLogger) Info(args ...interface{}) {}

func (silentLogger) Warn(args ...interface{}) {}
