package util

import (
	"sync"
)

var (
	globalLogger LoggerInterface
	loggerOnce   sync.Once
)

// InitLogger installs the process-wide logger. Repeated calls keep the first
// configuration; the CLI and watch mode both funnel through here.
func InitLogger(logLevel, logFile string, debugToConsole bool) {
	loggerOnce.Do(func() {
		globalLogger = NewLogger(logLevel, logFile, debugToConsole)
	})
}

// active returns the installed logger, or nil before InitLogger runs. The
// Log* helpers are no-ops in the nil window, so library code can log
// unconditionally (tests never initialize a logger).
func active() LoggerInterface {
	return globalLogger
}

func LogInfo(msg string) {
	if l := active(); l != nil {
		l.Info(msg)
	}
}

func LogInfof(format string, args ...interface{}) {
	if l := active(); l != nil {
		l.Infof(format, args...)
	}
}

func LogDebug(msg string) {
	if l := active(); l != nil {
		l.Debug(msg)
	}
}

func LogDebugf(format string, args ...interface{}) {
	if l := active(); l != nil {
		l.Debugf(format, args...)
	}
}

func LogWarn(msg string) {
	if l := active(); l != nil {
		l.Warn(msg)
	}
}

func LogWarnf(format string, args ...interface{}) {
	if l := active(); l != nil {
		l.Warnf(format, args...)
	}
}

func LogError(msg string) {
	if l := active(); l != nil {
		l.Error(msg)
	}
}

func LogErrorf(format string, args ...interface{}) {
	if l := active(); l != nil {
		l.Errorf(format, args...)
	}
}
