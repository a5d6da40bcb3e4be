// Package logging is a thin level gate over the standard library logger.
// Components log through Debugf/Infof/Warnf/Errorf with a "[component]"
// message prefix; the active level is set once at startup from configuration.
package logging

import (
	"fmt"
	"log"
	"sync/atomic"
)

// Level controls which messages are emitted.
type Level int32

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarning
	LevelError
)

var current atomic.Int32

func init() {
	current.Store(int32(LevelInfo))
}

// ParseLevel maps a configuration string to a Level.
func ParseLevel(s string) (Level, error) {
	switch s {
	case "debug":
		return LevelDebug, nil
	case "info":
		return LevelInfo, nil
	case "warning":
		return LevelWarning, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("logging: unknown level %q", s)
	}
}

// SetLevel sets the process-wide log level.
func SetLevel(l Level) {
	current.Store(int32(l))
}

// Enabled reports whether messages at level l are currently emitted.
func Enabled(l Level) bool {
	return int32(l) >= current.Load()
}

// Debugf logs a debug message.
func Debugf(format string, args ...any) {
	if Enabled(LevelDebug) {
		log.Printf(format, args...)
	}
}

// Infof logs an informational message.
func Infof(format string, args ...any) {
	if Enabled(LevelInfo) {
		log.Printf(format, args...)
	}
}

// Warnf logs a warning.
func Warnf(format string, args ...any) {
	if Enabled(LevelWarning) {
		log.Printf(format, args...)
	}
}

// Errorf logs an error.
func Errorf(format string, args ...any) {
	if Enabled(LevelError) {
		log.Printf(format, args...)
	}
}
