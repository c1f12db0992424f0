package logging

import (
	"strings"

	"github.com/rs/zerolog"
)

// BadgerLogger routes BadgerDB's printf-style logging into zerolog.
// Badger's info chatter is demoted to debug.
type BadgerLogger struct {
	log zerolog.Logger
}

func NewBadgerLogger() *BadgerLogger {
	return &BadgerLogger{log: Component("badger")}
}

func (l *BadgerLogger) Errorf(format string, args ...interface{}) {
	l.log.Error().Msgf(trim(format), args...)
}

func (l *BadgerLogger) Warningf(format string, args ...interface{}) {
	l.log.Warn().Msgf(trim(format), args...)
}

func (l *BadgerLogger) Infof(format string, args ...interface{}) {
	l.log.Debug().Msgf(trim(format), args...)
}

func (l *BadgerLogger) Debugf(format string, args ...interface{}) {
	l.log.Trace().Msgf(trim(format), args...)
}

func trim(format string) string {
	return strings.TrimRight(format, "\n")
}
