package log

import (
	"github.com/kataras/golog"
)

// GologLogger writes through a kataras/golog logger. Components get child
// loggers from Named so every line names the part of the assistant that
// wrote it (agent, crawler, sessions).
type GologLogger struct {
	logger *golog.Logger
	level  LogLevel
}

var _ Logger = (*GologLogger)(nil)

var gologLevels = map[LogLevel]golog.Level{
	LogLevelDebug: golog.DebugLevel,
	LogLevelInfo:  golog.InfoLevel,
	LogLevelWarn:  golog.WarnLevel,
	LogLevelError: golog.ErrorLevel,
	LogLevelNone:  golog.DisableLevel,
}

// NewGologLogger wraps an existing golog.Logger at info level.
func NewGologLogger(logger *golog.Logger) *GologLogger {
	l := &GologLogger{logger: logger}
	l.SetLevel(LogLevelInfo)
	return l
}

// Named returns a child logger whose lines are prefixed with "name: ".
// Children start at the parent's level; repeated names share one child.
func (l *GologLogger) Named(name string) *GologLogger {
	child := &GologLogger{logger: l.logger.Child(name)}
	child.SetLevel(l.level)
	return child
}

func (l *GologLogger) enabled(level LogLevel) bool {
	return l.level != LogLevelNone && l.level <= level
}

func (l *GologLogger) Debug(format string, v ...any) {
	if l.enabled(LogLevelDebug) {
		l.logger.Debugf(format, v...)
	}
}

func (l *GologLogger) Info(format string, v ...any) {
	if l.enabled(LogLevelInfo) {
		l.logger.Infof(format, v...)
	}
}

func (l *GologLogger) Warn(format string, v ...any) {
	if l.enabled(LogLevelWarn) {
		l.logger.Warnf(format, v...)
	}
}

func (l *GologLogger) Error(format string, v ...any) {
	if l.enabled(LogLevelError) {
		l.logger.Errorf(format, v...)
	}
}

// SetLevel sets the level on both this wrapper and the underlying golog logger.
func (l *GologLogger) SetLevel(level LogLevel) {
	gl, ok := gologLevels[level]
	if !ok {
		level, gl = LogLevelInfo, golog.InfoLevel
	}
	l.level = level
	l.logger.Level = gl
}

// GetLevel returns the current log level
func (l *GologLogger) GetLevel() LogLevel {
	return l.level
}

// Named returns a component logger when logger supports it, and logger
// itself otherwise.
func Named(logger Logger, name string) Logger {
	if n, ok := logger.(interface{ Named(string) *GologLogger }); ok {
		return n.Named(name)
	}
	return logger
}
