// Package stdlog adapts the standard library logger to ports.Logger.
package stdlog

import (
	"fmt"
	"log"

	"blackjack/internal/ports"
)

// Logger prefixes each line with its level.
type Logger struct {
	l     *log.Logger
	debug bool
}

// New wraps l. Debug lines are dropped unless debug is set.
func New(l *log.Logger, debug bool) *Logger {
	return &Logger{l: l, debug: debug}
}

// Default logs through the standard logger.
func Default() *Logger { return New(log.Default(), false) }

func (g *Logger) Debug(format string, v ...interface{}) {
	if g.debug {
		g.print("DEBUG", format, v...)
	}
}

func (g *Logger) Info(format string, v ...interface{})  { g.print("INFO", format, v...) }
func (g *Logger) Warn(format string, v ...interface{})  { g.print("WARN", format, v...) }
func (g *Logger) Error(format string, v ...interface{}) { g.print("ERROR", format, v...) }

func (g *Logger) print(level, format string, v ...interface{}) {
	g.l.Printf("[%s] %s", level, fmt.Sprintf(format, v...))
}

var _ ports.Logger = (*Logger)(nil)
