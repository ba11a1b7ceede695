// Package monitoring carries the process-wide diagnostic logger shared by
// the readers, plotters and the chart server.
package monitoring

import "log"

// Logf is the package-level diagnostic logger. It defaults to log.Printf
// but may be replaced by SetLogger. The batch CLIs mute it under --quiet;
// tests redirect it to capture output.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil installs a no-op
// logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// Quiet mutes the package logger. Shorthand for SetLogger(nil).
func Quiet() { SetLogger(nil) }
