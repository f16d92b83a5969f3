// Package logger provides the small structured-logging surface used
// throughout the read-until client. It follows the same shape the host
// program's own ambient logging takes: a narrow interface so every
// component can be unit-tested with a stub, plus a stdlib-backed default.
package logger

// Logger is implemented by anything that can sink leveled, printf-style
// log lines. Components never depend on the concrete implementation.
type Logger interface {
	Log(msg string)
	Logf(format string, v ...any)

	Debug(msg string)
	Debugf(format string, v ...any)

	Warn(msg string)
	Warnf(format string, v ...any)

	Error(msg string)
	Errorf(format string, v ...any)

	Fatal(msg string)
	Fatalf(format string, v ...any)
}
