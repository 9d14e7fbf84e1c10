// Package logger defines the logging collaborator used throughout TaskVault.
package logger

// Logger receives informational and diagnostic messages. Implementations
// must be safe for concurrent use.
type Logger interface {
	Info(...any)
	Debug(...any)
	Error(...any)
}

type nopLogger struct{}

// Nop returns a logger that discards everything.
func Nop() Logger {
	return nopLogger{}
}

func (nopLogger) Info(...any)  {}
func (nopLogger) Debug(...any) {}
func (nopLogger) Error(...any) {}
