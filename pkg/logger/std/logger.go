// Package std provides a Logger backed by the standard output streams.
package std

import (
	"fmt"
	"os"

	"github.com/taskvault/taskvault/pkg/logger"
)

type stdLogger struct {
	debug bool
}

// NewLogger returns a logger writing Info and Debug to stdout and Error to
// stderr. Debug output is suppressed unless enabled.
func NewLogger(debug bool) logger.Logger {
	return &stdLogger{debug: debug}
}

func (l *stdLogger) Info(args ...any) {
	fmt.Fprintln(os.Stdout, args...)
}

func (l *stdLogger) Debug(args ...any) {
	if !l.debug {
		return
	}
	fmt.Fprintln(os.Stdout, args...)
}

func (l *stdLogger) Error(args ...any) {
	fmt.Fprintln(os.Stderr, args...)
}
