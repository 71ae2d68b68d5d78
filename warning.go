package chemfiles

import (
	"fmt"
	"log"
)

// WarningFunc receives non-fatal warnings emitted by format adapters
// (e.g. a GRO atom index overflowing its column width). The default sink
// forwards to the standard logger, generalizing the plain log.Print
// calls the teacher package's format adapters used directly.
type WarningFunc func(msg string)

var warn WarningFunc = func(msg string) {
	log.Print("chemfiles: ", msg)
}

// SetWarningSink installs a callback for non-fatal warnings raised during
// reads and writes. Passing nil restores the default (log.Print) sink.
func SetWarningSink(f WarningFunc) {
	if f == nil {
		f = func(msg string) { log.Print("chemfiles: ", msg) }
	}
	warn = f
}

func warnf(format string, args ...interface{}) {
	warn(fmt.Sprintf(format, args...))
}

// Warnf emits a non-fatal warning through the installed sink. Format
// adapters in subpackages call this instead of writing to the logger
// directly, so SetWarningSink governs every adapter uniformly.
func Warnf(format string, args ...interface{}) {
	warnf(format, args...)
}
