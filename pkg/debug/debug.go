// Package debug is tracklane's conditional logger.
//
// Logging is switched on with the TL_DEBUG environment variable:
//
//	TL_DEBUG=1 tl match.json
//
// The TUI owns the terminal while it runs, so set TL_DEBUG_LOG to a file
// path to send the output there instead of stderr. With logging off every
// function here returns immediately.
package debug

import (
	"io"
	"log"
	"os"
	"time"
)

const prefix = "[TL_DEBUG] "

var (
	enabled  bool
	warnings bool
	logger   *log.Logger
)

func init() {
	if os.Getenv("TL_DEBUG") == "" {
		return
	}
	enabled = true
	var out io.Writer = os.Stderr
	if path := os.Getenv("TL_DEBUG_LOG"); path != "" {
		if f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644); err == nil {
			out = f
		}
	}
	logger = log.New(out, prefix, log.Ltime|log.Lmicroseconds)
}

// Enabled reports whether debug logging is on.
func Enabled() bool {
	return enabled
}

// SetEnabled switches debug logging on or off at runtime.
func SetEnabled(e bool) {
	enabled = e
	if e && logger == nil {
		logger = log.New(os.Stderr, prefix, log.Ltime|log.Lmicroseconds)
	}
}

// SetOutput redirects the logger. Tests use it to capture output.
func SetOutput(w io.Writer) {
	logger = log.New(w, prefix, log.Ltime|log.Lmicroseconds)
}

// SetWarnings turns Warn output on even when debug logging is off.
func SetWarnings(on bool) {
	warnings = on
	if on && logger == nil {
		logger = log.New(os.Stderr, prefix, log.Ltime|log.Lmicroseconds)
	}
}

// Log writes a printf-style message when debug logging is on.
func Log(format string, args ...any) {
	if !enabled {
		return
	}
	logger.Printf(format, args...)
}

// LogIf writes a message only when cond holds.
func LogIf(cond bool, format string, args ...any) {
	if !enabled || !cond {
		return
	}
	logger.Printf(format, args...)
}

// Warn writes a non-fatal warning. It is emitted when debug logging or
// warnings are on.
func Warn(format string, args ...any) {
	if !enabled && !warnings {
		return
	}
	logger.Printf("WARN "+format, args...)
}

// LogTiming writes how long name took.
func LogTiming(name string, d time.Duration) {
	if !enabled {
		return
	}
	logger.Printf("%s took %v", name, d)
}

// LogEnterExit logs entry now and exit, with elapsed time, when the returned
// func runs:
//
//	defer debug.LogEnterExit("ReadState")()
func LogEnterExit(name string) func() {
	if !enabled {
		return func() {}
	}
	logger.Printf("-> %s", name)
	start := time.Now()
	return func() {
		logger.Printf("<- %s (%v)", name, time.Since(start))
	}
}

// Dump logs v with its type.
func Dump(name string, v any) {
	if !enabled {
		return
	}
	logger.Printf("%s: %T = %+v", name, v, v)
}
