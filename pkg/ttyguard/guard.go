// Package ttyguard stops terminal capability probing for runs that never
// open the TUI. Import it for its side effect before anything that pulls in
// lipgloss:
//
//	import _ "github.com/vanderheijden86/tracklane/pkg/ttyguard"
package ttyguard

import (
	"os"
	"strings"
)

// init runs before Bubble Tea acquires the terminal.
//
// Lipgloss asks the terminal for its background colour when styles are first
// built. Under a pipe or a capture harness the query bytes end up in the
// output, which corrupts exports written to stdout. Termenv skips the probe
// when CI is set.
func init() {
	if os.Getenv("CI") != "" {
		return
	}
	if !headless(os.Args[1:], os.Getenv("TRACKLANE_TEST_MODE") != "") {
		return
	}
	_ = os.Setenv("CI", "1")
}

// headless reports whether the command line never reaches the TUI.
func headless(args []string, testMode bool) bool {
	if testMode {
		return true
	}
	for _, arg := range args {
		name, _, _ := strings.Cut(strings.TrimLeft(arg, "-"), "=")
		if !strings.HasPrefix(arg, "-") {
			continue
		}
		switch name {
		case "version", "help", "h", "export":
			return true
		}
	}
	return false
}
