// Package klog is the kernel's logging surface (SPEC_FULL.md 2.1): a
// thin wrapper over the standard log package, in the teacher's own
// plain-fmt idiom (no third-party structured-logging library exists
// anywhere in the retrieved corpus to follow instead).
package klog

import (
	"log"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// Printf logs a kernel message, matching the teacher's direct
// fmt.Printf-style diagnostics rather than a leveled logger.
func Printf(format string, args ...any) {
	log.Printf(format, args...)
}

// Count formats n with locale-aware digit grouping via
// golang.org/x/text/message (SPEC_FULL.md 2.2), for diagnostics that
// report large counters (ticks elapsed, blocks allocated) in a form a
// human operator can read at a glance.
func Count(label string, n int) string {
	return printer.Sprintf("%s: %d", label, n)
}
