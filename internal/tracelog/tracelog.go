// Package tracelog is a thin wrapper over the standard library's log
// package, giving every subsystem a bracketed-tag prefixed logger in the
// same style as the corpus's fmt.Printf("[BufferPool] ...") lines.
package tracelog

import (
	"log"
	"os"
)

// New returns a logger that prefixes every line with "[tag] ".
func New(tag string) *log.Logger {
	return log.New(os.Stdout, "["+tag+"] ", 0)
}
