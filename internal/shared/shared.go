// package shared holds cross-cutting helpers: logging, identifiers,
// configuration, and the error taxonomy.
package shared

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// NewLogger builds the application [log.Logger] writing to w, reporting
// timestamps and call sites. A nil writer falls back to [os.Stderr].
func NewLogger(w io.Writer) *log.Logger {
	if w == nil {
		w = os.Stderr
	}
	opts := log.Options{ReportTimestamp: true, ReportCaller: true}
	return log.NewWithOptions(w, opts)
}

// WithLogger derives a child logger carrying the given key-value pairs on
// every entry, used to tag a subsystem's log lines.
func WithLogger(l *log.Logger, kv ...any) *log.Logger {
	return l.With(kv...)
}

// GenerateID returns a fresh v4 UUID string, the identifier format for
// every entity in the system.
func GenerateID() string {
	return uuid.New().String()
}
