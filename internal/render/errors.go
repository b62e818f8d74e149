package render

import (
	"errors"
	"fmt"
)

// UsageError marks a programmer mistake in component code: placing outside
// an active pass, duplicate child ids from double-mounting, containers
// built from leaf components, divergent local-state allocation. Usage
// errors abort the pass and are never silently recovered; the session
// itself stays usable for the next external event.
type UsageError struct {
	msg string
}

func (e *UsageError) Error() string {
	return "render usage error: " + e.msg
}

func usageErrorf(format string, args ...any) error {
	return &UsageError{msg: fmt.Sprintf(format, args...)}
}

// IsUsageError reports whether err is (or wraps) a UsageError.
func IsUsageError(err error) bool {
	var ue *UsageError
	return errors.As(err, &ue)
}
