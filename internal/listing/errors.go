package listing

import (
	"errors"
	"fmt"
	"strings"
)

// Reason categorizes why a listing line was rejected.
type Reason string

const (
	// ReasonMissingSeparator indicates the line has no "==".
	ReasonMissingSeparator Reason = "missing separator"

	// ReasonEmptyName indicates nothing precedes the separator.
	ReasonEmptyName Reason = "empty name"

	// ReasonEmptyVersion indicates nothing follows the separator.
	ReasonEmptyVersion Reason = "empty version"
)

// LineError describes one malformed line of a listing.
type LineError struct {
	// Line is the 1-based line number in the raw input, counting empty lines.
	Line int

	// Text is the raw line content.
	Text string

	Reason Reason
}

func (e LineError) String() string {
	return fmt.Sprintf("line %d %q: %s", e.Line, e.Text, e.Reason)
}

// ParseError is returned when a listing violates the name==version contract.
// It aggregates every malformed line so the caller can report them together.
type ParseError struct {
	Lines []LineError
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if len(e.Lines) == 1 {
		return "malformed listing: " + e.Lines[0].String()
	}
	parts := make([]string, len(e.Lines))
	for i, l := range e.Lines {
		parts[i] = l.String()
	}
	return fmt.Sprintf("malformed listing: %d bad lines: %s", len(e.Lines), strings.Join(parts, "; "))
}

// IsParseError reports whether err is or wraps a *ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}
