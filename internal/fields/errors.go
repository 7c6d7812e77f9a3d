// internal/fields/errors.go
package fields

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNoRequiredFields is returned when a verification is asked to check an
// empty key set. It signals a broken scenario, not a broken page.
var ErrNoRequiredFields = errors.New("no required fields found to verify error messages")

// DiscoveryTimeoutError reports that the dialog never rendered a control
// matching Selector.
type DiscoveryTimeoutError struct {
	Selector string
	Timeout  time.Duration
}

func (e *DiscoveryTimeoutError) Error() string {
	return fmt.Sprintf("timeout: no child elements found for selector %s within %s", e.Selector, e.Timeout)
}

// DuplicateLabelError is returned under DuplicateReject when two controls of
// the same kind share a label.
type DuplicateLabelError struct {
	Kind  Kind
	Label string
}

func (e *DuplicateLabelError) Error() string {
	return fmt.Sprintf("duplicate %s field label %q", e.Kind, e.Label)
}

// DuplicatePolicy decides how a repeated label is keyed.
type DuplicatePolicy string

const (
	// DuplicatePositional keys later duplicates as "<label> (n)".
	DuplicatePositional DuplicatePolicy = "positional"
	// DuplicateReject fails the extraction.
	DuplicateReject DuplicatePolicy = "reject"
	// DuplicateLastWins keeps only the last control with the label.
	DuplicateLastWins DuplicatePolicy = "last_wins"
)

// ParseDuplicatePolicy maps a configuration string to a policy. The empty
// string selects DuplicatePositional.
func ParseDuplicatePolicy(s string) (DuplicatePolicy, error) {
	switch p := DuplicatePolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return DuplicatePositional, nil
	case DuplicatePositional, DuplicateReject, DuplicateLastWins:
		return p, nil
	default:
		return "", fmt.Errorf("unknown duplicate policy %q", s)
	}
}
