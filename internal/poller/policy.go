package poller

import (
	"fmt"
	"strings"
)

// CursorPolicy decides when a processed match overwrites the cursor.
type CursorPolicy string

const (
	// PolicyMax overwrites the cursor only with a newer message, keeping the
	// stored timestamp monotonic regardless of API ordering.
	PolicyMax CursorPolicy = "max"

	// PolicyLast overwrites the cursor with every processed match.
	PolicyLast CursorPolicy = "last"
)

// ParseCursorPolicy parses a policy name. The empty string selects PolicyMax.
func ParseCursorPolicy(s string) (CursorPolicy, error) {
	switch CursorPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyMax:
		return PolicyMax, nil
	case PolicyLast:
		return PolicyLast, nil
	default:
		return "", fmt.Errorf("unknown cursor policy %q (want %q or %q)", s, PolicyMax, PolicyLast)
	}
}
