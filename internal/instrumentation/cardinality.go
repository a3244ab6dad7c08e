package instrumentation

import "strings"

// ExtractMailboxDomain extracts the domain part from a mailbox address.
// This reduces cardinality by using the domain instead of the full address.
//
// Example:
//
//	ExtractMailboxDomain("requests@contoso.com")  // "contoso.com"
//	ExtractMailboxDomain("invalid")               // "unknown"
//	ExtractMailboxDomain("")                      // "unknown"
func ExtractMailboxDomain(email string) string {
	if email == "" {
		return "unknown"
	}

	parts := strings.Split(email, "@")
	if len(parts) == 2 && parts[1] != "" {
		return strings.ToLower(parts[1])
	}

	return "unknown"
}
