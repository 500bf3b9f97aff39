package models

import "strings"

// ErrorCategory is the coarse issue class assigned by the categorizer.
type ErrorCategory string

const (
	CategoryAuthentication  ErrorCategory = "AUTHENTICATION"
	CategorySynchronization ErrorCategory = "SYNCHRONIZATION"
	CategoryNetwork         ErrorCategory = "NETWORK"
	CategoryDatabase        ErrorCategory = "DATABASE"
	CategoryPerformance     ErrorCategory = "PERFORMANCE"
	CategoryUIInteraction   ErrorCategory = "UI_INTERACTION"
	CategoryFileSystem      ErrorCategory = "FILE_SYSTEM"
	CategoryUnknown         ErrorCategory = "UNKNOWN"
)

// Categories lists every category in categorizer priority order,
// UNKNOWN last.
var Categories = []ErrorCategory{
	CategoryAuthentication,
	CategorySynchronization,
	CategoryNetwork,
	CategoryDatabase,
	CategoryPerformance,
	CategoryUIInteraction,
	CategoryFileSystem,
	CategoryUnknown,
}

// IssueType returns the lower-case identifier used for correlation events
// and dependency graph nodes ("network", "file_system", ...).
func (c ErrorCategory) IssueType() string {
	return strings.ToLower(string(c))
}

// ParseCategory resolves a category name or issue type.
func ParseCategory(name string) (ErrorCategory, error) {
	upper := ErrorCategory(strings.ToUpper(strings.TrimSpace(name)))
	for _, c := range Categories {
		if c == upper {
			return c, nil
		}
	}
	return CategoryUnknown, NewValidationError("unknown category %q", name)
}
