package enums

import "fmt"

// AccessKind distinguishes read access from mutation access on a page.
type AccessKind string

const (
	AccessView AccessKind = "view"
	AccessEdit AccessKind = "edit"
)

// IsValid reports whether the value is a known AccessKind.
func (a AccessKind) IsValid() bool {
	return a == AccessView || a == AccessEdit
}

// ParseAccessKind converts raw input into an AccessKind.
func ParseAccessKind(value string) (AccessKind, error) {
	kind := AccessKind(value)
	if !kind.IsValid() {
		return "", fmt.Errorf("invalid access kind %q", value)
	}
	return kind, nil
}
