package enums

import "fmt"

// ActivityType is the coarse tag attached to an activity record.
type ActivityType string

const (
	ActivityInbound  ActivityType = "inbound"
	ActivityOutbound ActivityType = "outbound"
	ActivityMove     ActivityType = "move"
	ActivityCreate   ActivityType = "create"
	ActivityUpdate   ActivityType = "update"
	ActivityDelete   ActivityType = "delete"
	ActivityImport   ActivityType = "import"
)

var validActivityTypes = []ActivityType{
	ActivityInbound,
	ActivityOutbound,
	ActivityMove,
	ActivityCreate,
	ActivityUpdate,
	ActivityDelete,
	ActivityImport,
}

// IsValid reports whether the value matches the canonical activity_type enum.
func (a ActivityType) IsValid() bool {
	for _, candidate := range validActivityTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseActivityType converts raw input into an ActivityType.
func ParseActivityType(value string) (ActivityType, error) {
	for _, candidate := range validActivityTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid activity type %q", value)
}
