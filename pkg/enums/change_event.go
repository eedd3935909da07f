package enums

import "fmt"

// ChangeTable names a table whose rows can emit change events.
type ChangeTable string

const (
	TableRacks        ChangeTable = "racks"
	TablePlacements   ChangeTable = "rack_placements"
	TableProductCodes ChangeTable = "product_codes"
	TableCategories   ChangeTable = "categories"
	TableUsers        ChangeTable = "users"
	TableActivity     ChangeTable = "activity_records"
)

var validChangeTables = []ChangeTable{
	TableRacks,
	TablePlacements,
	TableProductCodes,
	TableCategories,
	TableUsers,
	TableActivity,
}

// IsValid reports whether the value names a change-emitting table.
func (c ChangeTable) IsValid() bool {
	for _, candidate := range validChangeTables {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseChangeTable converts raw input into a ChangeTable.
func ParseChangeTable(value string) (ChangeTable, error) {
	for _, candidate := range validChangeTables {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid change table %q", value)
}

// ChangeAction describes what happened to a row.
type ChangeAction string

const (
	ChangeInsert ChangeAction = "insert"
	ChangeUpdate ChangeAction = "update"
	ChangeDelete ChangeAction = "delete"
)

// IsValid reports whether the value is a known ChangeAction.
func (c ChangeAction) IsValid() bool {
	return c == ChangeInsert || c == ChangeUpdate || c == ChangeDelete
}

// OutboxStatus tracks the publish lifecycle of a change event row.
type OutboxStatus string

const (
	OutboxPending   OutboxStatus = "pending"
	OutboxPublished OutboxStatus = "published"
	OutboxFailed    OutboxStatus = "failed"
)

// IsValid reports whether the value is a known OutboxStatus.
func (o OutboxStatus) IsValid() bool {
	return o == OutboxPending || o == OutboxPublished || o == OutboxFailed
}
