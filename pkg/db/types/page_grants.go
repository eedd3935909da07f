package dbtypes

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/coldrackhq/coldrack-backend/pkg/enums"
)

// PageAccess is the per-page grant pair.
type PageAccess struct {
	View bool `json:"view"`
	Edit bool `json:"edit"`
}

// PageGrants maps each page to its grant pair. Stored as jsonb; pages
// absent from the map carry no access.
type PageGrants map[enums.Page]PageAccess

func (g *PageGrants) Scan(src any) error {
	if src == nil {
		*g = PageGrants{}
		return nil
	}

	var raw []byte
	switch v := src.(type) {
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("PageGrants: unsupported Scan type %T", src)
	}

	if len(raw) == 0 {
		*g = PageGrants{}
		return nil
	}

	out := PageGrants{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("PageGrants: decode jsonb: %w", err)
	}
	*g = out
	return nil
}

func (g PageGrants) Value() (driver.Value, error) {
	if g == nil {
		return "{}", nil
	}
	raw, err := json.Marshal(g)
	if err != nil {
		return nil, fmt.Errorf("PageGrants: encode jsonb: %w", err)
	}
	return string(raw), nil
}

// Normalized returns a copy restricted to valid pages, with edit implying
// view scrubbed off (an edit grant without view is dropped to view=false,
// edit=false rather than silently widened).
func (g PageGrants) Normalized() PageGrants {
	out := PageGrants{}
	for page, access := range g {
		if !page.IsValid() {
			continue
		}
		if access.Edit && !access.View {
			continue
		}
		out[page] = access
	}
	return out
}
