package enums

import "fmt"

// Page identifies a dashboard surface that can be permission-gated.
type Page string

const (
	PageDashboard Page = "dashboard"
	PageRacks     Page = "racks"
	PageProducts  Page = "products"
	PageHistory   Page = "history"
	PageUsers     Page = "users"
	PageSettings  Page = "settings"
)

// GatedPages lists every page that participates in per-user grants.
// Settings is reachable by any authenticated user and carries no grant.
var GatedPages = []Page{
	PageDashboard,
	PageRacks,
	PageProducts,
	PageHistory,
	PageUsers,
}

func (p Page) IsValid() bool {
	switch p {
	case PageDashboard, PageRacks, PageProducts, PageHistory, PageUsers, PageSettings:
		return true
	}
	return false
}

// IsGated reports whether the page requires a view grant for non-admins.
func (p Page) IsGated() bool {
	return p.IsValid() && p != PageSettings
}

// ParsePage converts a raw identifier into a Page.
func ParsePage(value string) (Page, error) {
	page := Page(value)
	if !page.IsValid() {
		return "", fmt.Errorf("unknown page %q", value)
	}
	return page, nil
}
