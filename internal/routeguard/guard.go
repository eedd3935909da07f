package routeguard

import (
	"net/url"
	"strings"

	"github.com/coldrackhq/coldrack-backend/internal/permissions"
	"github.com/coldrackhq/coldrack-backend/pkg/enums"
)

// Action is the navigation outcome of evaluating a path against the
// current session state.
type Action string

const (
	// ActionAllow lets the navigation proceed unchanged.
	ActionAllow Action = "allow"
	// ActionDefer means identity is still loading and no decision can be
	// made yet. The caller re-evaluates once loading settles.
	ActionDefer Action = "defer"
	// ActionRedirectLogin sends the visitor to the login surface with the
	// attempted path carried in the `from` query parameter.
	ActionRedirectLogin Action = "redirect_login"
	// ActionRedirectDashboard sends an authenticated but unauthorized
	// visitor back to the dashboard root.
	ActionRedirectDashboard Action = "redirect_dashboard"
)

const (
	// DashboardRoot is the canonical landing path for authenticated users.
	DashboardRoot = "/dashboard"
	// LoginPath is the unauthenticated login surface.
	LoginPath = "/login"
)

// State is the session snapshot a decision is computed against. Identity
// is nil while unauthenticated; Loading is true until the initial identity
// fetch resolves.
type State struct {
	Loading  bool
	Identity *permissions.Identity
}

// Decision is the result of evaluating one navigation. Target is set only
// for the redirect actions.
type Decision struct {
	Action Action
	Target string
}

// PageForPath maps a request path onto its dashboard page id. The
// dashboard root maps to the dashboard page; /dashboard/<segment> maps to
// <segment>; everything else is unguarded and maps to the empty page.
func PageForPath(path string) enums.Page {
	path = strings.TrimSuffix(path, "/")
	if path == DashboardRoot {
		return enums.PageDashboard
	}
	rest, ok := strings.CutPrefix(path, DashboardRoot+"/")
	if !ok || rest == "" || strings.Contains(rest, "/") {
		return enums.Page("")
	}
	return enums.Page(rest)
}

// Decide evaluates a single navigation. It is pure: the same path and
// state always produce the same decision, and applying a redirect then
// re-evaluating at the target never produces a second redirect.
func Decide(path string, state State) Decision {
	page := PageForPath(path)
	if page == "" {
		return Decision{Action: ActionAllow}
	}
	if state.Loading {
		return Decision{Action: ActionDefer}
	}
	if state.Identity == nil {
		return Decision{
			Action: ActionRedirectLogin,
			Target: LoginPath + "?from=" + url.QueryEscape(path),
		}
	}
	if page == enums.PageSettings {
		return Decision{Action: ActionAllow}
	}
	if permissions.CanView(state.Identity, page) {
		return Decision{Action: ActionAllow}
	}
	// Already at the redirect target; navigating again would loop.
	if page == enums.PageDashboard {
		return Decision{Action: ActionAllow}
	}
	return Decision{Action: ActionRedirectDashboard, Target: DashboardRoot}
}
