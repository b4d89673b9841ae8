// Package routeguard decides where a client may navigate. It starts in
// Loading, settles on Authenticated or Unauthenticated once the session
// is known, and returns to Unauthenticated on logout or session expiry.
package routeguard

import (
	"strings"
	"sync"

	"github.com/dalemusser/volunteerhub/internal/domain/models"
)

// State is the guard's authentication state.
type State int

const (
	Loading State = iota
	Authenticated
	Unauthenticated
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Authenticated:
		return "authenticated"
	case Unauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// Navigation roots.
const (
	LoginPath      = "/login"
	SuperAdminRoot = "/super-admin"
	AdminRoot      = "/admin"
	VolunteerRoot  = "/volunteer"
	ProfilePath    = "/profile"
)

// RootFor returns the dashboard root of userType, or LoginPath for an
// unknown type.
func RootFor(userType string) string {
	switch userType {
	case models.RoleSuperAdmin:
		return SuperAdminRoot
	case models.RoleNonprofitAdmin:
		return AdminRoot
	case models.RoleVolunteer:
		return VolunteerRoot
	default:
		return LoginPath
	}
}

// Allowed reports whether userType may open path: anything under its own
// root, plus the shared profile page.
func Allowed(userType, path string) bool {
	root := RootFor(userType)
	if root == LoginPath {
		return false
	}
	return under(path, root) || under(path, ProfilePath)
}

func under(path, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

// Decision is the outcome of a navigation request. Exactly one of Wait,
// Redirect or neither (allowed) applies.
type Decision struct {
	Wait     bool   // still loading; show a spinner
	Redirect string // go here instead
}

// Allowed reports whether the requested path may be shown as is.
func (d Decision) Allowed() bool {
	return !d.Wait && d.Redirect == ""
}

// Guard tracks the state and answers navigation requests. It is safe for
// concurrent use.
type Guard struct {
	mu       sync.RWMutex
	state    State
	userType string
}

// New returns a guard in Loading.
func New() *Guard {
	return &Guard{state: Loading}
}

// State returns the current state.
func (g *Guard) State() State {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.state
}

// UserType returns the signed-in user type, or "".
func (g *Guard) UserType() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.userType
}

// SignedIn moves to Authenticated for userType. An unknown type is
// treated as signed out.
func (g *Guard) SignedIn(userType string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if RootFor(userType) == LoginPath {
		g.state, g.userType = Unauthenticated, ""
		return
	}
	g.state, g.userType = Authenticated, userType
}

// SignedOut moves to Unauthenticated. Logout and session expiry both
// land here.
func (g *Guard) SignedOut() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.state, g.userType = Unauthenticated, ""
}

// Navigate decides what to show for path.
func (g *Guard) Navigate(path string) Decision {
	g.mu.RLock()
	state, userType := g.state, g.userType
	g.mu.RUnlock()

	switch state {
	case Loading:
		return Decision{Wait: true}
	case Unauthenticated:
		if under(path, LoginPath) {
			return Decision{}
		}
		return Decision{Redirect: LoginPath}
	}

	if Allowed(userType, path) {
		return Decision{}
	}
	return Decision{Redirect: RootFor(userType)}
}
