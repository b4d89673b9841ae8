package routeguard

import (
	"github.com/dalemusser/volunteerhub/internal/client"
)

// Track settles g from c's restored session. Pass g.SignedOut to
// client.OnSessionExpired when building c so an expired session sends
// the user to login.
func Track(g *Guard, c *client.Client) {
	if s := c.Session(); s != nil {
		g.SignedIn(s.UserType)
		return
	}
	g.SignedOut()
}
