// Package session tracks the privilege level of the host link.
package session

import "github.com/robotalks/regmap.go/pkg/register"

// Level is the privilege level of the session.
type Level byte

// Privilege levels. Elevated satisfies every Protection.
const (
	None     Level = 0
	Elevated Level = 2
)

// String implements fmt.Stringer.
func (l Level) String() string {
	if l == Elevated {
		return "elevated"
	}
	return "none"
}

// Guard holds the privilege level and the shared secret. The secret is
// storage shared with the password register. Guard is only used from the
// main loop.
type Guard struct {
	secret *string
	level  Level
}

// NewGuard creates a Guard comparing against secret.
func NewGuard(secret *string) *Guard {
	return &Guard{secret: secret}
}

// CheckPassword elevates the session when candidate matches the secret.
// An elevated session replaces the secret with candidate instead.
func (g *Guard) CheckPassword(candidate string) error {
	if g.level == Elevated {
		if len(candidate) > register.StringLen {
			return register.ErrBadValue
		}
		*g.secret = candidate
		return nil
	}
	if !g.Matches(candidate) {
		return register.ErrBadPassword
	}
	g.level = Elevated
	return nil
}

// Matches compares candidate with the secret without side effects.
func (g *Guard) Matches(candidate string) bool {
	return candidate == *g.secret
}

// Demote drops the session back to None.
func (g *Guard) Demote() {
	g.level = None
}

// Reset is called on device reset.
func (g *Guard) Reset() {
	g.Demote()
}

// Level returns the current privilege level.
func (g *Guard) Level() Level {
	return g.level
}

// CanRead indicates the value of a register with protection p is visible.
// Any protection hides the value from a session below Elevated.
func (g *Guard) CanRead(p register.Protection) bool {
	return p == register.NoProtection || g.level == Elevated
}

// CanWrite indicates a register with protection p may be stored.
func (g *Guard) CanWrite(p register.Protection) bool {
	return p == register.NoProtection || g.level == Elevated
}
