package identity

import (
	"errors"

	"AriaVault/model"
)

// ErrNoSubject is returned when the mandatory subject claim is absent. The
// request must be rejected as unauthenticated; there is nothing to retry.
var ErrNoSubject = errors.New("subject claim missing")

// Claims are the upstream-verified identity assertions handed to the core.
// They are trusted as-is; verification happens at the HTTP boundary.
type Claims struct {
	Subject string
	Groups  []string
}

// Resolver derives a caller's Identity from verified claims.
type Resolver struct {
	adminGroup string
}

// NewResolver 创建一个身份解析器
func NewResolver(adminGroup string) *Resolver {
	return &Resolver{adminGroup: adminGroup}
}

// Resolve maps claims to an Identity. The role is admin iff the group
// memberships include the configured admin group. No I/O.
func (r *Resolver) Resolve(c Claims) (model.Identity, error) {
	if c.Subject == "" {
		return model.Identity{}, ErrNoSubject
	}

	role := model.RoleClient
	for _, g := range c.Groups {
		if g == r.adminGroup {
			role = model.RoleAdmin
			break
		}
	}

	return model.Identity{
		SubjectID: c.Subject,
		Role:      role,
	}, nil
}
