package service

import "github.com/openhrm/victimdb/internal/model"

// Decision is the result of an authorization check.
type Decision int

// Authorization outcomes.
const (
	Deny Decision = iota
	Allow
)

// Authorize decides whether the principal may perform an operation that
// requires any one of the given roles. It is a pure function of the two role
// sets and the active flag: Allow iff the principal is active and the
// intersection is non-empty.
func Authorize(p model.Principal, required []model.Role) Decision {
	if !p.IsActive {
		return Deny
	}
	for _, r := range required {
		if p.HasRole(r) {
			return Allow
		}
	}
	return Deny
}

// AllRoles is the full role enumeration, used for operations that require only
// a valid authenticated session.
var AllRoles = []model.Role{model.RoleAdmin, model.RoleCaseManager, model.RoleAnalyst, model.RoleViewer}
