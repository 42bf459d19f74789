package models

// Roles recognised in access tokens.
const (
	RoleAdmin   = "admin"
	RoleCashier = "cashier"
	RoleStaff   = "staff"
	RolePartner = "partner"
	RoleParent  = "parent"
	RoleSystem  = "system"
)

// Actor is who performed a ledger operation. StudentIDs lists the students a
// parent may act for.
type Actor struct {
	ID         string   `json:"id"`
	Role       string   `json:"role"`
	StudentIDs []string `json:"studentIds,omitempty"`
}

// CanWaiveConsent reports whether the actor runs a staff-operated flow where
// the customer's consent is taken at the counter.
func (a Actor) CanWaiveConsent() bool {
	switch a.Role {
	case RoleAdmin, RoleCashier, RoleStaff:
		return true
	}
	return false
}

// CanAccessStudent reports whether the actor may read or pay for studentID.
// Staff and the system act for every student; parents only for their own.
func (a Actor) CanAccessStudent(studentID string) bool {
	switch a.Role {
	case RoleAdmin, RoleCashier, RoleStaff, RoleSystem:
		return true
	case RoleParent:
		for _, id := range a.StudentIDs {
			if id == studentID {
				return true
			}
		}
	}
	return false
}

// SystemActor is used for gateway driven checkouts.
func SystemActor(id string) Actor {
	return Actor{ID: id, Role: RoleSystem}
}
