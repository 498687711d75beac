package service

import (
	"go-warehouse-ws/internal/model"

	"github.com/google/uuid"
)

// Actor is the authenticated caller of a service operation.
type Actor struct {
	ID    uuid.UUID
	Name  string
	Email string
	Role  model.Role
}

func ActorFromUser(u *model.User) Actor {
	return Actor{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

func (a Actor) Can(c model.Capability) bool {
	return model.RoleHas(a.Role, c)
}

// audit is the value stored in created_by / updated_by / deleted_by.
func (a Actor) audit() string {
	return a.ID.String()
}

func (a Actor) require(c model.Capability) error {
	if !a.Can(c) {
		return forbiddenf("Forbidden: requires '%s' capability", c)
	}
	return nil
}

// sees reports whether the actor may read a record owned by ownerID.
func (a Actor) sees(ownerID uuid.UUID) bool {
	return a.Can(model.CapViewAllRecords) || a.ID == ownerID
}

func (a Actor) payload() map[string]interface{} {
	return map[string]interface{}{
		"id":    a.ID,
		"name":  a.Name,
		"email": a.Email,
	}
}
