package services

import "tunilearn/backend/models"

// Actor is the caller on whose behalf a service method runs.
// The zero value is an anonymous caller.
type Actor struct {
	UserID           uint
	Role             string
	ProfileCompleted bool
}

func (a Actor) IsAnonymous() bool {
	return a.UserID == 0
}

func (a Actor) IsAdmin() bool {
	return !a.IsAnonymous() && a.Role == models.RoleAdmin
}

func (a Actor) IsTeacher() bool {
	return !a.IsAnonymous() && a.Role == models.RoleTeacher
}

// CanManage reports whether the actor may mutate a resource owned by ownerID.
func (a Actor) CanManage(ownerID uint) bool {
	if a.IsAnonymous() {
		return false
	}
	return a.IsAdmin() || a.UserID == ownerID
}
