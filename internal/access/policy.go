package access

// Pure authorization predicates. Each one is evaluated per request with no
// shared state, so a role change takes effect on the next call.

// CanManageCatalog reports whether the actor may write categories, genres
// and titles. Read access is open to everyone.
func CanManageCatalog(actor Actor) bool {
	return actor.IsAdmin()
}

// CanModifyContent reports whether the actor may update or delete a review
// or comment owned by ownerID. Owners keep control of their own content;
// moderators and admins can act on anyone's.
func CanModifyContent(actor Actor, ownerID string) bool {
	if actor.ID == ownerID {
		return true
	}
	return actor.IsModerator() || actor.IsAdmin()
}

// CanManageUsers reports whether the actor may list, create, update or
// delete other user records, including the role field.
func CanManageUsers(actor Actor) bool {
	return actor.IsAdmin()
}

// CanChangeRole reports whether the actor may change a user's role.
// Profile-field edits through /users/me never pass this gate.
func CanChangeRole(actor Actor) bool {
	return actor.IsAdmin()
}
