// Package access centralises ownership and role checks for course content.
//
// Members only ever see their own courses and lessons. Moderators see and
// edit everything but never delete; deletion belongs to the owner alone.
// Any authenticated actor may create. Callers translate the returned
// decision into an HTTP status: hidden resources answer 404 so their
// existence is not revealed.
package access

import (
	"github.com/google/uuid"

	"github.com/studyhub/studyhub-server-go/pkg/types"
)

// Actor is the identity a request acts as.
type Actor struct {
	ID            uuid.UUID
	Role          types.UserRole
	Authenticated bool
}

// Decision is the outcome of an access check.
type Decision int

const (
	// Allow grants the operation.
	Allow Decision = iota
	// DenyHidden refuses and hides the resource's existence (404).
	DenyHidden
	// DenyForbidden refuses a resource the actor can see (403).
	DenyForbidden
	// DenyUnauthenticated refuses anonymous requests (401).
	DenyUnauthenticated
)

// ActorFor builds an Actor from a loaded user record.
func ActorFor(id uuid.UUID, role types.UserRole) Actor {
	return Actor{ID: id, Role: role, Authenticated: true}
}

// Anonymous is the actor for unauthenticated requests.
func Anonymous() Actor {
	return Actor{}
}

func (a Actor) owns(ownerID *uuid.UUID) bool {
	return ownerID != nil && a.Authenticated && *ownerID == a.ID
}

// CanCreate decides whether the actor may create new content. Any
// authenticated actor qualifies; the caller sets the owner to the actor.
func CanCreate(actor Actor) Decision {
	if !actor.Authenticated {
		return DenyUnauthenticated
	}
	return Allow
}

// CanView decides whether the actor may read content owned by ownerID.
func CanView(actor Actor, ownerID *uuid.UUID) Decision {
	if !actor.Authenticated {
		return DenyUnauthenticated
	}
	if actor.Role.CanModerate() || actor.owns(ownerID) {
		return Allow
	}
	return DenyHidden
}

// CanUpdate decides whether the actor may edit content owned by ownerID.
func CanUpdate(actor Actor, ownerID *uuid.UUID) Decision {
	if !actor.Authenticated {
		return DenyUnauthenticated
	}
	if actor.Role.CanModerate() || actor.owns(ownerID) {
		return Allow
	}
	return DenyHidden
}

// CanDelete decides whether the actor may delete content owned by ownerID.
// Only the owner deletes. Staff can see the content, so a refusal for
// them is a plain 403 rather than a hidden 404.
func CanDelete(actor Actor, ownerID *uuid.UUID) Decision {
	if !actor.Authenticated {
		return DenyUnauthenticated
	}
	if actor.owns(ownerID) {
		return Allow
	}
	if actor.Role.CanModerate() {
		return DenyForbidden
	}
	return DenyHidden
}

// SeesEverything reports whether list endpoints should skip owner filtering.
func SeesEverything(actor Actor) bool {
	return actor.Authenticated && actor.Role.CanModerate()
}
