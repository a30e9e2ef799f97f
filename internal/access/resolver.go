// Package access decides whether a user may read, write or delete a given
// document. Decisions are pure functions of the actor, the document header
// and a snapshot of the document's grants; no I/O, no clock, no randomness.
//
// Resolution order, first match wins:
//  1. ADMIN role: every capability allowed.
//  2. Document owner: every capability allowed.
//  3. Otherwise a grant for exactly the requested capability must exist.
//
// Capabilities are deliberately independent: a WRITE grant does not confer
// READ. Change the `can` function if that policy ever changes.
package access

import (
	"docvault/internal/apperr"
	"docvault/internal/model"

	"github.com/google/uuid"
)

// Identity is the read-only projection of a user used for authorization.
type Identity struct {
	ID   uuid.UUID
	Role model.Role
}

// IdentityOf projects a full user onto the fields authorization needs.
func IdentityOf(u *model.User) Identity {
	return Identity{ID: u.ID, Role: u.Role}
}

// IsAdmin reports whether the actor holds the ADMIN role.
func (id Identity) IsAdmin() bool { return id.Role == model.RoleAdmin }

func can(actor Identity, doc *model.Document, grants []model.Permission, cap model.Capability) bool {
	if actor.IsAdmin() {
		return true
	}
	if actor.ID == doc.OwnerID {
		return true
	}
	for _, g := range grants {
		if g.UserID == actor.ID && g.Capability == cap {
			return true
		}
	}
	return false
}

// CanRead reports whether actor may read doc given the grant snapshot.
func CanRead(actor Identity, doc *model.Document, grants []model.Permission) bool {
	return can(actor, doc, grants, model.CapabilityRead)
}

// CanWrite reports whether actor may write doc given the grant snapshot.
func CanWrite(actor Identity, doc *model.Document, grants []model.Permission) bool {
	return can(actor, doc, grants, model.CapabilityWrite)
}

// CanDelete reports whether actor may delete doc given the grant snapshot.
func CanDelete(actor Identity, doc *model.Document, grants []model.Permission) bool {
	return can(actor, doc, grants, model.CapabilityDelete)
}

// Require returns nil when actor holds cap on doc, otherwise an
// InsufficientPermission error carrying actor, document and capability.
func Require(actor Identity, doc *model.Document, grants []model.Permission, cap model.Capability) error {
	if can(actor, doc, grants, cap) {
		return nil
	}
	return apperr.PermissionDenied(actor.ID, doc.ID, string(cap))
}

// RequireRead is Require for the READ capability.
func RequireRead(actor Identity, doc *model.Document, grants []model.Permission) error {
	return Require(actor, doc, grants, model.CapabilityRead)
}

// RequireWrite is Require for the WRITE capability.
func RequireWrite(actor Identity, doc *model.Document, grants []model.Permission) error {
	return Require(actor, doc, grants, model.CapabilityWrite)
}

// RequireDelete is Require for the DELETE capability.
func RequireDelete(actor Identity, doc *model.Document, grants []model.Permission) error {
	return Require(actor, doc, grants, model.CapabilityDelete)
}

// RequireOwnerOrAdmin gates operations reserved to the document owner and
// administrators, such as granting and revoking permissions.
func RequireOwnerOrAdmin(actor Identity, doc *model.Document, cap model.Capability) error {
	if actor.IsAdmin() || actor.ID == doc.OwnerID {
		return nil
	}
	return apperr.PermissionDenied(actor.ID, doc.ID, string(cap))
}
