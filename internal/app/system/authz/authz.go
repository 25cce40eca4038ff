// internal/app/system/authz/authz.go

// Package authz holds the capability checks for repository access.
//
// Every folder/file/application handler used to need the same inline
// "is owner, or active participant with a sufficient role" test; it lives
// here once so the rules cannot drift between handlers.
package authz

import (
	"github.com/dalemusser/eduvault/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// writeRoles are the participant roles allowed to create, modify, and
// delete content inside a repository.
var writeRoles = map[string]bool{
	models.ParticipantAdmin:   true,
	models.ParticipantWriter:  true,
	models.ParticipantCreator: true,
}

// HasRole reports whether actor is the repository owner or an active
// participant holding one of the required roles.
func HasRole(actor primitive.ObjectID, repo *models.Repository, roles ...string) bool {
	if repo.OwnerID == actor {
		return true
	}
	p, ok := repo.ActiveParticipant(actor)
	if !ok {
		return false
	}
	for _, role := range roles {
		if p.Role == role {
			return true
		}
	}
	return false
}

// CanWrite reports whether actor may create, modify, or delete content in
// the repository.
func CanWrite(actor primitive.ObjectID, repo *models.Repository) bool {
	if repo.OwnerID == actor {
		return true
	}
	p, ok := repo.ActiveParticipant(actor)
	return ok && writeRoles[p.Role]
}

// CanRead reports whether actor may list and read content in the
// repository. Public repositories are readable by anyone; private ones by
// the owner and any active participant.
func CanRead(actor primitive.ObjectID, repo *models.Repository) bool {
	if repo.IsPublic() || repo.OwnerID == actor {
		return true
	}
	_, ok := repo.ActiveParticipant(actor)
	return ok
}

// IsMember reports whether actor is the repository owner or an active
// participant. Sensitive files are visible to members only, even when the
// repository itself is public.
func IsMember(actor primitive.ObjectID, repo *models.Repository) bool {
	if repo.OwnerID == actor {
		return true
	}
	_, ok := repo.ActiveParticipant(actor)
	return ok
}

// CanAdmin reports whether actor may manage the repository itself:
// settings, participants, applications, invitations.
func CanAdmin(actor primitive.ObjectID, repo *models.Repository) bool {
	return HasRole(actor, repo, models.ParticipantAdmin)
}
