// internal/domain/models/repository.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Repository is a collection of folders and files owned by one user and
// shared with participants.
type Repository struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	NameCI      string             `bson:"name_ci" json:"-"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Privacy     string             `bson:"privacy" json:"privacy"`     // public, private
	TypeRepo    string             `bson:"type_repo" json:"type_repo"` // normal, creator

	OwnerID      primitive.ObjectID `bson:"owner_id" json:"owner_id"`
	Participants []Participant      `bson:"participants" json:"participants"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Participant is a user granted a role within a repository.
type Participant struct {
	UserID primitive.ObjectID `bson:"user_id" json:"user_id"`
	Role   string             `bson:"role" json:"role"`     // admin, writer, creator, reader
	Status string             `bson:"status" json:"status"` // active, inactive
}

// Repository privacy values.
const (
	PrivacyPublic  = "public"
	PrivacyPrivate = "private"
)

// Repository types.
const (
	RepoTypeNormal  = "normal"
	RepoTypeCreator = "creator"
)

// Participant roles.
const (
	ParticipantAdmin   = "admin"
	ParticipantWriter  = "writer"
	ParticipantCreator = "creator"
	ParticipantReader  = "reader"
)

// Participant statuses.
const (
	ParticipantActive   = "active"
	ParticipantInactive = "inactive"
)

// IsPublic reports whether the repository is publicly readable.
func (r *Repository) IsPublic() bool {
	return r.Privacy == PrivacyPublic
}

// ActiveParticipant returns the active participant record for userID, if any.
func (r *Repository) ActiveParticipant(userID primitive.ObjectID) (Participant, bool) {
	for _, p := range r.Participants {
		if p.UserID == userID && p.Status == ParticipantActive {
			return p, true
		}
	}
	return Participant{}, false
}
