// internal/domain/models/invitation.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Invitation is an emailed offer to join a repository with a given role.
// The token is single-use and expires after InvitationTTL.
type Invitation struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	RepoID      primitive.ObjectID `bson:"repo_id" json:"repo_id"`
	Email       string             `bson:"email" json:"email"` // lowercase
	Role        string             `bson:"role" json:"role"`   // participant role granted on accept
	Token       string             `bson:"token" json:"-"`     // uuid, never in API responses
	InvitedByID primitive.ObjectID `bson:"invited_by_id" json:"invited_by_id"`
	Status      string             `bson:"status" json:"status"` // pending, accepted, expired
	ExpiresAt   time.Time          `bson:"expires_at" json:"expires_at"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Invitation statuses.
const (
	InvitationPending  = "pending"
	InvitationAccepted = "accepted"
	InvitationExpired  = "expired"
)

// InvitationTTL is how long an invitation token stays valid.
const InvitationTTL = 7 * 24 * time.Hour
