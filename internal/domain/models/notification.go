// internal/domain/models/notification.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notification is an in-app message delivered to one user, usually created
// as a side effect of another user's action (application, invitation).
type Notification struct {
	ID      primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID  primitive.ObjectID `bson:"user_id" json:"user_id"` // recipient
	Type    string             `bson:"type" json:"type"`
	Title   string             `bson:"title" json:"title"`
	Message string             `bson:"message" json:"message"`

	RepoID        *primitive.ObjectID `bson:"repo_id,omitempty" json:"repo_id,omitempty"`
	ApplicationID *primitive.ObjectID `bson:"application_id,omitempty" json:"application_id,omitempty"`
	ActorID       *primitive.ObjectID `bson:"actor_id,omitempty" json:"actor_id,omitempty"`

	Read      bool      `bson:"read" json:"read"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// Notification types.
const (
	NotifyCreatorNewApplication = "creator_new_application"
	NotifyCreatorMemberJoined   = "creator_member_joined"
	NotifyApplicationAccepted   = "creator_application_accepted"
	NotifyApplicationRejected   = "creator_application_rejected"
	NotifyInvitationAccepted    = "invitation_accepted"
)
