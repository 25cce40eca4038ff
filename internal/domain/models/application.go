// internal/domain/models/application.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Application is a request to join a creator-type repository, either as a
// creator (reviewed by the owner) or as a paying member (auto-accepted).
type Application struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Kind        string             `bson:"kind" json:"kind"` // creator, member
	RepoID      primitive.ObjectID `bson:"repo_id" json:"repo_id"`
	ApplicantID primitive.ObjectID `bson:"applicant_id" json:"applicant_id"`
	Status      string             `bson:"status" json:"status"` // pending, accepted, rejected

	// Creator applications
	CreatorType       string `bson:"creator_type,omitempty" json:"creator_type,omitempty"`
	Contribution      string `bson:"contribution,omitempty" json:"contribution,omitempty"`
	Motivation        string `bson:"motivation,omitempty" json:"motivation,omitempty"`
	AvailabilityHours int    `bson:"availability_hours,omitempty" json:"availability_hours,omitempty"`
	PortfolioURL      string `bson:"portfolio_url,omitempty" json:"portfolio_url,omitempty"`

	// Member applications
	Plan   string  `bson:"plan,omitempty" json:"plan,omitempty"`
	Amount float64 `bson:"amount,omitempty" json:"amount,omitempty"`

	DecidedByID *primitive.ObjectID `bson:"decided_by_id,omitempty" json:"decided_by_id,omitempty"`
	DecidedAt   *time.Time          `bson:"decided_at,omitempty" json:"decided_at,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Application kinds.
const (
	ApplicationKindCreator = "creator"
	ApplicationKindMember  = "member"
)

// Application statuses.
const (
	ApplicationPending  = "pending"
	ApplicationAccepted = "accepted"
	ApplicationRejected = "rejected"
)
