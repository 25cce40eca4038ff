// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User represents an account on the platform.
//
// Identity fields:
//   - Username: unique handle the user registers with (stored as typed)
//   - UsernameCI: case/diacritic-insensitive version for matching (folded)
//   - Email: unique contact email (stored lowercase)
type User struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Username   string             `bson:"username" json:"username"`
	UsernameCI string             `bson:"username_ci" json:"-"` // lowercase, diacritics-stripped
	Email      string             `bson:"email" json:"email"`
	EmailCI    string             `bson:"email_ci" json:"-"`

	// Password auth
	PasswordHash string `bson:"password_hash" json:"-"` // bcrypt hash (never in JSON)

	// Profile
	FirstName    string   `bson:"first_name,omitempty" json:"first_name,omitempty"`
	LastName     string   `bson:"last_name,omitempty" json:"last_name,omitempty"`
	Bio          string   `bson:"bio,omitempty" json:"bio,omitempty"`
	ProfileImage string   `bson:"profile_image,omitempty" json:"profile_image,omitempty"` // media store URL
	Hobbies      []string `bson:"hobbies,omitempty" json:"hobbies,omitempty"`
	UserType     string   `bson:"user_type,omitempty" json:"user_type,omitempty"`

	// Directory visibility and denormalized counters
	IsPublic  bool `bson:"is_public" json:"is_public"`
	RepoCount int  `bson:"repo_count" json:"repo_count"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// User types shown in the public directory.
const (
	UserTypeStudent    = "student"
	UserTypeResearcher = "researcher"
	UserTypeAcademic   = "academic"
	UserTypeBusiness   = "business"
)

// AllUserTypes returns the valid user type values.
func AllUserTypes() []string {
	return []string{
		UserTypeStudent,
		UserTypeResearcher,
		UserTypeAcademic,
		UserTypeBusiness,
	}
}

// IsValidUserType checks if a user type is valid.
func IsValidUserType(t string) bool {
	for _, v := range AllUserTypes() {
		if v == t {
			return true
		}
	}
	return false
}
