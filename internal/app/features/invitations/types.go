package invitations

// createRequest is the body of POST /repositories/{repositoryID}/invitations.
type createRequest struct {
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role" validate:"required,oneof=admin writer creator reader"`
}

// acceptRequest is the body of POST /invitations/accept.
type acceptRequest struct {
	Token string `json:"token" validate:"required,max=64"`
}
