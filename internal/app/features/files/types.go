package files

// updateRequest is the body of PUT /files/{fileID}.
type updateRequest struct {
	Title       *string   `json:"title" validate:"omitempty,min=1,max=200"`
	Description *string   `json:"description" validate:"omitempty,max=1000"`
	Tags        *[]string `json:"tags" validate:"omitempty,max=20,dive,max=50"`
	Importance  *int      `json:"importance" validate:"omitempty,min=0,max=3"`
	Sensitive   *bool     `json:"sensitive"`
}

// downloadResponse is the body of GET /files/{fileID}/download.
type downloadResponse struct {
	URL       string `json:"url"`
	ExpiresIn int    `json:"expires_in"` // seconds
}
