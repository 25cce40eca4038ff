package applications

// createRequest is the body of POST /repositories/{repositoryID}/applications.
//
// Kind selects which of the remaining field groups applies: creator
// applications carry the profile fields, member applications the plan.
type createRequest struct {
	Kind string `json:"kind" validate:"required,oneof=creator member"`

	CreatorType       string `json:"creator_type" validate:"omitempty,max=50"`
	Contribution      string `json:"contribution" validate:"omitempty,max=2000"`
	Motivation        string `json:"motivation" validate:"omitempty,max=2000"`
	AvailabilityHours int    `json:"availability_hours" validate:"omitempty,min=0,max=168"`
	PortfolioURL      string `json:"portfolio_url" validate:"omitempty,httpurl,max=500"`

	Plan   string  `json:"plan" validate:"omitempty,max=50"`
	Amount float64 `json:"amount" validate:"omitempty,min=0"`
}
