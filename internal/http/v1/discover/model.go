package discover

// Candidate is the public view of another user's profile shown in the
// discovery feed. Quota state and timezone history are never exposed here.
type Candidate struct {
	ID          string `json:"id"            example:"user-456"`
	DisplayName string `json:"displayName"   example:"Sam"`
	Age         int    `json:"age,omitempty" example:"29"`
	Bio         string `json:"bio,omitempty" example:"Ask me about sourdough."`
	Gender      string `json:"gender"        example:"male"`
	LookingFor  string `json:"lookingFor"    example:"everyone"`
	City        string `json:"city,omitempty" example:"Helsinki"`
}

// ListData is one page of the discovery feed.
type ListData struct {
	Candidates []Candidate `json:"candidates"`
	Total      int         `json:"total" example:"42"`
}
