package discover

// ListInput defines query parameters for listing discovery candidates.
type ListInput struct {
	Cursor string `query:"cursor"`
	Limit  int    `query:"limit"  validate:"omitempty,min=1,max=100"`
	City   string `query:"city"   validate:"omitempty,max=100"`
}
