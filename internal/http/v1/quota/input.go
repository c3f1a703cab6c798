package quota

// SpendInput is the request body for spending one message from the daily
// allowance. TargetUserID is optional; when set, the recipient gets a push
// notification about the new conversation.
type SpendInput struct {
	TargetUserID string `json:"targetUserId,omitempty" validate:"omitempty,min=1,max=128"`
}
