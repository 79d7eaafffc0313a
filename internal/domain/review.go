package domain

// Review references its author by user id, not by a guest surrogate.
type Review struct {
	ReviewID       string  `json:"review_id"`
	PropertyID     string  `json:"property_id"`
	ReviewerUserID string  `json:"reviewer_user_id"`
	Rating         float64 `json:"rating"`
	Comment        *string `json:"comment,omitempty"`
}
