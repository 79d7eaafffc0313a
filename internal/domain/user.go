package domain

type User struct {
	UserID   string  `json:"user_id"`
	Name     string  `json:"name"`
	Email    string  `json:"email"`
	Phone    *string `json:"phone,omitempty"`
	Verified bool    `json:"verified"`
}

// PropertyOwner marks a user as able to own properties. ID is assigned by the
// store on insert.
type PropertyOwner struct {
	ID     int64  `json:"id"`
	UserID string `json:"user_id"`
}

type Guest struct {
	ID     int64  `json:"id"`
	UserID string `json:"user_id"`
}
