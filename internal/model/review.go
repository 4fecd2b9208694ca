package model

import "time"

// Review is a user's star rating and comment on an item.
type Review struct {
	ID          int64     `json:"id"`
	ItemID      int64     `json:"drinkId"`
	UserName    string    `json:"user_name"`
	Description string    `json:"description"`
	Rating      int       `json:"rating"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Rating bounds.
const (
	MinRating = 1
	MaxRating = 5
)

// ValidRating reports whether r is a whole star rating between MinRating and MaxRating.
func ValidRating(r int) bool {
	return r >= MinRating && r <= MaxRating
}
