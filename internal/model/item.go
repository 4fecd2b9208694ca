package model

import "time"

// Item is a catalog entry (a root beer) that collects pictures and reviews.
type Item struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`

	// Joined fields (not always populated).
	Pictures            []Picture `json:"Pictures"`
	ReviewAverageRating *float64  `json:"reviewAverageRating,omitempty"`
	ReviewCount         int       `json:"reviewCount"`
}

// Picture is an uploaded image attached to an item.
type Picture struct {
	ID        int64     `json:"id"`
	ItemID    int64     `json:"drinkId"`
	Name      string    `json:"name"`
	MIMEType  string    `json:"mimetype"`
	Path      string    `json:"path"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Page is one slice of a filtered listing plus the unpaginated match count.
type Page[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
}

// TotalPages returns the number of pages of the given length needed for total entries.
func TotalPages(total, length int) int {
	if length <= 0 || total <= 0 {
		return 0
	}
	return (total + length - 1) / length
}
