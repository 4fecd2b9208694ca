package model

// Sort fields accepted by item listings.
const (
	SortCreatedAt = "createdAt"
	SortName      = "name"
)

// Listing defaults.
const (
	DefaultLength = 10
	DefaultSort   = SortCreatedAt
)

// ListOptions describes one page of the item listing.
type ListOptions struct {
	Offset int
	Length int
	Sort   string
	Desc   bool

	// Nil bounds are not applied.
	MinRating *int
	MaxRating *int

	// Case-insensitive substring filters. When both are set an item
	// matching either one is included.
	Name        string
	Description string
}

// DefaultListOptions returns the first page, newest items first.
func DefaultListOptions() ListOptions {
	return ListOptions{
		Offset: 0,
		Length: DefaultLength,
		Sort:   DefaultSort,
		Desc:   true,
	}
}

// Normalize replaces unknown sort fields and out-of-range paging values with defaults.
func (o *ListOptions) Normalize() {
	if o.Sort != SortCreatedAt && o.Sort != SortName {
		o.Sort = DefaultSort
	}
	if o.Offset < 0 {
		o.Offset = 0
	}
	if o.Length <= 0 {
		o.Length = DefaultLength
	}
}

// RatingFiltered reports whether either rating bound is set.
func (o ListOptions) RatingFiltered() bool {
	return o.MinRating != nil || o.MaxRating != nil
}

// EmptyRatingRange reports whether the rating bounds cannot match anything.
func (o ListOptions) EmptyRatingRange() bool {
	return o.MinRating != nil && o.MaxRating != nil && *o.MinRating > *o.MaxRating
}
