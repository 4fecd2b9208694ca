package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/erazemk/rootbeer/internal/model"
)

// CreateReview adds a review to an item.
func CreateReview(ctx context.Context, db *sql.DB, itemID int64, userName, description string, rating int) (*model.Review, error) {
	if !model.ValidRating(rating) {
		return nil, fmt.Errorf("rating must be between %d and %d, got %d", model.MinRating, model.MaxRating, rating)
	}

	now := time.Now().UTC()
	result, err := db.ExecContext(ctx,
		`INSERT INTO reviews (item_id, user_name, description, rating, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		itemID, userName, description, rating, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("creating review: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting review id: %w", err)
	}

	r := &model.Review{}
	err = db.QueryRowContext(ctx,
		`SELECT id, item_id, user_name, description, rating, created_at, updated_at
		 FROM reviews WHERE id = ?`, id,
	).Scan(&r.ID, &r.ItemID, &r.UserName, &r.Description, &r.Rating, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("getting review: %w", err)
	}
	return r, nil
}

// ListReviews returns one page of an item's reviews, newest first, and the
// item's total review count.
func ListReviews(ctx context.Context, db *sql.DB, itemID int64, offset, length int) ([]model.Review, int, error) {
	var total int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reviews WHERE item_id = ?`, itemID,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("counting reviews: %w", err)
	}
	if offset >= total {
		return []model.Review{}, total, nil
	}

	rows, err := db.QueryContext(ctx,
		`SELECT id, item_id, user_name, description, rating, created_at, updated_at
		 FROM reviews WHERE item_id = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT ? OFFSET ?`, itemID, length, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("listing reviews: %w", err)
	}
	defer rows.Close()

	reviews := []model.Review{}
	for rows.Next() {
		var r model.Review
		if err := rows.Scan(&r.ID, &r.ItemID, &r.UserName, &r.Description, &r.Rating, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("scanning review: %w", err)
		}
		reviews = append(reviews, r)
	}
	return reviews, total, rows.Err()
}
