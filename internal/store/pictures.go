package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/erazemk/rootbeer/internal/model"
)

// CreatePicture records an uploaded picture for an item.
func CreatePicture(ctx context.Context, db *sql.DB, itemID int64, name, mimeType, path string) (*model.Picture, error) {
	now := time.Now().UTC()
	result, err := db.ExecContext(ctx,
		`INSERT INTO pictures (item_id, name, mimetype, path, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		itemID, name, mimeType, path, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("creating picture: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting picture id: %w", err)
	}

	return GetPicture(ctx, db, id)
}

// GetPicture returns a picture by ID, or nil if it does not exist.
func GetPicture(ctx context.Context, db *sql.DB, id int64) (*model.Picture, error) {
	p := &model.Picture{}
	err := db.QueryRowContext(ctx,
		`SELECT id, item_id, name, mimetype, path, created_at, updated_at
		 FROM pictures WHERE id = ?`, id,
	).Scan(&p.ID, &p.ItemID, &p.Name, &p.MIMEType, &p.Path, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting picture: %w", err)
	}
	return p, nil
}

// ListPictures returns the pictures of the given items keyed by item ID, in
// upload order.
func ListPictures(ctx context.Context, db *sql.DB, itemIDs ...int64) (map[int64][]model.Picture, error) {
	pictures := make(map[int64][]model.Picture, len(itemIDs))
	if len(itemIDs) == 0 {
		return pictures, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(itemIDs)), ",")
	args := make([]any, len(itemIDs))
	for i, id := range itemIDs {
		args[i] = id
	}

	rows, err := db.QueryContext(ctx,
		`SELECT id, item_id, name, mimetype, path, created_at, updated_at
		 FROM pictures WHERE item_id IN (`+placeholders+`)
		 ORDER BY id`, args...,
	)
	if err != nil {
		return nil, fmt.Errorf("listing pictures: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p model.Picture
		if err := rows.Scan(&p.ID, &p.ItemID, &p.Name, &p.MIMEType, &p.Path, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning picture: %w", err)
		}
		pictures[p.ItemID] = append(pictures[p.ItemID], p)
	}
	return pictures, rows.Err()
}
