package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/erazemk/rootbeer/internal/db"
	"github.com/erazemk/rootbeer/internal/model"
)

// itemColumns selects an item together with its review aggregate. It must be
// used with itemFrom and a GROUP BY i.id.
const itemColumns = `i.id, i.name, i.description, i.created_at, i.updated_at,
        AVG(r.rating) AS avg_rating, COUNT(r.id) AS review_count`

const itemFrom = `FROM items i LEFT JOIN reviews r ON r.item_id = i.id`

// CreateItem creates a new item.
func CreateItem(ctx context.Context, db *sql.DB, name, description string) (*model.Item, error) {
	now := time.Now().UTC()
	result, err := db.ExecContext(ctx,
		`INSERT INTO items (name, description, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		name, description, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("creating item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting item id: %w", err)
	}

	return GetItem(ctx, db, id)
}

// GetItem returns an item by ID with its pictures and average rating.
// It returns nil if the item does not exist.
func GetItem(ctx context.Context, db *sql.DB, id int64) (*model.Item, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+itemColumns+` `+itemFrom+` WHERE i.id = ? GROUP BY i.id`, id,
	)
	item, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}

	pictures, err := ListPictures(ctx, db, id)
	if err != nil {
		return nil, err
	}
	item.Pictures = pictures[id]
	if item.Pictures == nil {
		item.Pictures = []model.Picture{}
	}
	return item, nil
}

// ItemExists reports whether an item with the given ID exists.
func ItemExists(ctx context.Context, db *sql.DB, id int64) (bool, error) {
	var exists bool
	err := db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM items WHERE id = ?)`, id,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking item: %w", err)
	}
	return exists, nil
}

// ListItems returns one page of items matching opts together with the number
// of matching items before pagination. Every returned item carries its full
// picture list and, when it has reviews, the average rating.
func ListItems(ctx context.Context, db *sql.DB, opts model.ListOptions) ([]model.Item, int, error) {
	opts.Normalize()
	if opts.EmptyRatingRange() {
		return []model.Item{}, 0, nil
	}

	where, having, args := listFilter(opts)
	grouped := itemFrom + where + ` GROUP BY i.id` + having

	var total int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM (SELECT i.id `+grouped+`)`, args...,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("counting items: %w", err)
	}
	if total == 0 || opts.Offset >= total {
		return []model.Item{}, total, nil
	}

	query := `SELECT ` + itemColumns + ` ` + grouped +
		` ORDER BY ` + listOrder(opts) + ` LIMIT ? OFFSET ?`
	items, err := queryItems(ctx, db, query, append(args, opts.Length, opts.Offset)...)
	if err != nil {
		return nil, 0, err
	}

	ids := make([]int64, len(items))
	for i := range items {
		ids[i] = items[i].ID
	}
	pictures, err := ListPictures(ctx, db, ids...)
	if err != nil {
		return nil, 0, err
	}
	for i := range items {
		items[i].Pictures = pictures[items[i].ID]
		if items[i].Pictures == nil {
			items[i].Pictures = []model.Picture{}
		}
	}

	return items, total, nil
}

// listFilter builds the WHERE and HAVING clauses for opts.
func listFilter(opts model.ListOptions) (string, string, []any) {
	var args []any

	var match []string
	if opts.Name != "" {
		match = append(match, `casefold(i.name) LIKE ? ESCAPE '\'`)
		args = append(args, likePattern(opts.Name))
	}
	if opts.Description != "" {
		match = append(match, `casefold(i.description) LIKE ? ESCAPE '\'`)
		args = append(args, likePattern(opts.Description))
	}
	where := ""
	if len(match) > 0 {
		where = ` WHERE (` + strings.Join(match, ` OR `) + `)`
	}

	// Items without reviews have a NULL average and fail every comparison.
	var bounds []string
	if opts.MinRating != nil {
		bounds = append(bounds, `AVG(r.rating) >= ?`)
		args = append(args, *opts.MinRating)
	}
	if opts.MaxRating != nil {
		bounds = append(bounds, `AVG(r.rating) <= ?`)
		args = append(args, *opts.MaxRating)
	}
	having := ""
	if len(bounds) > 0 {
		having = ` HAVING ` + strings.Join(bounds, ` AND `)
	}

	return where, having, args
}

// listOrder returns the ORDER BY expression for opts. Ties always fall back
// to ascending IDs so pages are stable.
func listOrder(opts model.ListOptions) string {
	column := "i.created_at"
	if opts.Sort == model.SortName {
		column = "i.name COLLATE NOCASE"
	}
	dir := "ASC"
	if opts.Desc {
		dir = "DESC"
	}
	return column + " " + dir + ", i.id ASC"
}

// likePattern turns s into a case-folded "contains" pattern with LIKE
// wildcards in s escaped. It is matched against casefold(column).
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(db.Fold(s)) + "%"
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*model.Item, error) {
	item := &model.Item{}
	var avg sql.NullFloat64
	if err := row.Scan(&item.ID, &item.Name, &item.Description, &item.CreatedAt, &item.UpdatedAt, &avg, &item.ReviewCount); err != nil {
		return nil, err
	}
	if avg.Valid && item.ReviewCount > 0 {
		v := avg.Float64
		item.ReviewAverageRating = &v
	}
	return item, nil
}

func queryItems(ctx context.Context, db *sql.DB, query string, args ...any) ([]model.Item, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	items := []model.Item{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}
