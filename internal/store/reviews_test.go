package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/rootbeer/internal/db"
)

func TestCreateReview(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	item := seedItem(t, database, "Mug", "")

	review, err := CreateReview(ctx, database, item.ID, "ana", "Creamy", 4)
	require.NoError(t, err)
	assert.Equal(t, item.ID, review.ItemID)
	assert.Equal(t, "ana", review.UserName)
	assert.Equal(t, 4, review.Rating)
	assert.False(t, review.CreatedAt.IsZero())
}

func TestCreateReviewRejectsInvalidRating(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	item := seedItem(t, database, "Mug", "")

	for _, rating := range []int{0, 6, -2} {
		_, err := CreateReview(ctx, database, item.ID, "ana", "text", rating)
		assert.Error(t, err, "rating %d", rating)
	}

	_, total, err := ListReviews(ctx, database, item.ID, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, 0, total)
}

func TestCreateReviewMissingItem(t *testing.T) {
	database := db.NewTestDB(t)

	_, err := CreateReview(context.Background(), database, 404, "ana", "text", 3)
	assert.Error(t, err)
}

func TestListReviewsPagination(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	item := seedItem(t, database, "Mug", "", 1, 2, 3, 4, 5)
	seedItem(t, database, "Other", "", 5, 5)

	reviews, total, err := ListReviews(ctx, database, item.ID, 0, 2)
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, reviews, 2)
	// Newest first.
	assert.Equal(t, 5, reviews[0].Rating)
	assert.Equal(t, 4, reviews[1].Rating)

	reviews, _, err = ListReviews(ctx, database, item.ID, 4, 2)
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	assert.Equal(t, 1, reviews[0].Rating)

	reviews, total, err = ListReviews(ctx, database, item.ID, 10, 2)
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	assert.NotNil(t, reviews)
	assert.Empty(t, reviews)
}
