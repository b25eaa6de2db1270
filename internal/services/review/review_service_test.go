package review

import (
	"context"
	"regexp"
	"testing"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRound1(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{5, 5},
		{4.666666666666667, 4.7},
		{4.649, 4.6},
		{3.25, 3.3},
		{0, 0},
	}

	for _, tt := range tests {
		assert.InDelta(t, tt.want, round1(tt.in), 1e-9)
	}
}

func TestRecalcRating(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	userID := uuid.New()

	// Оценки 5, 5, 4 дают среднее 4.666..., после округления 4.7
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COALESCE(AVG(rating), 0) FROM reviews WHERE reviewed_user_id = $1`)).
		WithArgs(userID).
		WillReturnRows(pgxmock.NewRows([]string{"avg"}).AddRow(4.666666666666667))

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE users SET rating = $1`)).
		WithArgs(4.7, userID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	rating, err := recalcRating(context.Background(), mock, userID)
	require.NoError(t, err)
	assert.InDelta(t, 4.7, rating, 1e-9)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecalcRatingNoReviews(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	userID := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COALESCE(AVG(rating), 0) FROM reviews WHERE reviewed_user_id = $1`)).
		WithArgs(userID).
		WillReturnRows(pgxmock.NewRows([]string{"avg"}).AddRow(0.0))

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE users SET rating = $1`)).
		WithArgs(0.0, userID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	rating, err := recalcRating(context.Background(), mock, userID)
	require.NoError(t, err)
	assert.Zero(t, rating)
}
