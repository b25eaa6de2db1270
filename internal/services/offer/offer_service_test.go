package offer

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SaaSForest/mechx-sub001/internal/utils"
)

func TestAcceptOfferRejectsSiblings(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	offerID := uuid.New()
	partRequestID := uuid.New()
	buyerID := uuid.New()
	sellerID := uuid.New()
	rejectedSellerID := uuid.New()

	mock.ExpectBegin()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT part_request_id FROM offers WHERE id = $1`)).
		WithArgs(offerID).
		WillReturnRows(pgxmock.NewRows([]string{"part_request_id"}).AddRow(partRequestID))

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT buyer_id, title FROM part_requests WHERE id = $1 FOR UPDATE`)).
		WithArgs(partRequestID).
		WillReturnRows(pgxmock.NewRows([]string{"buyer_id", "title"}).AddRow(buyerID, "Фара левая"))

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT seller_id, status FROM offers WHERE id = $1 FOR UPDATE`)).
		WithArgs(offerID).
		WillReturnRows(pgxmock.NewRows([]string{"seller_id", "status"}).AddRow(sellerID, "pending"))

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE offers SET status = 'accepted'`)).
		WithArgs(offerID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE offers SET status = 'rejected'`)).
		WithArgs(partRequestID, offerID).
		WillReturnRows(pgxmock.NewRows([]string{"seller_id"}).AddRow(rejectedSellerID))

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO notifications`)).
		WithArgs(sellerID, "offer", "Предложение принято", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO notifications`)).
		WithArgs(rejectedSellerID, "offer", "Предложение не принято", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	ctx := context.Background()
	tx, err := mock.Begin(ctx)
	require.NoError(t, err)

	result, err := acceptOffer(ctx, tx, offerID, buyerID)
	require.NoError(t, err)

	assert.Equal(t, sellerID, result.SellerID)
	assert.Equal(t, partRequestID, result.PartRequestID)
	assert.Equal(t, []uuid.UUID{rejectedSellerID}, result.RejectedSellers)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAcceptOfferOnlyBuyer(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	offerID := uuid.New()
	partRequestID := uuid.New()
	buyerID := uuid.New()
	strangerID := uuid.New()

	mock.ExpectBegin()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT part_request_id FROM offers WHERE id = $1`)).
		WithArgs(offerID).
		WillReturnRows(pgxmock.NewRows([]string{"part_request_id"}).AddRow(partRequestID))

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT buyer_id, title FROM part_requests WHERE id = $1 FOR UPDATE`)).
		WithArgs(partRequestID).
		WillReturnRows(pgxmock.NewRows([]string{"buyer_id", "title"}).AddRow(buyerID, "Фара левая"))

	ctx := context.Background()
	tx, err := mock.Begin(ctx)
	require.NoError(t, err)

	_, err = acceptOffer(ctx, tx, offerID, strangerID)
	require.Error(t, err)

	var forbiddenErr *utils.ForbiddenError
	assert.True(t, errors.As(err, &forbiddenErr))
}

func TestAcceptOfferAlreadyProcessed(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	offerID := uuid.New()
	partRequestID := uuid.New()
	buyerID := uuid.New()
	sellerID := uuid.New()

	mock.ExpectBegin()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT part_request_id FROM offers WHERE id = $1`)).
		WithArgs(offerID).
		WillReturnRows(pgxmock.NewRows([]string{"part_request_id"}).AddRow(partRequestID))

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT buyer_id, title FROM part_requests WHERE id = $1 FOR UPDATE`)).
		WithArgs(partRequestID).
		WillReturnRows(pgxmock.NewRows([]string{"buyer_id", "title"}).AddRow(buyerID, "Фара левая"))

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT seller_id, status FROM offers WHERE id = $1 FOR UPDATE`)).
		WithArgs(offerID).
		WillReturnRows(pgxmock.NewRows([]string{"seller_id", "status"}).AddRow(sellerID, "withdrawn"))

	ctx := context.Background()
	tx, err := mock.Begin(ctx)
	require.NoError(t, err)

	_, err = acceptOffer(ctx, tx, offerID, buyerID)
	require.Error(t, err)

	var stateErr *utils.InvalidStateError
	assert.True(t, errors.As(err, &stateErr))
}

func TestAcceptOfferNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	offerID := uuid.New()
	buyerID := uuid.New()

	mock.ExpectBegin()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT part_request_id FROM offers WHERE id = $1`)).
		WithArgs(offerID).
		WillReturnError(pgx.ErrNoRows)

	ctx := context.Background()
	tx, err := mock.Begin(ctx)
	require.NoError(t, err)

	_, err = acceptOffer(ctx, tx, offerID, buyerID)
	require.Error(t, err)

	var notFoundErr *utils.NotFoundError
	assert.True(t, errors.As(err, &notFoundErr))
}

func TestCanReview(t *testing.T) {
	offerID := uuid.New()
	buyerID := uuid.New()
	sellerID := uuid.New()
	strangerID := uuid.New()

	tests := []struct {
		name         string
		offerStatus  string
		actorID      uuid.UUID
		reviewExists bool
		wantOK       bool
		wantReason   string
	}{
		{
			name:        "покупатель по принятому предложению",
			offerStatus: "accepted",
			actorID:     buyerID,
			wantOK:      true,
		},
		{
			name:        "продавец по принятому предложению",
			offerStatus: "accepted",
			actorID:     sellerID,
			wantOK:      true,
		},
		{
			name:        "предложение не принято",
			offerStatus: "pending",
			actorID:     buyerID,
			wantOK:      false,
			wantReason:  "Предложение не принято",
		},
		{
			name:        "посторонний пользователь",
			offerStatus: "accepted",
			actorID:     strangerID,
			wantOK:      false,
			wantReason:  "Вы не участник этой сделки",
		},
		{
			name:         "отзыв уже оставлен",
			offerStatus:  "accepted",
			actorID:      buyerID,
			reviewExists: true,
			wantOK:       false,
			wantReason:   "Отзыв по этой сделке уже оставлен",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()

			mock.ExpectQuery(`SELECT o\.seller_id, o\.status, r\.buyer_id`).
				WithArgs(offerID).
				WillReturnRows(pgxmock.NewRows([]string{"seller_id", "status", "buyer_id"}).
					AddRow(sellerID, tt.offerStatus, buyerID))

			// До проверки отзыва доходят только участники принятой сделки
			if tt.offerStatus == "accepted" && (tt.actorID == buyerID || tt.actorID == sellerID) {
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS(SELECT 1 FROM reviews WHERE offer_id = $1)`)).
					WithArgs(offerID).
					WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(tt.reviewExists))
			}

			ok, reason, err := CanReview(context.Background(), mock, offerID, tt.actorID)
			require.NoError(t, err)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantReason, reason)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestTransactionPartiesNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	offerID := uuid.New()

	mock.ExpectQuery(`SELECT r\.buyer_id, o\.seller_id, o\.status`).
		WithArgs(offerID).
		WillReturnError(pgx.ErrNoRows)

	_, _, _, err = TransactionParties(context.Background(), mock, offerID)
	require.Error(t, err)

	var notFoundErr *utils.NotFoundError
	assert.True(t, errors.As(err, &notFoundErr))
}
