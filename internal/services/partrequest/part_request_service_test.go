package partrequest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testApp собирает Fiber-приложение с маршрутом завершения запроса,
// подставляя userID так же, как это делает auth middleware
func testApp(svc *PartRequestService, userID uuid.UUID) *fiber.App {
	app := fiber.New()
	app.Post("/api/part-requests/:id/complete", func(c fiber.Ctx) error {
		c.Locals("userID", userID.String())
		return svc.CompleteRequest(c)
	})
	return app
}

func TestCompleteRequestWithAcceptedOffer(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	partRequestID := uuid.New()
	buyerID := uuid.New()
	sellerID := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT buyer_id, status, title FROM part_requests WHERE id = $1`)).
		WithArgs(partRequestID).
		WillReturnRows(pgxmock.NewRows([]string{"buyer_id", "status", "title"}).
			AddRow(buyerID, "active", "Фара левая"))

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT seller_id FROM offers WHERE part_request_id = $1 AND status = 'accepted'`)).
		WithArgs(partRequestID).
		WillReturnRows(pgxmock.NewRows([]string{"seller_id"}).AddRow(sellerID))

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE part_requests SET status = 'completed'`)).
		WithArgs(partRequestID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO notifications`)).
		WithArgs(sellerID, "order", "Сделка завершена", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	svc := &PartRequestService{pool: mock}
	app := testApp(svc, buyerID)

	req := httptest.NewRequest(http.MethodPost, "/api/part-requests/"+partRequestID.String()+"/complete", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "completed", body["status"])

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCompleteRequestWithoutAcceptedOffer(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	partRequestID := uuid.New()
	buyerID := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT buyer_id, status, title FROM part_requests WHERE id = $1`)).
		WithArgs(partRequestID).
		WillReturnRows(pgxmock.NewRows([]string{"buyer_id", "status", "title"}).
			AddRow(buyerID, "active", "Фара левая"))

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT seller_id FROM offers WHERE part_request_id = $1 AND status = 'accepted'`)).
		WithArgs(partRequestID).
		WillReturnError(pgx.ErrNoRows)

	svc := &PartRequestService{pool: mock}
	app := testApp(svc, buyerID)

	req := httptest.NewRequest(http.MethodPost, "/api/part-requests/"+partRequestID.String()+"/complete", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestCompleteRequestForeignRequest(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	partRequestID := uuid.New()
	buyerID := uuid.New()
	strangerID := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT buyer_id, status, title FROM part_requests WHERE id = $1`)).
		WithArgs(partRequestID).
		WillReturnRows(pgxmock.NewRows([]string{"buyer_id", "status", "title"}).
			AddRow(buyerID, "active", "Фара левая"))

	svc := &PartRequestService{pool: mock}
	app := testApp(svc, strangerID)

	req := httptest.NewRequest(http.MethodPost, "/api/part-requests/"+partRequestID.String()+"/complete", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestCompleteRequestAlreadyClosed(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	partRequestID := uuid.New()
	buyerID := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT buyer_id, status, title FROM part_requests WHERE id = $1`)).
		WithArgs(partRequestID).
		WillReturnRows(pgxmock.NewRows([]string{"buyer_id", "status", "title"}).
			AddRow(buyerID, "completed", "Фара левая"))

	svc := &PartRequestService{pool: mock}
	app := testApp(svc, buyerID)

	req := httptest.NewRequest(http.MethodPost, "/api/part-requests/"+partRequestID.String()+"/complete", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}
