package conversation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SaaSForest/mechx-sub001/internal/models"
	"github.com/SaaSForest/mechx-sub001/internal/utils"
)

func TestCanonicalPair(t *testing.T) {
	a := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	b := uuid.MustParse("00000000-0000-0000-0000-000000000002")

	p1, p2 := canonicalPair(a, b)
	assert.Equal(t, a, p1)
	assert.Equal(t, b, p2)

	// Порядок аргументов не влияет на результат
	q1, q2 := canonicalPair(b, a)
	assert.Equal(t, p1, q1)
	assert.Equal(t, p2, q2)

	assert.True(t, bytes.Compare(p1[:], p2[:]) <= 0)
}

func TestCanonicalPairRandomized(t *testing.T) {
	for i := 0; i < 100; i++ {
		a := uuid.New()
		b := uuid.New()

		p1, p2 := canonicalPair(a, b)
		q1, q2 := canonicalPair(b, a)

		require.Equal(t, p1, q1)
		require.Equal(t, p2, q2)
		require.True(t, bytes.Compare(p1[:], p2[:]) <= 0)
	}
}

func TestIsParticipant(t *testing.T) {
	conversationID := uuid.New()
	userID := uuid.New()

	tests := []struct {
		name  string
		count int
		want  bool
	}{
		{name: "участник", count: 1, want: true},
		{name: "посторонний", count: 0, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()

			mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM conversations`)).
				WithArgs(conversationID, userID).
				WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(tt.count))

			got, err := IsParticipant(context.Background(), mock, conversationID, userID)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestUnreadCountCountsOtherSideOnly(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	conversationID := uuid.New()
	viewerID := uuid.New()

	// Запрос исключает собственные сообщения наблюдателя
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM messages`)).
		WithArgs(conversationID, viewerID).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(3))

	count, err := unreadCount(context.Background(), mock, conversationID, viewerID)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckContextExists(t *testing.T) {
	contextID := uuid.New()

	t.Run("запрос на запчасть существует", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS(SELECT 1 FROM part_requests WHERE id = $1)`)).
			WithArgs(contextID).
			WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

		err = checkContextExists(context.Background(), mock, models.ConversationContext{
			Type: models.ContextTypePartRequest,
			ID:   contextID,
		})
		assert.NoError(t, err)
	})

	t.Run("объявление не существует", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS(SELECT 1 FROM car_listings WHERE id = $1)`)).
			WithArgs(contextID).
			WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))

		err = checkContextExists(context.Background(), mock, models.ConversationContext{
			Type: models.ContextTypeCarListing,
			ID:   contextID,
		})
		require.Error(t, err)

		var notFoundErr *utils.NotFoundError
		assert.True(t, errors.As(err, &notFoundErr))
	})

	t.Run("неизвестный тип контекста", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		err = checkContextExists(context.Background(), mock, models.ConversationContext{
			Type: "garage",
			ID:   contextID,
		})
		require.Error(t, err)

		var validationErr *utils.ValidationError
		assert.True(t, errors.As(err, &validationErr))
	})
}

func TestConversationContextValid(t *testing.T) {
	assert.True(t, models.ConversationContext{Type: models.ContextTypePartRequest}.Valid())
	assert.True(t, models.ConversationContext{Type: models.ContextTypeCarListing}.Valid())
	assert.False(t, models.ConversationContext{Type: "garage"}.Valid())
	assert.False(t, models.ConversationContext{}.Valid())
}

func TestDeliverMessageCreatesNotification(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	conversationID := uuid.New()
	senderID := uuid.New()
	recipientID := uuid.New()
	messageID := uuid.New()
	content := "Привет, фара еще в наличии?"

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO messages`)).
		WithArgs(conversationID, senderID, content, pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(messageID))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE conversations SET last_message_at`)).
		WithArgs(pgxmock.AnyArg(), conversationID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO notifications`)).
		WithArgs(recipientID, models.NotificationTypeMessage, "Новое сообщение", "", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, name, role, is_verified, rating, avatar_url`)).
		WithArgs(senderID).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "role", "is_verified", "rating", "avatar_url"}).
			AddRow(senderID, "Иван", "buyer", false, 4.5, ""))

	svc := &ConversationService{pool: mock}
	message, err := svc.deliverMessage(context.Background(), conversationID, senderID, recipientID, content)
	require.NoError(t, err)
	assert.Equal(t, messageID, message.ID)
	assert.Equal(t, senderID, message.SenderID)
	assert.False(t, message.IsRead)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeliverMessageRejectsInvalidContent(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	svc := &ConversationService{pool: mock}

	t.Run("пустой текст", func(t *testing.T) {
		_, err := svc.deliverMessage(context.Background(), uuid.New(), uuid.New(), uuid.New(), "")
		require.Error(t, err)

		var validationErr *utils.ValidationError
		assert.True(t, errors.As(err, &validationErr))
	})

	t.Run("слишком длинный текст", func(t *testing.T) {
		content := strings.Repeat("ы", maxMessageLength+1)
		_, err := svc.deliverMessage(context.Background(), uuid.New(), uuid.New(), uuid.New(), content)
		require.Error(t, err)

		var validationErr *utils.ValidationError
		assert.True(t, errors.As(err, &validationErr))
	})

	// Текст ровно на пределе проходит проверку
	assert.NoError(t, validateMessageContent(strings.Repeat("ы", maxMessageLength)))

	// Невалидный текст отклоняется до обращения к базе
	assert.NoError(t, mock.ExpectationsWereMet())
}

// markReadApp собирает Fiber-приложение с маршрутом отметки прочтения,
// подставляя userID так же, как это делает auth middleware
func markReadApp(svc *ConversationService, userID uuid.UUID) *fiber.App {
	app := fiber.New()
	app.Post("/api/conversations/:id/read", func(c fiber.Ctx) error {
		c.Locals("userID", userID.String())
		return svc.MarkRead(c)
	})
	return app
}

func TestMarkReadMarksOnlyOtherSideAndIsIdempotent(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	conversationID := uuid.New()
	viewerID := uuid.New()
	otherID := uuid.New()

	selectParticipants := regexp.QuoteMeta(`SELECT participant_one_id, participant_two_id FROM conversations`)
	// Обновляются только непрочитанные сообщения собеседника
	updatePredicate := regexp.QuoteMeta(`sender_id != $2 AND is_read = false`)

	mock.ExpectQuery(selectParticipants).
		WithArgs(conversationID, viewerID).
		WillReturnRows(pgxmock.NewRows([]string{"participant_one_id", "participant_two_id"}).
			AddRow(viewerID, otherID))
	mock.ExpectExec(updatePredicate).
		WithArgs(conversationID, viewerID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 2))

	// Повторный вызов не находит непрочитанных сообщений
	mock.ExpectQuery(selectParticipants).
		WithArgs(conversationID, viewerID).
		WillReturnRows(pgxmock.NewRows([]string{"participant_one_id", "participant_two_id"}).
			AddRow(viewerID, otherID))
	mock.ExpectExec(updatePredicate).
		WithArgs(conversationID, viewerID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	svc := &ConversationService{pool: mock}
	app := markReadApp(svc, viewerID)

	req := httptest.NewRequest(http.MethodPost, "/api/conversations/"+conversationID.String()+"/read", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var first map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&first))
	assert.Equal(t, true, first["success"])
	assert.Equal(t, float64(2), first["updated"])

	req = httptest.NewRequest(http.MethodPost, "/api/conversations/"+conversationID.String()+"/read", nil)
	resp, err = app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var second map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&second))
	assert.Equal(t, true, second["success"])
	assert.Equal(t, float64(0), second["updated"])

	assert.NoError(t, mock.ExpectationsWereMet())
}
