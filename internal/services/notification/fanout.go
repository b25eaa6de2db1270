package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/SaaSForest/mechx-sub001/internal/db"
)

// Insert создает запись уведомления. Принимает db.Querier, поэтому может
// выполняться как внутри доменной транзакции, так и напрямую через пул.
func Insert(ctx context.Context, q db.Querier, userID uuid.UUID, ntype, title, body string, payload map[string]any) error {
	var payloadJSON []byte
	if payload != nil {
		var err error
		payloadJSON, err = json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("ошибка сериализации payload уведомления: %w", err)
		}
	}

	_, err := q.Exec(ctx, `
        INSERT INTO notifications (user_id, type, title, body, payload)
        VALUES ($1, $2, $3, $4, $5)
    `, userID, ntype, title, body, payloadJSON)

	if err != nil {
		return fmt.Errorf("ошибка создания уведомления: %w", err)
	}

	return nil
}
